package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/tallyhq/tally/internal/types"
)

var assumeYes bool

// completionConfirmer asks whether a fully-checked task should be marked
// completed. Non-interactive runs (no TTY, --json) decline, which lands the
// task on in_progress; --yes accepts without prompting.
func completionConfirmer(ctx context.Context, task *types.Task) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if jsonOutput || !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, nil
	}

	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("All checklist items on %q are done.", task.Title)).
			Description("Mark the task completed?").
			Affirmative("Complete it").
			Negative("Keep in progress").
			Value(&confirmed),
	))
	if err := form.RunWithContext(ctx); err != nil {
		// Treat an aborted prompt (ctrl-c) as a decline, not a failure.
		return false, nil
	}
	return confirmed, nil
}
