package progress

import (
	"testing"

	"github.com/tallyhq/tally/internal/types"
)

func TestTransitionStickyStatuses(t *testing.T) {
	checklists := [][]types.ChecklistItem{
		nil,
		items(true),
		items(true, true, true),
		items(false, false),
		items(true, false),
	}
	for _, sticky := range []types.Status{types.StatusOnHold, types.StatusDiscarded} {
		for i, cl := range checklists {
			d := Transition(sticky, cl, true)
			if d.Status != sticky {
				t.Errorf("checklist %d: Transition(%q) moved to %q, sticky statuses must not auto-transition", i, sticky, d.Status)
			}
			if d.RequiresConfirmation {
				t.Errorf("checklist %d: Transition(%q) requires confirmation, want none", i, sticky)
			}
		}
	}
}

func TestTransitionChecklistEdits(t *testing.T) {
	tests := []struct {
		name         string
		current      types.Status
		checklist    []types.ChecklistItem
		hadChecklist bool
		wantStatus   types.Status
		wantConfirm  bool
	}{
		{
			name:        "all completed from incomplete asks for confirmation",
			current:     types.StatusIncomplete,
			checklist:   items(true, true, true),
			wantStatus:  types.StatusCompleted,
			wantConfirm: true,
		},
		{
			name:        "all completed from in_progress asks for confirmation",
			current:     types.StatusInProgress,
			checklist:   items(true),
			wantStatus:  types.StatusCompleted,
			wantConfirm: true,
		},
		{
			name:       "some completed moves to in_progress",
			current:    types.StatusIncomplete,
			checklist:  items(true, false),
			wantStatus: types.StatusInProgress,
		},
		{
			name:       "none completed moves to incomplete",
			current:    types.StatusInProgress,
			checklist:  items(false, false, false),
			wantStatus: types.StatusIncomplete,
		},
		{
			name:       "unchecking one item drops out of completed immediately",
			current:    types.StatusCompleted,
			checklist:  items(true, true, false),
			wantStatus: types.StatusInProgress,
		},
		{
			name:         "removing the checklist while in_progress resets to incomplete",
			current:      types.StatusInProgress,
			checklist:    nil,
			hadChecklist: true,
			wantStatus:   types.StatusIncomplete,
		},
		{
			name:         "removing the checklist while completed resets to incomplete",
			current:      types.StatusCompleted,
			checklist:    nil,
			hadChecklist: true,
			wantStatus:   types.StatusIncomplete,
		},
		{
			name:       "empty checklist with no prior checklist carries no signal",
			current:    types.StatusInProgress,
			checklist:  nil,
			wantStatus: types.StatusInProgress,
		},
		{
			name:         "empty checklist leaves incomplete alone",
			current:      types.StatusIncomplete,
			checklist:    nil,
			hadChecklist: true,
			wantStatus:   types.StatusIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Transition(tt.current, tt.checklist, tt.hadChecklist)
			if d.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", d.Status, tt.wantStatus)
			}
			if d.RequiresConfirmation != tt.wantConfirm {
				t.Errorf("requiresConfirmation = %v, want %v", d.RequiresConfirmation, tt.wantConfirm)
			}
		})
	}
}

func TestDecisionResolve(t *testing.T) {
	d := Transition(types.StatusIncomplete, items(true, true), false)
	if !d.RequiresConfirmation {
		t.Fatal("completing every item must require confirmation")
	}
	if got := d.Resolve(true); got != types.StatusCompleted {
		t.Errorf("confirmed resolve = %q, want %q", got, types.StatusCompleted)
	}
	if got := d.Resolve(false); got != types.StatusInProgress {
		t.Errorf("declined resolve = %q, want %q", got, types.StatusInProgress)
	}

	// Resolve on a decision without confirmation ignores the answer.
	plain := Transition(types.StatusIncomplete, items(true, false), false)
	if got := plain.Resolve(false); got != types.StatusInProgress {
		t.Errorf("resolve of unconditional decision = %q, want %q", got, types.StatusInProgress)
	}
}

func TestTransitionThenCalculateStayInSync(t *testing.T) {
	// The service persists status and progress together; verify the pair the
	// engine produces for the final toggle of a checklist.
	checklist := items(true, true, true)
	d := Transition(types.StatusIncomplete, checklist, true)

	confirmed := d.Resolve(true)
	if got := Calculate(checklist, confirmed); got != 100 {
		t.Errorf("confirmed progress = %g, want 100", got)
	}

	declined := d.Resolve(false)
	if got := Calculate(checklist, declined); got != 100 {
		// Progress comes from the checklist, not the status, once items exist.
		t.Errorf("declined progress = %g, want 100", got)
	}
}
