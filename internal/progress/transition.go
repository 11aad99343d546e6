package progress

import "github.com/tallyhq/tally/internal/types"

// Decision is the outcome of running a checklist edit through the status
// state machine.
//
// When RequiresConfirmation is true the caller must obtain an explicit
// yes/no answer before persisting Status: completing a task is never done
// silently. A declined confirmation persists DeclinedStatus instead.
type Decision struct {
	Status               types.Status
	RequiresConfirmation bool

	// DeclinedStatus is the status to persist when the user declines a
	// confirmation-gated transition. Only meaningful when
	// RequiresConfirmation is true.
	DeclinedStatus types.Status
}

// Transition decides the next task status after a checklist edit.
//
// Rules:
//   - Sticky statuses (on_hold, discarded) are never auto-overridden; only
//     an explicit user status change leaves them.
//   - All items completed: target completed, gated by confirmation. A
//     decline lands on in_progress, since the checklist demonstrably had
//     completed items.
//   - Some items completed: in_progress.
//   - No items completed (non-empty checklist): incomplete.
//   - Checklist emptied while in_progress/completed: removal is treated as
//     regression, status resets to incomplete. An empty checklist otherwise
//     carries no signal and leaves the status alone.
//
// hadChecklist reports whether the checklist was non-empty before this edit;
// it only matters when the new checklist is empty.
//
// After the decision is resolved, run Calculate with the resulting status so
// the cached progress and the status are persisted together.
func Transition(current types.Status, checklist []types.ChecklistItem, hadChecklist bool) Decision {
	if current.IsSticky() {
		return Decision{Status: current}
	}

	if len(checklist) == 0 {
		if hadChecklist && (current == types.StatusInProgress || current == types.StatusCompleted) {
			return Decision{Status: types.StatusIncomplete}
		}
		return Decision{Status: current}
	}

	completed := 0
	for _, item := range checklist {
		if item.Completed {
			completed++
		}
	}

	switch {
	case completed == len(checklist):
		return Decision{
			Status:               types.StatusCompleted,
			RequiresConfirmation: true,
			DeclinedStatus:       types.StatusInProgress,
		}
	case completed > 0:
		return Decision{Status: types.StatusInProgress}
	default:
		return Decision{Status: types.StatusIncomplete}
	}
}

// Resolve collapses a decision into the status to persist, given the user's
// answer to a confirmation prompt (ignored when none was required).
func (d Decision) Resolve(confirmed bool) types.Status {
	if !d.RequiresConfirmation || confirmed {
		return d.Status
	}
	return d.DeclinedStatus
}
