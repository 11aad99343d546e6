package progress

import "github.com/tallyhq/tally/internal/types"

// statusProgress maps a task status to its progress value for tasks without
// a checklist. Unknown statuses get the incomplete value.
var statusProgress = map[types.Status]float64{
	types.StatusCompleted:  100,
	types.StatusInProgress: 50,
	types.StatusOnHold:     25,
	types.StatusDiscarded:  0,
	types.StatusIncomplete: 0,
}

// Calculate converts a task's checklist (or, absent a checklist, its status)
// into a progress percentage in [0, 100].
//
// A non-empty checklist yields the completed ratio rounded to one decimal
// place; item text is irrelevant, every item counts. An empty checklist
// falls back to the fixed status table. Calculate is total: it never fails,
// and unrecognized statuses are treated as incomplete.
func Calculate(checklist []types.ChecklistItem, status types.Status) float64 {
	if len(checklist) == 0 {
		return statusProgress[status]
	}

	completed := 0
	for _, item := range checklist {
		if item.Completed {
			completed++
		}
	}
	return Round1(100 * float64(completed) / float64(len(checklist)))
}
