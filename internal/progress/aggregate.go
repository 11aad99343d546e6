package progress

import (
	"sort"
	"time"

	"github.com/tallyhq/tally/internal/types"
)

// Child is one input row to an aggregation: a task rolling into its issue,
// or an issue rolling into its project.
type Child struct {
	ID         string
	Progress   float64
	Importance types.Importance
	Archived   bool
	Status     types.Status
	EndDate    *time.Time
}

// TaskChild adapts a task for aggregation into its issue.
func TaskChild(t *types.Task) Child {
	return Child{
		ID:         t.ID,
		Progress:   t.Progress,
		Importance: t.Importance,
		Archived:   t.Archived,
		Status:     t.Status,
		EndDate:    t.EndDate,
	}
}

// IssueChild adapts an issue for aggregation into its project. Issues carry
// no importance, so every issue weighs 1.
func IssueChild(i *types.Issue) Child {
	return Child{
		ID:       i.ID,
		Progress: i.Progress,
		Archived: i.Archived,
		Status:   i.Status,
		EndDate:  i.EndDate,
	}
}

// Result is the output of Aggregate.
type Result struct {
	// Progress is the importance-weighted average of the eligible children,
	// or the previous value when no children are eligible.
	Progress float64

	// Preview is a ranked, bounded subset of the eligible children for
	// summary display. It never influences Progress and is not persisted.
	Preview []Child
}

// Aggregate rolls a set of sibling children up into their parent's progress.
//
// Archived and discarded children are excluded. If nothing remains, the
// parent's progress freezes at previous (never forced to zero) and the
// preview is empty. Otherwise the result is the weighted average of child
// progress, each child clamped to [0,100] first, rounded to one decimal.
//
// The preview ranks eligible children by importance weight (highest first),
// ties broken by earliest end date with undated children last, and takes the
// first previewLimit entries (previewLimit <= 0 means no preview).
//
// Aggregate is pure and idempotent: callers persist Progress themselves and
// re-run the next level up when it changed.
func Aggregate(children []Child, previous float64, previewLimit int) Result {
	eligible := make([]Child, 0, len(children))
	for _, c := range children {
		if c.Archived || c.Status == types.StatusDiscarded {
			continue
		}
		eligible = append(eligible, c)
	}

	if len(eligible) == 0 {
		return Result{Progress: previous}
	}

	var weightedSum, totalWeight float64
	for _, c := range eligible {
		w := c.Importance.Weight()
		weightedSum += Clamp(c.Progress, 0, 100) * w
		totalWeight += w
	}
	// totalWeight >= 1 here: every eligible child weighs at least 1.
	result := Round1(Clamp(weightedSum/totalWeight, 0, 100))

	return Result{
		Progress: result,
		Preview:  preview(eligible, previewLimit),
	}
}

// preview returns the ranked representative subset of eligible children.
func preview(eligible []Child, limit int) []Child {
	if limit <= 0 {
		return nil
	}

	ranked := make([]Child, len(eligible))
	copy(ranked, eligible)
	sort.SliceStable(ranked, func(a, b int) bool {
		wa, wb := ranked[a].Importance.Weight(), ranked[b].Importance.Weight()
		if wa != wb {
			return wa > wb
		}
		return endDateBefore(ranked[a].EndDate, ranked[b].EndDate)
	})

	if limit > len(ranked) {
		limit = len(ranked)
	}
	return ranked[:limit]
}

// endDateBefore orders end dates ascending with missing dates after all
// dated entries.
func endDateBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}
