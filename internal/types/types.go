// Package types defines core data structures for the tally tracker.
package types

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a task (and, one level up, of an
// issue). Tasks normally move between incomplete, in_progress and completed
// automatically as their checklist changes; on_hold and discarded are only
// ever entered or left by an explicit user action.
type Status string

// Task status constants
const (
	StatusIncomplete Status = "incomplete"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusOnHold     Status = "on_hold"
	StatusDiscarded  Status = "discarded"
)

// IsValid checks if the status value is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusIncomplete, StatusInProgress, StatusCompleted, StatusOnHold, StatusDiscarded:
		return true
	}
	return false
}

// IsSticky reports whether automatic checklist-driven transitions must leave
// this status alone. Only an explicit status change can move a task out of a
// sticky state.
func (s Status) IsSticky() bool {
	return s == StatusOnHold || s == StatusDiscarded
}

// Importance categorizes how heavily a task counts toward its issue's
// aggregated progress. It never affects the task's own progress value.
type Importance string

// Importance constants
const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// IsValid checks if the importance value is valid. The empty string is
// accepted: importance is optional and absent means low.
func (im Importance) IsValid() bool {
	switch im {
	case ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow, "":
		return true
	}
	return false
}

// Weight returns the aggregation weight for this importance.
// Missing or unrecognized values default to low (weight 1).
func (im Importance) Weight() float64 {
	switch im {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	default:
		return 1
	}
}

// ChecklistItem is a single entry in a task's checklist. Order is insertion
// order and matters only for display, never for progress computation.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is the leaf work item. Its Progress field is a cache of the checklist
// progress calculation and is refreshed on every checklist/status mutation;
// it is never edited independently except by explicit override flows.
type Task struct {
	ID          string          `json:"id"`
	IssueID     string          `json:"issue_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      Status          `json:"status,omitempty"`
	Importance  Importance      `json:"importance,omitempty"`
	Checklist   []ChecklistItem `json:"checklist,omitempty"`
	Progress    float64         `json:"progress"` // No omitempty: 0 is a valid cached value
	Archived    bool            `json:"archived,omitempty"`
	Assignee    string          `json:"assignee,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Version backs optimistic concurrency: updates must present the version
	// they read, and the store rejects the write if it no longer matches.
	Version int64 `json:"-"`
}

// Validate checks if the task has valid field values
func (t *Task) Validate() error {
	if len(t.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(t.Title))
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if !t.Importance.IsValid() {
		return fmt.Errorf("invalid importance: %s", t.Importance)
	}
	if len(t.Checklist) > MaxChecklistItems {
		return fmt.Errorf("checklist must have %d items or fewer (got %d)", MaxChecklistItems, len(t.Checklist))
	}
	if len(t.Tags) > MaxTags {
		return fmt.Errorf("tasks may carry at most %d tags (got %d)", MaxTags, len(t.Tags))
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100 (got %g)", t.Progress)
	}
	return nil
}

// SetDefaults applies default values for fields omitted during import.
// Call this after json.Unmarshal:
//   - Status: defaults to StatusIncomplete if empty
//
// Importance is deliberately left empty when omitted; the aggregation weight
// table already treats absent importance as low.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusIncomplete
	}
}

// ChecklistTotals returns the completed and total item counts.
func (t *Task) ChecklistTotals() (completed, total int) {
	for _, item := range t.Checklist {
		if item.Completed {
			completed++
		}
	}
	return completed, len(t.Checklist)
}

// Issue owns a set of tasks. Progress is the cached importance-weighted
// aggregate over its non-archived, non-discarded tasks; when that set is
// empty the cache keeps its last computed value rather than resetting.
type Issue struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Archived    bool       `json:"archived,omitempty"`
	Progress    float64    `json:"progress"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Version     int64      `json:"-"`
}

// Validate checks if the issue has valid field values
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(i.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(i.Title))
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if i.Progress < 0 || i.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100 (got %g)", i.Progress)
	}
	return nil
}

// SetDefaults applies default values for fields omitted during import.
func (i *Issue) SetDefaults() {
	if i.Status == "" {
		i.Status = StatusIncomplete
	}
}

// Project owns a set of issues. Progress aggregates issue progress with a
// uniform weight of 1 per issue: issues carry no importance field.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Progress    float64   `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"-"`
}

// Validate checks if the project has valid field values
func (p *Project) Validate() error {
	if len(p.Name) == 0 {
		return fmt.Errorf("name is required")
	}
	if len(p.Name) > 200 {
		return fmt.Errorf("name must be 200 characters or less (got %d)", len(p.Name))
	}
	if p.Progress < 0 || p.Progress > 100 {
		return fmt.Errorf("progress must be between 0 and 100 (got %g)", p.Progress)
	}
	return nil
}

// Comment is a free-form note attached to a task.
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Collection size limits enforced by the CRUD layer. The progress engine
// assumes already-validated collections and never re-checks them.
const (
	MaxChecklistItems = 200
	MaxTags           = 10
	MaxTagLength      = 50
)
