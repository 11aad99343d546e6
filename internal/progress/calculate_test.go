package progress

import (
	"testing"

	"github.com/tallyhq/tally/internal/types"
)

func items(completed ...bool) []types.ChecklistItem {
	out := make([]types.ChecklistItem, len(completed))
	for i, c := range completed {
		out[i] = types.ChecklistItem{ID: string(rune('a' + i)), Completed: c}
	}
	return out
}

func TestCalculateEmptyChecklistUsesStatusTable(t *testing.T) {
	tests := []struct {
		status types.Status
		want   float64
	}{
		{types.StatusCompleted, 100},
		{types.StatusInProgress, 50},
		{types.StatusOnHold, 25},
		{types.StatusDiscarded, 0},
		{types.StatusIncomplete, 0},
		{types.Status(""), 0},        // missing status behaves as incomplete
		{types.Status("unknown"), 0}, // so do unrecognized values
	}
	for _, tt := range tests {
		if got := Calculate(nil, tt.status); got != tt.want {
			t.Errorf("Calculate(nil, %q) = %g, want %g", tt.status, got, tt.want)
		}
	}
}

func TestCalculateChecklistRatio(t *testing.T) {
	tests := []struct {
		name      string
		checklist []types.ChecklistItem
		want      float64
	}{
		{"none completed", items(false, false, false), 0},
		{"all completed", items(true, true), 100},
		{"two of three", items(true, false, true), 66.7},
		{"one of three", items(false, true, false), 33.3},
		{"one of six", items(true, false, false, false, false, false), 16.7},
		{"half", items(true, false), 50},
		{"one of seven rounds half up", items(true, false, false, false, false, false, false), 14.3},
		{"single completed item", items(true), 100},
		{"single incomplete item", items(false), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Status must be irrelevant once a checklist exists.
			for _, status := range []types.Status{types.StatusIncomplete, types.StatusCompleted, types.StatusOnHold} {
				if got := Calculate(tt.checklist, status); got != tt.want {
					t.Errorf("Calculate(%s, %q) = %g, want %g", tt.name, status, got, tt.want)
				}
			}
		})
	}
}

func TestCalculateIgnoresItemText(t *testing.T) {
	checklist := []types.ChecklistItem{
		{ID: "1", Text: "", Completed: true},
		{ID: "2", Text: "write the docs", Completed: false},
	}
	if got := Calculate(checklist, types.StatusIncomplete); got != 50 {
		t.Errorf("Calculate() = %g, want 50 (empty-text items still count)", got)
	}
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{66.666666, 66.7},
		{33.333333, 33.3},
		{14.25, 14.3}, // half rounds up
		{0, 0},
		{100, 100},
		{99.99, 100},
	}
	for _, tt := range tests {
		if got := Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}
