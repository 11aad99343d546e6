// Package validation parses and validates user-supplied field values before
// they reach the engine. The CLI funnels flag input through here so error
// messages are consistent across commands.
package validation

import (
	"fmt"
	"strings"

	"github.com/tallyhq/tally/internal/types"
)

// importanceAliases maps shorthand to canonical importance levels.
var importanceAliases = map[string]types.Importance{
	"c": types.ImportanceCritical,
	"h": types.ImportanceHigh,
	"m": types.ImportanceMedium,
	"l": types.ImportanceLow,
}

// ParseImportance validates an importance string. Accepts the canonical
// levels and single-letter shorthand (c/h/m/l). Empty input is valid and
// means the default (low).
func ParseImportance(content string) (types.Importance, error) {
	normalized := strings.ToLower(strings.TrimSpace(content))
	if alias, ok := importanceAliases[normalized]; ok {
		return alias, nil
	}

	importance := types.Importance(normalized)
	if !importance.IsValid() {
		return "", fmt.Errorf("invalid importance %q (expected critical, high, medium, or low)", content)
	}
	return importance, nil
}

// ParseStatus validates a status string against the canonical lifecycle
// values.
func ParseStatus(content string) (types.Status, error) {
	status := types.Status(strings.ToLower(strings.TrimSpace(content)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid status %q (expected incomplete, in_progress, completed, on_hold, or discarded)", content)
	}
	return status, nil
}

// ValidateIDFormat checks that an ID looks like prefix-hash (tsk-8d8e3) and
// returns the prefix. Empty IDs pass through for callers that generate one.
func ValidateIDFormat(id string) (string, error) {
	if id == "" {
		return "", nil
	}
	if !strings.Contains(id, "-") {
		return "", fmt.Errorf("invalid ID format %q (expected prefix-hash, e.g. tsk-8d8e3)", id)
	}
	return id[:strings.Index(id, "-")], nil
}
