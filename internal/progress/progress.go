// Package progress is the canonical progress rollup and task-lifecycle
// engine. Every screen and service that needs a progress percentage, an
// automatic status transition, or a parent rollup goes through this package;
// nothing else may carry its own copy of the weight table or rounding rule.
//
// All functions here are pure: no I/O, no persistence, no side effects.
// Callers persist the results and trigger the next aggregation level up.
package progress

import "math"

// Round1 rounds to one decimal place, half-up. All progress percentages in
// the tracker are stored at this precision.
func Round1(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

// Clamp limits v to the [lo, hi] range.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
