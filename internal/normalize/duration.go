package normalize

import "math"

// Duration returns the nearest integer v represents, per spec.md §4.2.
// Null/empty returns 0; NaN returns 0; negative values are returned as-is
// (not forbidden here — the canonical row construction step is what
// clamps a negative duration to 0 before staging).
func Duration(v any) int64 {
	if isBlank(v) {
		return 0
	}

	f, ok := numericValue(v)
	if !ok {
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return int64(math.Round(f))
}
