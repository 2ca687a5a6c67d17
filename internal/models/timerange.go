package models

// TimeRange is a half-open wall-clock window [Start, End) on a single day.
// Times are zero-padded "HH:MM" strings, so lexicographic comparison is
// chronological comparison.
type TimeRange struct {
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

// Overlaps reports whether two windows share at least one instant.
// Back-to-back windows (a.End == b.Start) do not overlap. The three
// informal cases (overlap at start, overlap at end, containment) are all
// instances of this single inequality.
func (a TimeRange) Overlaps(b TimeRange) bool {
	return a.Start < b.End && b.Start < a.End
}

// Valid reports whether the window is well-formed.
func (a TimeRange) Valid() bool {
	return a.Start < a.End
}
