package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeRangeOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a    TimeRange
		b    TimeRange
		want bool
	}{
		{"partial overlap at start", TimeRange{"08:00", "09:00"}, TimeRange{"08:30", "09:30"}, true},
		{"partial overlap at end", TimeRange{"08:30", "09:30"}, TimeRange{"08:00", "09:00"}, true},
		{"containment", TimeRange{"08:00", "10:00"}, TimeRange{"08:30", "09:00"}, true},
		{"identical", TimeRange{"08:00", "09:00"}, TimeRange{"08:00", "09:00"}, true},
		{"back to back", TimeRange{"08:00", "09:00"}, TimeRange{"09:00", "10:00"}, false},
		{"disjoint", TimeRange{"08:00", "09:00"}, TimeRange{"10:00", "11:00"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestTimeRangeValid(t *testing.T) {
	assert.True(t, TimeRange{"08:00", "09:00"}.Valid())
	assert.False(t, TimeRange{"09:00", "09:00"}.Valid())
	assert.False(t, TimeRange{"10:00", "09:00"}.Valid())
}

func TestVacationCovers(t *testing.T) {
	v := Vacation{StartDate: "2026-03-01", EndDate: "2026-03-10"}
	assert.True(t, v.Covers("2026-03-01"))
	assert.True(t, v.Covers("2026-03-10"))
	assert.True(t, v.Covers("2026-03-05"))
	assert.False(t, v.Covers("2026-02-28"))
	assert.False(t, v.Covers("2026-03-11"))
}
