package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var ref = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func TestWholeDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same instant", ref, ref, 0},
		{"almost a day", ref, ref.Add(24*time.Hour - time.Second), 0},
		{"exactly a day", ref, ref.Add(24 * time.Hour), 1},
		{"five days", ref, ref.Add(5 * 24 * time.Hour), 5},
		{"one hour behind floors to -1", ref, ref.Add(-time.Hour), -1},
		{"exactly a day behind", ref, ref.Add(-24 * time.Hour), -1},
		{"a day and an hour behind", ref, ref.Add(-25 * time.Hour), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WholeDaysBetween(tt.from, tt.to))
		})
	}
}

func TestStartAndEndOfDay(t *testing.T) {
	start := StartOfDay(ref)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), start)

	end := EndOfDay(ref)
	assert.Equal(t, 10, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.True(t, end.After(ref))
}

func TestStartOfDay_NormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 11, 2, 0, 0, 0, zone) // 2026-03-10 21:00 UTC

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), StartOfDay(local))
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(ref, ref.Add(8*time.Hour)))
	assert.False(t, SameDay(ref, ref.Add(9*time.Hour)))
	assert.False(t, SameDay(ref, ref.AddDate(1, 0, 0)))
}
