// Package timeutil provides UTC date arithmetic for the gamification service.
// All deadline math runs in UTC: the task service stores due dates and
// completion timestamps in UTC, and mixing zones here would shift the
// early/late day boundaries. No external dependencies - standard library only.
package timeutil

import (
	"math"
	"time"
)

// SecondsPerDay is the fixed day length used for deadline math. Deadline
// deltas are computed on absolute durations, not calendar days, so DST does
// not apply.
const SecondsPerDay = 86400

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// StartOfDay returns the start of the day (00:00:00) in UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last nanosecond of the day in UTC.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Nanosecond)
}

// WholeDaysBetween returns floor((to - from) / 24h) as whole days.
// Positive when to is after from. The floor matters for negative deltas:
// 12 hours late is already day -1, matching floor semantics rather than
// truncation toward zero.
func WholeDaysBetween(from, to time.Time) int {
	seconds := to.Sub(from).Seconds()
	return int(math.Floor(seconds / SecondsPerDay))
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	u1, u2 := a.UTC(), b.UTC()
	return u1.Year() == u2.Year() && u1.YearDay() == u2.YearDay()
}

// DaysSince returns the number of whole days elapsed since t.
func DaysSince(t time.Time) int {
	return WholeDaysBetween(t, Now())
}
