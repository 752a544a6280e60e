package types

import (
	"time"
)

// DateOnly normalizes a time to midnight UTC so that billing arithmetic works
// on civil dates regardless of the clock component of the input.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthStart returns the first day of the given month at midnight UTC.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of the given month at midnight UTC.
// time.AddDate handles month lengths and leap years.
func MonthEnd(year int, month time.Month) time.Time {
	return MonthStart(year, month).AddDate(0, 1, -1)
}

// LastDayOfMonth returns the last day of the month containing t.
func LastDayOfMonth(t time.Time) time.Time {
	return MonthEnd(t.Year(), t.Month())
}

// DaysInclusive counts the days in the inclusive civil date range [start, end].
// A range of a single day counts as 1. Returns a negative number when end is
// before start; callers decide whether that is an error or clamps to zero.
func DaysInclusive(start, end time.Time) int {
	return int(DateOnly(end).Sub(DateOnly(start)).Hours()/24) + 1
}

// FormatDate renders a civil date the way invoice line descriptions expect it.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
