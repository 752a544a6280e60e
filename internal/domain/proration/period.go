package proration

import (
	"time"

	"github.com/fitledger/fitledger/internal/types"
)

// Period is an inclusive civil date range [Start, End]. A period of a single
// day has one day, not zero; all billing arithmetic in this package counts
// days inclusively.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod normalizes both bounds to civil dates.
func NewPeriod(start, end time.Time) Period {
	return Period{
		Start: types.DateOnly(start),
		End:   types.DateOnly(end),
	}
}

// MonthPeriod returns the full calendar month as a period.
func MonthPeriod(year int, month time.Month) Period {
	return Period{
		Start: types.MonthStart(year, month),
		End:   types.MonthEnd(year, month),
	}
}

// Days returns the inclusive day count of the period.
func (p Period) Days() int {
	return types.DaysInclusive(p.Start, p.End)
}

// Contains reports whether the civil date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	d := types.DateOnly(date)
	return !d.Before(p.Start) && !d.After(p.End)
}

// OverlapDays returns the number of days two inclusive periods share,
// never negative:
//
//	max(0, min(a.End, b.End) - max(a.Start, b.Start) + 1)
//
// Callers with open-ended ranges must clamp them to the billing period before
// calling; an open pause never extends proration beyond the month billed.
func OverlapDays(a, b Period) int {
	latestStart := a.Start
	if b.Start.After(latestStart) {
		latestStart = b.Start
	}

	earliestEnd := a.End
	if b.End.Before(earliestEnd) {
		earliestEnd = b.End
	}

	delta := types.DaysInclusive(latestStart, earliestEnd)
	if delta < 0 {
		return 0
	}
	return delta
}
