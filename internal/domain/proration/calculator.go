package proration

import (
	"fmt"
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// PauseInterval is a suspension of the subscription as seen by the
// calculator. End nil means open-ended; it is clamped to the billed period.
type PauseInterval struct {
	Start time.Time
	End   *time.Time
}

// PriceForMonthParams carries everything needed to price one subscription
// month. The calculator is a pure function of these inputs; looking up the
// plan price, pause rows and overrides is the caller's job.
type PriceForMonthParams struct {
	PlanName string

	// SubscriptionStart truncates the billed period when the subscription
	// starts after the 1st of the month (broken start)
	SubscriptionStart time.Time

	// SubscriptionEnd truncates the billed period when the subscription ends
	// before the last day of the month (broken end); nil means open-ended
	SubscriptionEnd *time.Time

	// BasePrice is the plan price effective on the first day of the month
	BasePrice decimal.Decimal

	// Pause is the interval overlapping the billed period, if any
	Pause *PauseInterval

	Year  int
	Month time.Month
}

// Result is the outcome of pricing one subscription month.
type Result struct {
	// Amount is the prorated charge, rounded to cents
	Amount decimal.Decimal

	// Description is the rendered line-item text, period dates included
	Description string

	// PeriodStart/PeriodEnd are the possibly truncated billed period bounds
	PeriodStart time.Time
	PeriodEnd   time.Time

	// PeriodDays is the day count actually charged, pause days subtracted
	PeriodDays int
	// MonthDays is the full calendar month day count
	MonthDays int
	// PauseDays is the pause overlap subtracted from the period
	PauseDays int

	// Prorated is false when the full base price was charged
	Prorated bool
}

// Calculator prices a subscription for a billing month, applying
// broken-period truncation and pause-day subtraction.
type Calculator interface {
	PriceForMonth(params PriceForMonthParams) (*Result, error)
}

// NewCalculator returns the day-based calculator.
func NewCalculator() Calculator {
	return &dayBasedCalculator{}
}

type dayBasedCalculator struct{}

func (c *dayBasedCalculator) PriceForMonth(params PriceForMonthParams) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	month := MonthPeriod(params.Year, params.Month)
	monthDays := month.Days()
	period := month

	subStart := types.DateOnly(params.SubscriptionStart)
	prorated := false

	// Broken start: subscription begins after the 1st but within the month
	if subStart.After(month.Start) && !subStart.After(month.End) {
		period.Start = subStart
		prorated = true
	}

	// Broken end: subscription ends within the month, before its last day
	if params.SubscriptionEnd != nil {
		subEnd := types.DateOnly(*params.SubscriptionEnd)
		if !subEnd.Before(month.Start) && subEnd.Before(month.End) {
			period.End = subEnd
			prorated = true
		}
	}

	periodDays := period.Days()

	// Pause days come off the truncated period. An open or overlong pause is
	// clamped to the period end first so it never extends proration beyond
	// the month being billed.
	pauseDays := 0
	if params.Pause != nil {
		pauseEnd := period.End
		if params.Pause.End != nil && types.DateOnly(*params.Pause.End).Before(period.End) {
			pauseEnd = types.DateOnly(*params.Pause.End)
		}
		pauseRange := NewPeriod(params.Pause.Start, pauseEnd)
		pauseDays = OverlapDays(period, pauseRange)
		if pauseDays > 0 {
			periodDays -= pauseDays
			prorated = true
		}
	}

	// A pause covering the whole truncated period leaves nothing to charge.
	// Billing normally skips such months before pricing; this is the
	// defensive path.
	if periodDays <= 0 {
		return &Result{
			Amount:      decimal.Zero,
			Description: fmt.Sprintf("%s (no billable days)", params.PlanName),
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
			PeriodDays:  0,
			MonthDays:   monthDays,
			PauseDays:   pauseDays,
			Prorated:    true,
		}, nil
	}

	fraction := decimal.NewFromInt(int64(periodDays)).
		Div(decimal.NewFromInt(int64(monthDays)))
	amount := types.RoundCurrency(params.BasePrice.Mul(fraction))

	return &Result{
		Amount:      amount,
		Description: c.describe(params, period, pauseDays, periodDays),
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		PeriodDays:  periodDays,
		MonthDays:   monthDays,
		PauseDays:   pauseDays,
		Prorated:    prorated,
	}, nil
}

func (c *dayBasedCalculator) describe(params PriceForMonthParams, period Period, pauseDays, periodDays int) string {
	description := fmt.Sprintf("%s %s - %s",
		params.PlanName,
		types.FormatDate(period.Start),
		types.FormatDate(period.End),
	)

	if pauseDays > 0 {
		description += fmt.Sprintf("\n(Pause: %d days | Days paid this period: %d)",
			pauseDays, periodDays)
	}

	return description
}

func validateParams(params PriceForMonthParams) error {
	if params.Month < time.January || params.Month > time.December {
		return ierr.NewError("invalid billing month").
			WithHintf("month %d is out of range", params.Month).
			Mark(ierr.ErrValidation)
	}
	if params.Year < 1 {
		return ierr.NewError("invalid billing year").
			WithHintf("year %d is out of range", params.Year).
			Mark(ierr.ErrValidation)
	}
	if params.SubscriptionStart.IsZero() {
		return ierr.NewError("subscription start date is required").
			Mark(ierr.ErrValidation)
	}
	if params.BasePrice.IsNegative() {
		return ierr.NewError("base price must be non negative").
			WithReportableDetails(map[string]any{
				"base_price": params.BasePrice,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
