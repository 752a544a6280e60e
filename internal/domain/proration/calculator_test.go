package proration

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCalculator_PriceForMonth(t *testing.T) {
	calc := NewCalculator()

	tests := []struct {
		name               string
		params             PriceForMonthParams
		expectedAmount     decimal.Decimal
		expectedPeriodDays int
		expectedMonthDays  int
		expectedPauseDays  int
		expectedProrated   bool
		expectedError      bool
	}{
		{
			name: "full_month_equals_base_price",
			params: PriceForMonthParams{
				PlanName:          "Unlimited Yoga",
				SubscriptionStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(100.00),
				Year:              2024,
				Month:             time.June,
			},
			expectedAmount:     decimal.NewFromFloat(100.00),
			expectedPeriodDays: 30,
			expectedMonthDays:  30,
			expectedProrated:   false,
		},
		{
			name: "broken_start_on_the_10th_of_30_day_month",
			params: PriceForMonthParams{
				PlanName:          "Unlimited Yoga",
				SubscriptionStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(100.00),
				Year:              2024,
				Month:             time.June,
			},
			// 21 remaining days of 30: 100 * 21/30 = 70.00
			expectedAmount:     decimal.NewFromFloat(70.00),
			expectedPeriodDays: 21,
			expectedMonthDays:  30,
			expectedProrated:   true,
		},
		{
			name: "broken_start_with_pause",
			params: PriceForMonthParams{
				PlanName:          "Unlimited Yoga",
				SubscriptionStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(100.00),
				Pause: &PauseInterval{
					Start: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
					End:   datePtr(2024, 6, 20),
				},
				Year:  2024,
				Month: time.June,
			},
			// 21 days minus 6 pause days: 100 * 15/30 = 50.00
			expectedAmount:     decimal.NewFromFloat(50.00),
			expectedPeriodDays: 15,
			expectedMonthDays:  30,
			expectedPauseDays:  6,
			expectedProrated:   true,
		},
		{
			name: "broken_end_mid_month",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				SubscriptionEnd:   datePtr(2024, 3, 15),
				BasePrice:         decimal.NewFromFloat(62.00),
				Year:              2024,
				Month:             time.March,
			},
			// 15 of 31 days: 62 * 15/31 = 30.00
			expectedAmount:     decimal.NewFromFloat(30.00),
			expectedPeriodDays: 15,
			expectedMonthDays:  31,
			expectedProrated:   true,
		},
		{
			name: "open_ended_pause_clamped_to_period_end",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(90.00),
				Pause: &PauseInterval{
					Start: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
					End:   nil,
				},
				Year:  2024,
				Month: time.February,
			},
			// 2024 is a leap year: pause covers feb 20-29, 10 of 29 days off
			expectedAmount:     decimal.NewFromFloat(58.97),
			expectedPeriodDays: 19,
			expectedMonthDays:  29,
			expectedPauseDays:  10,
			expectedProrated:   true,
		},
		{
			name: "pause_straddling_month_start",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(100.00),
				Pause: &PauseInterval{
					Start: time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC),
					End:   datePtr(2024, 6, 5),
				},
				Year:  2024,
				Month: time.June,
			},
			// overlap june 1-5 only: 25 of 30 days charged
			expectedAmount:     decimal.NewFromFloat(83.33),
			expectedPeriodDays: 25,
			expectedMonthDays:  30,
			expectedPauseDays:  5,
			expectedProrated:   true,
		},
		{
			name: "pause_covering_entire_period_charges_nothing",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(100.00),
				Pause: &PauseInterval{
					Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
					End:   datePtr(2024, 8, 31),
				},
				Year:  2024,
				Month: time.June,
			},
			expectedAmount:     decimal.Zero,
			expectedPeriodDays: 0,
			expectedMonthDays:  30,
			expectedPauseDays:  30,
			expectedProrated:   true,
		},
		{
			name: "subscription_start_after_month_is_not_truncated",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(75.50),
				Year:              2024,
				Month:             time.June,
			},
			expectedAmount:     decimal.NewFromFloat(75.50),
			expectedPeriodDays: 30,
			expectedMonthDays:  30,
			expectedProrated:   false,
		},
		{
			name: "invalid_month_rejected",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(75.50),
				Year:              2024,
				Month:             time.Month(13),
			},
			expectedError: true,
		},
		{
			name: "negative_base_price_rejected",
			params: PriceForMonthParams{
				PlanName:          "Basic",
				SubscriptionStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				BasePrice:         decimal.NewFromFloat(-10),
				Year:              2024,
				Month:             time.June,
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := calc.PriceForMonth(tt.params)

			if tt.expectedError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)

			assert.True(t, tt.expectedAmount.Equal(result.Amount),
				"amount mismatch: expected %s, got %s", tt.expectedAmount, result.Amount)
			assert.Equal(t, tt.expectedPeriodDays, result.PeriodDays)
			assert.Equal(t, tt.expectedMonthDays, result.MonthDays)
			assert.Equal(t, tt.expectedPauseDays, result.PauseDays)
			assert.Equal(t, tt.expectedProrated, result.Prorated)
		})
	}
}

func TestCalculator_PriceForMonth_Idempotent(t *testing.T) {
	calc := NewCalculator()
	params := PriceForMonthParams{
		PlanName:          "Unlimited Yoga",
		SubscriptionStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		BasePrice:         decimal.NewFromFloat(100.00),
		Year:              2024,
		Month:             time.June,
	}

	first, err := calc.PriceForMonth(params)
	require.NoError(t, err)
	second, err := calc.PriceForMonth(params)
	require.NoError(t, err)

	assert.True(t, first.Amount.Equal(second.Amount))
	assert.Equal(t, first.PeriodDays, second.PeriodDays)
	assert.Equal(t, first.Description, second.Description)
}

func TestCalculator_PriceForMonth_Description(t *testing.T) {
	calc := NewCalculator()

	result, err := calc.PriceForMonth(PriceForMonthParams{
		PlanName:          "Unlimited Yoga",
		SubscriptionStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		BasePrice:         decimal.NewFromFloat(100.00),
		Year:              2024,
		Month:             time.June,
	})
	require.NoError(t, err)
	assert.Equal(t, "Unlimited Yoga 2024-06-10 - 2024-06-30", result.Description)

	withPause, err := calc.PriceForMonth(PriceForMonthParams{
		PlanName:          "Unlimited Yoga",
		SubscriptionStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		BasePrice:         decimal.NewFromFloat(100.00),
		Pause: &PauseInterval{
			Start: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			End:   datePtr(2024, 6, 20),
		},
		Year:  2024,
		Month: time.June,
	})
	require.NoError(t, err)
	assert.Contains(t, withPause.Description, "Days paid this period: 15")
}
