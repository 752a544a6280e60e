package types

import (
	"github.com/shopspring/decimal"
)

// RoundCurrency rounds a monetary amount to 2 decimal places, half away from
// zero. Rounding is applied at persistence points only, never on intermediate
// computations, so that repeated recomputation cannot drift.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundCredits rounds a class-credit balance to 1 decimal place, matching the
// fractional-credit display precision.
func RoundCredits(d decimal.Decimal) decimal.Decimal {
	return d.Round(1)
}
