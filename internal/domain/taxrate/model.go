package taxrate

import (
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// TaxRate represents a named VAT percentage applied to invoice items.
// Percentage is nil when the rate is a zero-rate marker.
type TaxRate struct {
	ID         string           `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	Percentage *decimal.Decimal `db:"percentage" json:"percentage,omitempty"`
	types.BaseModel
}

func (t *TaxRate) Validate() error {
	if t.Name == "" {
		return ierr.NewError("tax rate name is required").
			WithHint("Please provide a name for the tax rate").
			Mark(ierr.ErrValidation)
	}
	if t.Percentage != nil && t.Percentage.IsNegative() {
		return ierr.NewError("tax rate percentage must be non negative").
			WithReportableDetails(map[string]any{
				"percentage": t.Percentage,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TaxAmounts is the result of applying a tax percentage to a price.
type TaxAmounts struct {
	VAT   decimal.Decimal
	Total decimal.Decimal
}

// Compute applies a tax percentage to a tax-exclusive price. A nil percentage
// means no tax applies: VAT is zero and the total equals the price. Values are
// kept at full precision; rounding happens at the persistence boundary.
func Compute(price decimal.Decimal, percentage *decimal.Decimal) TaxAmounts {
	if percentage == nil {
		return TaxAmounts{
			VAT:   decimal.Zero,
			Total: price,
		}
	}

	vat := price.Mul(*percentage).Div(decimal.NewFromInt(100))
	return TaxAmounts{
		VAT:   vat,
		Total: price.Add(vat),
	}
}
