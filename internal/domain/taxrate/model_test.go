package taxrate

import (
	"testing"

	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pct(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name          string
		price         decimal.Decimal
		percentage    *decimal.Decimal
		expectedVAT   decimal.Decimal
		expectedTotal decimal.Decimal
	}{
		{
			name:          "no_tax_rate_means_no_tax",
			price:         decimal.NewFromFloat(100.00),
			percentage:    nil,
			expectedVAT:   decimal.Zero,
			expectedTotal: decimal.NewFromFloat(100.00),
		},
		{
			name:          "standard_rate",
			price:         decimal.NewFromFloat(100.00),
			percentage:    pct(21),
			expectedVAT:   decimal.NewFromFloat(21.00),
			expectedTotal: decimal.NewFromFloat(121.00),
		},
		{
			name:          "reduced_rate",
			price:         decimal.NewFromFloat(50.00),
			percentage:    pct(9),
			expectedVAT:   decimal.NewFromFloat(4.50),
			expectedTotal: decimal.NewFromFloat(54.50),
		},
		{
			name:          "zero_rate",
			price:         decimal.NewFromFloat(80.00),
			percentage:    pct(0),
			expectedVAT:   decimal.Zero,
			expectedTotal: decimal.NewFromFloat(80.00),
		},
		{
			name:          "zero_price",
			price:         decimal.Zero,
			percentage:    pct(21),
			expectedVAT:   decimal.Zero,
			expectedTotal: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := Compute(tt.price, tt.percentage)
			assert.True(t, tt.expectedVAT.Equal(amounts.VAT),
				"vat mismatch: expected %s, got %s", tt.expectedVAT, amounts.VAT)
			assert.True(t, tt.expectedTotal.Equal(amounts.Total),
				"total mismatch: expected %s, got %s", tt.expectedTotal, amounts.Total)
		})
	}
}

func TestCompute_RoundingAtPersistenceOnly(t *testing.T) {
	// 33.33 at 21% is 6.9993; full precision is kept until RoundCurrency
	amounts := Compute(decimal.NewFromFloat(33.33), pct(21))
	assert.True(t, amounts.VAT.Equal(decimal.NewFromFloat(6.9993)))
	assert.True(t, types.RoundCurrency(amounts.VAT).Equal(decimal.NewFromFloat(7.00)))
	assert.True(t, types.RoundCurrency(amounts.Total).Equal(decimal.NewFromFloat(40.33)))
}

func TestTaxRate_Validate(t *testing.T) {
	valid := &TaxRate{ID: "txr_1", Name: "Standard", Percentage: pct(21)}
	assert.NoError(t, valid.Validate())

	missing := &TaxRate{ID: "txr_2"}
	assert.Error(t, missing.Validate())

	negative := &TaxRate{ID: "txr_3", Name: "Broken", Percentage: pct(-1)}
	assert.Error(t, negative.Validate())
}
