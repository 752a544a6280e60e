package subscription

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// Plan represents a subscription plan sold by the studio. The monthly price
// can change over time, so prices are kept as dated PlanPrice rows and
// resolved with PriceOnDate.
type Plan struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// Unit is the period the class allowance covers (week or month)
	Unit types.SubscriptionUnit `db:"unit" json:"unit"`

	// Classes is the class allowance per unit; nil means no classes allowed
	Classes *int `db:"classes" json:"classes,omitempty"`

	// Unlimited grants unrestricted attendance; no credits are tracked
	Unlimited bool `db:"unlimited" json:"unlimited"`

	// RegistrationFee is charged once, on the customer's first subscription invoice
	RegistrationFee decimal.Decimal `db:"registration_fee" json:"registration_fee"`

	// ReconciliationClasses is how far below zero a credit balance may go
	// before check-ins are refused
	ReconciliationClasses int `db:"reconciliation_classes" json:"reconciliation_classes"`

	Prices []*PlanPrice `json:"prices,omitempty"`
	types.BaseModel
}

// PlanPrice is a dated price row for a plan; EndDate nil means open-ended.
type PlanPrice struct {
	ID        string           `db:"id" json:"id"`
	PlanID    string           `db:"plan_id" json:"plan_id"`
	StartDate time.Time        `db:"start_date" json:"start_date"`
	EndDate   *time.Time       `db:"end_date" json:"end_date,omitempty"`
	Price     decimal.Decimal  `db:"price" json:"price"`
	TaxRateID *string          `db:"tax_rate_id" json:"tax_rate_id,omitempty"`
	types.BaseModel
}

func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Please provide a name for the plan").
			Mark(ierr.ErrValidation)
	}
	if err := p.Unit.Validate(); err != nil {
		return err
	}
	if p.RegistrationFee.IsNegative() {
		return ierr.NewError("registration fee must be non negative").
			WithReportableDetails(map[string]any{
				"registration_fee": p.RegistrationFee,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PriceOnDate resolves the plan price row effective on the given date.
// Returns nil when no price row covers the date.
func (p *Plan) PriceOnDate(date time.Time) *PlanPrice {
	date = types.DateOnly(date)
	for _, price := range p.Prices {
		if price.StartDate.After(date) {
			continue
		}
		if price.EndDate != nil && price.EndDate.Before(date) {
			continue
		}
		return price
	}
	return nil
}
