package subscription

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// Subscription represents a customer's subscription to a plan.
type Subscription struct {
	ID         string `db:"id" json:"id"`
	CustomerID string `db:"customer_id" json:"customer_id"`
	PlanID     string `db:"plan_id" json:"plan_id"`

	// StartDate is the first day the subscription is active
	StartDate time.Time `db:"start_date" json:"start_date"`

	// EndDate is the last active day; nil means the subscription runs
	// until cancelled
	EndDate *time.Time `db:"end_date" json:"end_date,omitempty"`

	// PaymentMethodID is carried onto invoices created for this subscription
	PaymentMethodID *string `db:"payment_method_id" json:"payment_method_id,omitempty"`

	// RegistrationFeePaid is flipped once the one-time registration fee has
	// been billed; checked before appending the fee to any invoice
	RegistrationFeePaid bool `db:"registration_fee_paid" json:"registration_fee_paid"`

	Note string `db:"note" json:"note,omitempty"`
	types.BaseModel
}

func (s *Subscription) Validate() error {
	if s.CustomerID == "" {
		return ierr.NewError("customer id is required").
			Mark(ierr.ErrValidation)
	}
	if s.PlanID == "" {
		return ierr.NewError("plan id is required").
			Mark(ierr.ErrValidation)
	}
	if s.StartDate.IsZero() {
		return ierr.NewError("start date is required").
			Mark(ierr.ErrValidation)
	}
	if s.EndDate != nil && s.EndDate.Before(s.StartDate) {
		return ierr.NewError("end date cannot be before start date").
			WithReportableDetails(map[string]any{
				"start_date": s.StartDate,
				"end_date":   s.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ActiveInPeriod reports whether the subscription overlaps the inclusive
// civil date range [periodStart, periodEnd].
func (s *Subscription) ActiveInPeriod(periodStart, periodEnd time.Time) bool {
	if s.StartDate.After(periodEnd) {
		return false
	}
	if s.EndDate != nil && s.EndDate.Before(periodStart) {
		return false
	}
	return true
}
