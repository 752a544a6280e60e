package credit

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// Mutation is one class-credit movement against a subscription. The running
// balance is never stored; it is always sum(add) - sum(sub).
type Mutation struct {
	ID             string                   `db:"id" json:"id"`
	SubscriptionID string                   `db:"subscription_id" json:"subscription_id"`
	Type           types.CreditMutationType `db:"type" json:"type"`
	Amount         decimal.Decimal          `db:"amount" json:"amount"`
	Description    string                   `db:"description" json:"description,omitempty"`

	// ClassAttendanceID links a spend to the check-in that consumed it
	ClassAttendanceID *string `db:"class_attendance_id" json:"class_attendance_id,omitempty"`

	MutatedAt time.Time `db:"mutated_at" json:"mutated_at"`
	types.BaseModel
}

func (m *Mutation) Validate() error {
	if m.SubscriptionID == "" {
		return ierr.NewError("subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if err := m.Type.Validate(); err != nil {
		return err
	}
	if m.Amount.IsNegative() {
		return ierr.NewError("mutation amount must be non negative").
			WithHint("Use the mutation type to express direction").
			WithReportableDetails(map[string]any{
				"amount": m.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
