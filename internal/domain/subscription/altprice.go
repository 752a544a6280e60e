package subscription

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// AltPrice is a manual price override for one subscription and one billing
// month. An amount of zero is a terminal "do not invoice" marker for that
// month and is checked before any other billing logic.
type AltPrice struct {
	ID             string          `db:"id" json:"id"`
	SubscriptionID string          `db:"subscription_id" json:"subscription_id"`
	Year           int             `db:"year" json:"year"`
	Month          time.Month      `db:"month" json:"month"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Description    string          `db:"description" json:"description,omitempty"`
	types.BaseModel
}

func (a *AltPrice) Validate() error {
	if a.SubscriptionID == "" {
		return ierr.NewError("subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if a.Month < time.January || a.Month > time.December {
		return ierr.NewError("invalid month").
			WithReportableDetails(map[string]any{
				"month": a.Month,
			}).
			Mark(ierr.ErrValidation)
	}
	if a.Amount.IsNegative() {
		return ierr.NewError("alt price amount must be non negative").
			WithReportableDetails(map[string]any{
				"amount": a.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SuppressesInvoicing reports whether this override means the month must not
// be invoiced at all.
func (a *AltPrice) SuppressesInvoicing() bool {
	return a.Amount.IsZero()
}
