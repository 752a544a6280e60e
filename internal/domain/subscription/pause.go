package subscription

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// Pause represents an interval during which a subscription is suspended and
// not billed. EndDate nil means the pause is open-ended; for billing it is
// clamped to the period being invoiced.
type Pause struct {
	ID             string     `db:"id" json:"id"`
	SubscriptionID string     `db:"subscription_id" json:"subscription_id"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	Description    string     `db:"description" json:"description,omitempty"`
	types.BaseModel
}

func (p *Pause) Validate() error {
	if p.SubscriptionID == "" {
		return ierr.NewError("subscription id is required").
			Mark(ierr.ErrValidation)
	}
	if p.StartDate.IsZero() {
		return ierr.NewError("pause start date is required").
			Mark(ierr.ErrValidation)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return ierr.NewError("pause end date cannot be before start date").
			WithReportableDetails(map[string]any{
				"start_date": p.StartDate,
				"end_date":   p.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Overlaps reports whether the pause touches the inclusive civil date range
// [periodStart, periodEnd]. An open-ended pause overlaps every period at or
// after its start.
func (p *Pause) Overlaps(periodStart, periodEnd time.Time) bool {
	if p.StartDate.After(periodEnd) {
		return false
	}
	if p.EndDate != nil && p.EndDate.Before(periodStart) {
		return false
	}
	return true
}

// Covers reports whether the pause fully contains the inclusive civil date
// range [periodStart, periodEnd]; such a period is not invoiced at all.
func (p *Pause) Covers(periodStart, periodEnd time.Time) bool {
	if p.StartDate.After(periodStart) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(periodEnd)
}
