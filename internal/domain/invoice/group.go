package invoice

import (
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// Group is an invoice group: it owns the number sequence, the composed
// invoice number format (prefix + optional year + sequential id), payment
// terms and the default terms/footer texts for its invoices.
type Group struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// InvoicePrefix is prepended to every invoice number in this group
	InvoicePrefix string `db:"invoice_prefix" json:"invoice_prefix"`

	// PrefixYear inserts the creation year after the prefix and resets
	// NextID to 1 on the first invoice of each year
	PrefixYear bool `db:"prefix_year" json:"prefix_year"`

	// NextID is the next sequential number to assign; mutated only inside
	// the numbering transaction
	NextID int `db:"next_id" json:"next_id"`

	// DueDays is added to the creation date to compute the due date
	DueDays int `db:"due_days" json:"due_days"`

	Terms  string `db:"terms" json:"terms,omitempty"`
	Footer string `db:"footer" json:"footer,omitempty"`
	types.BaseModel
}

func (g *Group) Validate() error {
	if g.Name == "" {
		return ierr.NewError("invoice group name is required").
			Mark(ierr.ErrValidation)
	}
	if g.NextID < 1 {
		return ierr.NewError("invoice group next id must be positive").
			WithReportableDetails(map[string]any{
				"next_id": g.NextID,
			}).
			Mark(ierr.ErrValidation)
	}
	if g.DueDays < 0 {
		return ierr.NewError("invoice group due days must be non negative").
			WithReportableDetails(map[string]any{
				"due_days": g.DueDays,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
