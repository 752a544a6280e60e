package invoice

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is money received against exactly one invoice. The sum of an
// invoice's payments determines its paid amount and balance.
type Payment struct {
	ID        string `db:"id" json:"id"`
	InvoiceID string `db:"invoice_id" json:"invoice_id"`

	// ReceiptNumber is the short human-facing reference printed on receipts
	ReceiptNumber string `db:"receipt_number" json:"receipt_number"`

	Amount      decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate time.Time       `db:"payment_date" json:"payment_date"`

	PaymentMethodID *string `db:"payment_method_id" json:"payment_method_id,omitempty"`
	Note            string  `db:"note" json:"note,omitempty"`

	// Provider references tie a payment to the external gateway records
	ProviderPaymentID    *string `db:"provider_payment_id" json:"provider_payment_id,omitempty"`
	ProviderRefundID     *string `db:"provider_refund_id" json:"provider_refund_id,omitempty"`
	ProviderChargebackID *string `db:"provider_chargeback_id" json:"provider_chargeback_id,omitempty"`

	types.BaseModel
}

func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("invoice id is required").
			Mark(ierr.ErrValidation)
	}
	if p.PaymentDate.IsZero() {
		return ierr.NewError("payment date is required").
			Mark(ierr.ErrValidation)
	}
	if p.Amount.IsZero() {
		return ierr.NewError("payment amount cannot be zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}
