package invoice

import (
	"time"

	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. The amounts summary is always
// derived from the items and payments; it is never independently
// authoritative and is refreshed by whole-invoice recomputation.
type Invoice struct {
	ID      string `db:"id" json:"id"`
	GroupID string `db:"group_id" json:"group_id"`

	// InvoiceNumber is the human-facing sequential number composed from the
	// group's prefix; assigned once at creation
	InvoiceNumber string `db:"invoice_number" json:"invoice_number"`

	Status types.InvoiceStatus `db:"invoice_status" json:"status"`

	// CustomerID is set when the invoice is linked to a customer; the
	// snapshot fields below are frozen at that moment
	CustomerID *string `db:"customer_id" json:"customer_id,omitempty"`

	// SubscriptionID plus SubscriptionYear/Month identify the billing period
	// for subscription invoices and enforce the one-invoice-per-month rule
	SubscriptionID    *string     `db:"subscription_id" json:"subscription_id,omitempty"`
	SubscriptionYear  *int        `db:"subscription_year" json:"subscription_year,omitempty"`
	SubscriptionMonth *time.Month `db:"subscription_month" json:"subscription_month,omitempty"`

	// CreditInvoiceFor points at the invoice this one credits, if any
	CreditInvoiceFor *string `db:"credit_invoice_for" json:"credit_invoice_for,omitempty"`

	PaymentMethodID *string `db:"payment_method_id" json:"payment_method_id,omitempty"`

	DateCreated time.Time `db:"date_created" json:"date_created"`
	DateDue     time.Time `db:"date_due" json:"date_due"`

	Description string `db:"description" json:"description,omitempty"`
	Terms       string `db:"terms" json:"terms,omitempty"`
	Footer      string `db:"footer" json:"footer,omitempty"`

	// Customer snapshot, captured at link time and immutable afterwards
	// unless the invoice is re-linked
	CustomerName                   string `db:"customer_name" json:"customer_name,omitempty"`
	CustomerListName               string `db:"customer_list_name" json:"customer_list_name,omitempty"`
	CustomerCompany                string `db:"customer_company" json:"customer_company,omitempty"`
	CustomerCompanyRegistration    string `db:"customer_company_registration" json:"customer_company_registration,omitempty"`
	CustomerCompanyTaxRegistration string `db:"customer_company_tax_registration" json:"customer_company_tax_registration,omitempty"`
	CustomerAddress                string `db:"customer_address" json:"customer_address,omitempty"`

	Amounts Amounts `json:"amounts"`

	Items []*Item `json:"items,omitempty"`
	types.BaseModel
}

// Amounts is the derived money summary of an invoice.
type Amounts struct {
	// Subtotal is the sum of item totals excluding VAT
	Subtotal decimal.Decimal `db:"subtotal" json:"subtotal"`
	// VAT is the sum of item VAT amounts
	VAT decimal.Decimal `db:"vat" json:"vat"`
	// Total is the sum of item totals including VAT
	Total decimal.Decimal `db:"total" json:"total"`
	// Paid is the sum of recorded payments
	Paid decimal.Decimal `db:"paid" json:"paid"`
	// Balance is round(Total, 2) - round(Paid, 2)
	Balance decimal.Decimal `db:"balance" json:"balance"`
}

func (i *Invoice) Validate() error {
	if i.GroupID == "" {
		return ierr.NewError("invoice group id is required").
			Mark(ierr.ErrValidation)
	}
	if err := i.Status.Validate(); err != nil {
		return err
	}
	if (i.SubscriptionYear == nil) != (i.SubscriptionMonth == nil) {
		return ierr.NewError("subscription year and month must be set together").
			Mark(ierr.ErrValidation)
	}
	if i.SubscriptionID != nil && i.SubscriptionYear == nil {
		return ierr.NewError("subscription invoices require a billing month").
			WithReportableDetails(map[string]any{
				"subscription_id": *i.SubscriptionID,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsCreditInvoice reports whether this invoice credits another invoice.
func (i *Invoice) IsCreditInvoice() bool {
	return i.CreditInvoiceFor != nil
}

// NextSorting returns the sort position for the next item appended to the
// invoice; items keep insertion order for display and duplication.
func (i *Invoice) NextSorting() int {
	return len(i.Items) + 1
}
