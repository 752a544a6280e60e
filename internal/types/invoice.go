package types

import (
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice has been created but not sent
	InvoiceStatusDraft InvoiceStatus = "draft"
	// InvoiceStatusSent indicates the invoice has been issued and awaits payment
	InvoiceStatusSent InvoiceStatus = "sent"
	// InvoiceStatusPaid indicates the recorded payments cover the invoice total
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusCredited indicates the invoice has been offset by a credit invoice
	InvoiceStatusCredited InvoiceStatus = "credited"
	// InvoiceStatusCancelled indicates the invoice was voided
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusPaid,
		InvoiceStatusCredited,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ClassProductType is the kind of single-class purchase an invoice item can bill
type ClassProductType string

const (
	ClassProductTypeTrial  ClassProductType = "trial"
	ClassProductTypeDropIn ClassProductType = "dropin"
)

func (t ClassProductType) String() string {
	return string(t)
}

func (t ClassProductType) Validate() error {
	allowed := []ClassProductType{
		ClassProductTypeTrial,
		ClassProductTypeDropIn,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid class product type").
			WithHint("Class product type has to be 'trial' or 'dropin'").
			WithReportableDetails(map[string]any{
				"allowed":      allowed,
				"product_type": t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceItemLinkType identifies the domain object an invoice item originated
// from. An item carries at most one link; the link is used for traceability
// and to prevent double billing.
type InvoiceItemLinkType string

const (
	InvoiceItemLinkSubscription    InvoiceItemLinkType = "subscription"
	InvoiceItemLinkClassAttendance InvoiceItemLinkType = "class_attendance"
	InvoiceItemLinkClassCard       InvoiceItemLinkType = "class_card"
	InvoiceItemLinkMembership      InvoiceItemLinkType = "membership"
	InvoiceItemLinkWorkshopProduct InvoiceItemLinkType = "workshop_product"
)
