package invoice

import (
	"context"
	"time"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create creates a new invoice
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID including its items
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update updates an existing invoice including its amounts summary
	Update(ctx context.Context, invoice *Invoice) error

	// GetBySubscriptionMonth retrieves the invoice linked to
	// (subscription, year, month), or ErrNotFound. Enforcement point of the
	// one-invoice-per-period rule.
	GetBySubscriptionMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*Invoice, error)

	// CountForSubscription counts invoices ever created for a subscription;
	// used to detect the first invoice for the two-term policy
	CountForSubscription(ctx context.Context, subscriptionID string) (int, error)

	// AddItem appends an item to an invoice
	AddItem(ctx context.Context, item *Item) error
}

// GroupRepository defines the interface for invoice group persistence.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) error
	Get(ctx context.Context, id string) (*Group, error)

	// NextInvoiceNumber assigns the next invoice number of the group for an
	// invoice created at createdAt, advancing (and, for year-prefixed groups
	// on the first invoice of a year, resetting) the group's counter. The
	// implementation must serialize concurrent callers on the group row so
	// numbers are never duplicated.
	NextInvoiceNumber(ctx context.Context, groupID string, createdAt time.Time) (string, error)
}

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error

	// ListForInvoice retrieves all payments recorded against an invoice
	ListForInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)
}
