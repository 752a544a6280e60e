package testutil

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository. Items live in their own
// store and are assembled onto the invoice on every read, mirroring how the
// SQL implementation loads them.
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
	items *InMemoryStore[*invoice.Item]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		items:         NewInMemoryStore[*invoice.Item](),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, inv.ID, inv)
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			return ierr.WithError(err).
				WithHint("An invoice with this identifier already exists").
				WithReportableDetails(map[string]any{
					"invoice_id": inv.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}

	for _, item := range inv.Items {
		if err := s.AddItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}

	if err := s.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Update(ctx, inv.ID, inv)
	if err != nil {
		return ierr.WithError(err).
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInvoiceStore) GetBySubscriptionMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*invoice.Invoice, error) {
	matches, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
			return inv != nil &&
				inv.BaseModel.Status != types.StatusDeleted &&
				inv.SubscriptionID != nil && *inv.SubscriptionID == subscriptionID &&
				inv.SubscriptionYear != nil && *inv.SubscriptionYear == year &&
				inv.SubscriptionMonth != nil && *inv.SubscriptionMonth == month
		}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no invoice exists for the subscription month").
			Mark(ierr.ErrNotFound)
	}

	inv := matches[0]
	if err := s.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *InMemoryInvoiceStore) CountForSubscription(ctx context.Context, subscriptionID string) (int, error) {
	return s.InMemoryStore.Count(ctx, nil,
		func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
			return inv != nil &&
				inv.BaseModel.Status != types.StatusDeleted &&
				inv.SubscriptionID != nil && *inv.SubscriptionID == subscriptionID
		})
}

func (s *InMemoryInvoiceStore) AddItem(ctx context.Context, item *invoice.Item) error {
	if item == nil {
		return ierr.NewError("invoice item cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.items.Create(ctx, item.ID, item)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to add invoice item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// CountInGroupYear counts invoices created in the group during the calendar
// year; the group store uses it for the yearly counter reset.
func (s *InMemoryInvoiceStore) CountInGroupYear(ctx context.Context, groupID string, year int) (int, error) {
	return s.InMemoryStore.Count(ctx, nil,
		func(ctx context.Context, inv *invoice.Invoice, _ interface{}) bool {
			return inv != nil &&
				inv.BaseModel.Status != types.StatusDeleted &&
				inv.GroupID == groupID &&
				inv.DateCreated.Year() == year
		})
}

func (s *InMemoryInvoiceStore) loadItems(ctx context.Context, inv *invoice.Invoice) error {
	items, err := s.items.List(ctx, nil,
		func(ctx context.Context, item *invoice.Item, _ interface{}) bool {
			return item != nil && item.InvoiceID == inv.ID
		},
		func(i, j *invoice.Item) bool {
			return i.Sorting < j.Sorting
		})
	if err != nil {
		return err
	}
	inv.Items = items
	return nil
}

// Clear removes all invoices and items
func (s *InMemoryInvoiceStore) Clear() {
	s.InMemoryStore.Clear()
	s.items.Clear()
}
