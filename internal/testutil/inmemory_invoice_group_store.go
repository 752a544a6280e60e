package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
)

// InMemoryInvoiceGroupStore implements invoice.GroupRepository. Numbering is
// serialized with a mutex, standing in for the row lock the SQL
// implementation takes.
type InMemoryInvoiceGroupStore struct {
	*InMemoryStore[*invoice.Group]
	numbering sync.Mutex
	invoices  *InMemoryInvoiceStore
}

func NewInMemoryInvoiceGroupStore(invoices *InMemoryInvoiceStore) *InMemoryInvoiceGroupStore {
	return &InMemoryInvoiceGroupStore{
		InMemoryStore: NewInMemoryStore[*invoice.Group](),
		invoices:      invoices,
	}
}

func (s *InMemoryInvoiceGroupStore) Create(ctx context.Context, group *invoice.Group) error {
	if group == nil {
		return ierr.NewError("invoice group cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, group.ID, group)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice group").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryInvoiceGroupStore) Get(ctx context.Context, id string) (*invoice.Group, error) {
	group, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invoice group with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return group, nil
}

func (s *InMemoryInvoiceGroupStore) NextInvoiceNumber(ctx context.Context, groupID string, createdAt time.Time) (string, error) {
	s.numbering.Lock()
	defer s.numbering.Unlock()

	group, err := s.Get(ctx, groupID)
	if err != nil {
		return "", err
	}

	nextID := group.NextID
	var number string
	if group.PrefixYear {
		count, err := s.invoices.CountInGroupYear(ctx, groupID, createdAt.Year())
		if err != nil {
			return "", err
		}
		if count == 0 {
			nextID = 1
		}
		number = fmt.Sprintf("%s%d%d", group.InvoicePrefix, createdAt.Year(), nextID)
	} else {
		number = fmt.Sprintf("%s%d", group.InvoicePrefix, nextID)
	}

	group.NextID = nextID + 1
	if err := s.InMemoryStore.Update(ctx, group.ID, group); err != nil {
		return "", err
	}
	return number, nil
}
