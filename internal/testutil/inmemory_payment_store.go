package testutil

import (
	"context"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// InMemoryPaymentStore implements invoice.PaymentRepository
type InMemoryPaymentStore struct {
	*InMemoryStore[*invoice.Payment]
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*invoice.Payment](),
	}
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, payment *invoice.Payment) error {
	if payment == nil {
		return ierr.NewError("payment cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, payment.ID, payment)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryPaymentStore) ListForInvoice(ctx context.Context, invoiceID string) ([]*invoice.Payment, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, payment *invoice.Payment, _ interface{}) bool {
			return payment != nil &&
				payment.Status != types.StatusDeleted &&
				payment.InvoiceID == invoiceID
		},
		func(i, j *invoice.Payment) bool {
			return i.PaymentDate.Before(j.PaymentDate)
		})
}
