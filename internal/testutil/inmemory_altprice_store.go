package testutil

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// InMemoryAltPriceStore implements subscription.AltPriceRepository
type InMemoryAltPriceStore struct {
	*InMemoryStore[*subscription.AltPrice]
}

func NewInMemoryAltPriceStore() *InMemoryAltPriceStore {
	return &InMemoryAltPriceStore{
		InMemoryStore: NewInMemoryStore[*subscription.AltPrice](),
	}
}

func (s *InMemoryAltPriceStore) Create(ctx context.Context, altPrice *subscription.AltPrice) error {
	if altPrice == nil {
		return ierr.NewError("alt price cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, altPrice.ID, altPrice)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create alternative price").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryAltPriceStore) GetForMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*subscription.AltPrice, error) {
	matches, err := s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, altPrice *subscription.AltPrice, _ interface{}) bool {
			return altPrice != nil &&
				altPrice.Status == types.StatusActive &&
				altPrice.SubscriptionID == subscriptionID &&
				altPrice.Year == year &&
				altPrice.Month == month
		}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("no alternative price for the month").
			Mark(ierr.ErrNotFound)
	}
	return matches[0], nil
}
