package testutil

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/credit"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// InMemoryCreditStore implements credit.Repository
type InMemoryCreditStore struct {
	*InMemoryStore[*credit.Mutation]
}

func NewInMemoryCreditStore() *InMemoryCreditStore {
	return &InMemoryCreditStore{
		InMemoryStore: NewInMemoryStore[*credit.Mutation](),
	}
}

func (s *InMemoryCreditStore) Create(ctx context.Context, mutation *credit.Mutation) error {
	if mutation == nil {
		return ierr.NewError("credit mutation cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, mutation.ID, mutation)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create credit mutation").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryCreditStore) ListForSubscription(ctx context.Context, subscriptionID string) ([]*credit.Mutation, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, m *credit.Mutation, _ interface{}) bool {
			return m != nil &&
				m.Status == types.StatusActive &&
				m.SubscriptionID == subscriptionID
		},
		func(i, j *credit.Mutation) bool {
			return i.MutatedAt.After(j.MutatedAt)
		})
}

func (s *InMemoryCreditStore) SumAmount(ctx context.Context, subscriptionID string, mutationType types.CreditMutationType) (decimal.Decimal, error) {
	mutations, err := s.ListForSubscription(ctx, subscriptionID)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, m := range mutations {
		if m.Type == mutationType {
			sum = sum.Add(m.Amount)
		}
	}
	return sum, nil
}

func (s *InMemoryCreditStore) HasAddMutationInMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (bool, error) {
	mutations, err := s.ListForSubscription(ctx, subscriptionID)
	if err != nil {
		return false, err
	}

	for _, m := range mutations {
		if m.Type != types.CreditMutationAdd {
			continue
		}
		if m.MutatedAt.Year() == year && m.MutatedAt.Month() == month {
			return true, nil
		}
	}
	return false, nil
}
