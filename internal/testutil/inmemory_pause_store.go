package testutil

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// InMemoryPauseStore implements subscription.PauseRepository
type InMemoryPauseStore struct {
	*InMemoryStore[*subscription.Pause]
}

func NewInMemoryPauseStore() *InMemoryPauseStore {
	return &InMemoryPauseStore{
		InMemoryStore: NewInMemoryStore[*subscription.Pause](),
	}
}

func (s *InMemoryPauseStore) Create(ctx context.Context, pause *subscription.Pause) error {
	if pause == nil {
		return ierr.NewError("pause cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, pause.ID, pause)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription pause").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryPauseStore) ListForSubscription(ctx context.Context, subscriptionID string) ([]*subscription.Pause, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, pause *subscription.Pause, _ interface{}) bool {
			return pause != nil &&
				pause.Status == types.StatusActive &&
				pause.SubscriptionID == subscriptionID
		},
		func(i, j *subscription.Pause) bool {
			return i.StartDate.Before(j.StartDate)
		})
}

func (s *InMemoryPauseStore) GetOverlapping(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (*subscription.Pause, error) {
	pauses, err := s.ListForSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	for _, pause := range pauses {
		if pause.Overlaps(periodStart, periodEnd) {
			return pause, nil
		}
	}

	return nil, ierr.NewError("no pause overlaps the period").
		Mark(ierr.ErrNotFound)
}
