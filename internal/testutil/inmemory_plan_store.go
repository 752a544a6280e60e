package testutil

import (
	"context"

	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// InMemoryPlanStore implements subscription.PlanRepository
type InMemoryPlanStore struct {
	*InMemoryStore[*subscription.Plan]
}

func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*subscription.Plan](),
	}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, plan *subscription.Plan) error {
	if plan == nil {
		return ierr.NewError("plan cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, plan.ID, plan)
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			return ierr.WithError(err).
				WithHint("A plan with this identifier already exists").
				WithReportableDetails(map[string]any{
					"plan_id": plan.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*subscription.Plan, error) {
	plan, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Plan with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return plan, nil
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*subscription.Plan, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, plan *subscription.Plan, _ interface{}) bool {
			return plan != nil && plan.Status == types.StatusActive
		},
		func(i, j *subscription.Plan) bool {
			return i.Name < j.Name
		})
}
