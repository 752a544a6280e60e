package testutil

import (
	"context"

	"github.com/fitledger/fitledger/internal/domain/taxrate"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
)

// InMemoryTaxRateStore implements taxrate.Repository
type InMemoryTaxRateStore struct {
	*InMemoryStore[*taxrate.TaxRate]
}

func NewInMemoryTaxRateStore() *InMemoryTaxRateStore {
	return &InMemoryTaxRateStore{
		InMemoryStore: NewInMemoryStore[*taxrate.TaxRate](),
	}
}

func (s *InMemoryTaxRateStore) Create(ctx context.Context, rate *taxrate.TaxRate) error {
	if rate == nil {
		return ierr.NewError("tax rate cannot be nil").
			Mark(ierr.ErrValidation)
	}

	err := s.InMemoryStore.Create(ctx, rate.ID, rate)
	if err != nil {
		if ierr.IsAlreadyExists(err) {
			return ierr.WithError(err).
				WithHint("A tax rate with this identifier already exists").
				WithReportableDetails(map[string]any{
					"tax_rate_id": rate.ID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create tax rate").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryTaxRateStore) Get(ctx context.Context, id string) (*taxrate.TaxRate, error) {
	rate, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Tax rate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return rate, nil
}

func (s *InMemoryTaxRateStore) List(ctx context.Context) ([]*taxrate.TaxRate, error) {
	return s.InMemoryStore.List(ctx, nil,
		func(ctx context.Context, rate *taxrate.TaxRate, _ interface{}) bool {
			return rate != nil && rate.Status == types.StatusActive
		},
		func(i, j *taxrate.TaxRate) bool {
			return i.Name < j.Name
		})
}
