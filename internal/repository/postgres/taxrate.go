package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitledger/fitledger/internal/domain/taxrate"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
)

type taxRateRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewTaxRateRepository(client postgres.IClient, logger *logger.Logger) taxrate.Repository {
	return &taxRateRepository{client: client, logger: logger}
}

func (r *taxRateRepository) Create(ctx context.Context, rate *taxrate.TaxRate) error {
	query := `
	INSERT INTO tax_rates (id, name, percentage, status, created_at, updated_at, created_by, updated_by)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.client.Querier(ctx).ExecContext(
		ctx, query,
		rate.ID,
		rate.Name,
		rate.Percentage,
		rate.Status,
		rate.CreatedAt,
		rate.UpdatedAt,
		rate.CreatedBy,
		rate.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create tax rate").
			WithReportableDetails(map[string]any{
				"tax_rate_id": rate.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *taxRateRepository) Get(ctx context.Context, id string) (*taxrate.TaxRate, error) {
	query := `SELECT * FROM tax_rates WHERE id = $1 AND status != $2`

	var rate taxrate.TaxRate
	err := r.client.Querier(ctx).GetContext(ctx, &rate, query, id, types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Tax rate with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get tax rate").
			Mark(ierr.ErrDatabase)
	}
	return &rate, nil
}

func (r *taxRateRepository) List(ctx context.Context) ([]*taxrate.TaxRate, error) {
	query := `SELECT * FROM tax_rates WHERE status = $1 ORDER BY percentage NULLS FIRST, name`

	var rates []*taxrate.TaxRate
	err := r.client.Querier(ctx).SelectContext(ctx, &rates, query, types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tax rates").
			Mark(ierr.ErrDatabase)
	}
	return rates, nil
}
