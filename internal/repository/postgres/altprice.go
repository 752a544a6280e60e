package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
)

type altPriceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewAltPriceRepository(client postgres.IClient, logger *logger.Logger) subscription.AltPriceRepository {
	return &altPriceRepository{client: client, logger: logger}
}

func (r *altPriceRepository) Create(ctx context.Context, altPrice *subscription.AltPrice) error {
	query := `
	INSERT INTO subscription_alt_prices (
		id, subscription_id, year, month, amount, description,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :subscription_id, :year, :month, :amount, :description,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, altPrice)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create alternative price").
			WithReportableDetails(map[string]any{
				"subscription_id": altPrice.SubscriptionID,
				"year":            altPrice.Year,
				"month":           altPrice.Month,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *altPriceRepository) GetForMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*subscription.AltPrice, error) {
	query := `
	SELECT * FROM subscription_alt_prices
	WHERE subscription_id = $1 AND year = $2 AND month = $3 AND status = $4
	LIMIT 1
	`

	var altPrice subscription.AltPrice
	err := r.client.Querier(ctx).GetContext(ctx, &altPrice, query,
		subscriptionID, year, int(month), types.StatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No alternative price for the month").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get alternative price").
			Mark(ierr.ErrDatabase)
	}
	return &altPrice, nil
}
