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

type pauseRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPauseRepository(client postgres.IClient, logger *logger.Logger) subscription.PauseRepository {
	return &pauseRepository{client: client, logger: logger}
}

func (r *pauseRepository) Create(ctx context.Context, pause *subscription.Pause) error {
	query := `
	INSERT INTO subscription_pauses (
		id, subscription_id, start_date, end_date, description,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :subscription_id, :start_date, :end_date, :description,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, pause)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription pause").
			WithReportableDetails(map[string]any{
				"pause_id":        pause.ID,
				"subscription_id": pause.SubscriptionID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *pauseRepository) ListForSubscription(ctx context.Context, subscriptionID string) ([]*subscription.Pause, error) {
	query := `
	SELECT * FROM subscription_pauses
	WHERE subscription_id = $1 AND status = $2
	ORDER BY start_date
	`

	var pauses []*subscription.Pause
	err := r.client.Querier(ctx).SelectContext(ctx, &pauses, query, subscriptionID, types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscription pauses").
			Mark(ierr.ErrDatabase)
	}
	return pauses, nil
}

func (r *pauseRepository) GetOverlapping(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (*subscription.Pause, error) {
	query := `
	SELECT * FROM subscription_pauses
	WHERE subscription_id = $1 AND status = $2
	  AND start_date <= $3
	  AND (end_date IS NULL OR end_date >= $4)
	ORDER BY start_date
	LIMIT 1
	`

	var pause subscription.Pause
	err := r.client.Querier(ctx).GetContext(ctx, &pause, query,
		subscriptionID, types.StatusActive, types.DateOnly(periodEnd), types.DateOnly(periodStart))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No pause overlaps the period").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get overlapping pause").
			Mark(ierr.ErrDatabase)
	}
	return &pause, nil
}
