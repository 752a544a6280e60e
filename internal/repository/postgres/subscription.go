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

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
	INSERT INTO subscriptions (
		id, customer_id, plan_id, start_date, end_date, payment_method_id,
		registration_fee_paid, note,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :customer_id, :plan_id, :start_date, :end_date, :payment_method_id,
		:registration_fee_paid, :note,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT * FROM subscriptions WHERE id = $1 AND status != $2`

	var sub subscription.Subscription
	err := r.client.Querier(ctx).GetContext(ctx, &sub, query, id, types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Subscription with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)

	query := `
	UPDATE subscriptions SET
		start_date = :start_date,
		end_date = :end_date,
		payment_method_id = :payment_method_id,
		registration_fee_paid = :registration_fee_paid,
		note = :note,
		status = :status,
		updated_at = :updated_at,
		updated_by = :updated_by
	WHERE id = :id
	`

	result, err := r.client.Querier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", sub.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *subscriptionRepository) ListActiveInPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*subscription.Subscription, error) {
	query := `
	SELECT * FROM subscriptions
	WHERE status = $1
	  AND start_date <= $2
	  AND (end_date IS NULL OR end_date >= $3)
	ORDER BY start_date, id
	`

	var subs []*subscription.Subscription
	err := r.client.Querier(ctx).SelectContext(ctx, &subs, query,
		types.StatusActive, types.DateOnly(periodEnd), types.DateOnly(periodStart))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions for period").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}
