package postgres

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/credit"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

type creditRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewCreditRepository(client postgres.IClient, logger *logger.Logger) credit.Repository {
	return &creditRepository{client: client, logger: logger}
}

func (r *creditRepository) Create(ctx context.Context, mutation *credit.Mutation) error {
	query := `
	INSERT INTO credit_mutations (
		id, subscription_id, type, amount, description, class_attendance_id, mutated_at,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :subscription_id, :type, :amount, :description, :class_attendance_id, :mutated_at,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, mutation)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create credit mutation").
			WithReportableDetails(map[string]any{
				"subscription_id": mutation.SubscriptionID,
				"type":            mutation.Type,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *creditRepository) ListForSubscription(ctx context.Context, subscriptionID string) ([]*credit.Mutation, error) {
	query := `
	SELECT * FROM credit_mutations
	WHERE subscription_id = $1 AND status = $2
	ORDER BY mutated_at DESC, id DESC
	`

	var mutations []*credit.Mutation
	err := r.client.Querier(ctx).SelectContext(ctx, &mutations, query, subscriptionID, types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list credit mutations").
			Mark(ierr.ErrDatabase)
	}
	return mutations, nil
}

func (r *creditRepository) SumAmount(ctx context.Context, subscriptionID string, mutationType types.CreditMutationType) (decimal.Decimal, error) {
	query := `
	SELECT COALESCE(SUM(amount), 0) FROM credit_mutations
	WHERE subscription_id = $1 AND type = $2 AND status = $3
	`

	var sum decimal.Decimal
	err := r.client.Querier(ctx).GetContext(ctx, &sum, query, subscriptionID, mutationType, types.StatusActive)
	if err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to sum credit mutations").
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
				"type":            mutationType,
			}).
			Mark(ierr.ErrDatabase)
	}
	return sum, nil
}

func (r *creditRepository) HasAddMutationInMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (bool, error) {
	query := `
	SELECT EXISTS (
		SELECT 1 FROM credit_mutations
		WHERE subscription_id = $1 AND type = $2 AND status = $3
		  AND date_part('year', mutated_at) = $4
		  AND date_part('month', mutated_at) = $5
	)
	`

	var exists bool
	err := r.client.Querier(ctx).GetContext(ctx, &exists, query,
		subscriptionID, types.CreditMutationAdd, types.StatusActive, year, int(month))
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check for credit grant in month").
			Mark(ierr.ErrDatabase)
	}
	return exists, nil
}
