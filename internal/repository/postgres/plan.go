package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
)

type planRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) subscription.PlanRepository {
	return &planRepository{client: client, logger: logger}
}

func (r *planRepository) Create(ctx context.Context, plan *subscription.Plan) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		query := `
		INSERT INTO plans (
			id, name, unit, classes, unlimited, registration_fee, reconciliation_classes,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :name, :unit, :classes, :unlimited, :registration_fee, :reconciliation_classes,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)
		`

		if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, plan); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create plan").
				WithReportableDetails(map[string]any{
					"plan_id": plan.ID,
				}).
				Mark(ierr.ErrDatabase)
		}

		for _, price := range plan.Prices {
			if err := r.createPrice(ctx, price); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *planRepository) createPrice(ctx context.Context, price *subscription.PlanPrice) error {
	query := `
	INSERT INTO plan_prices (
		id, plan_id, start_date, end_date, price, tax_rate_id,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :plan_id, :start_date, :end_date, :price, :tax_rate_id,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, price); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan price").
			WithReportableDetails(map[string]any{
				"plan_id":       price.PlanID,
				"plan_price_id": price.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*subscription.Plan, error) {
	query := `SELECT * FROM plans WHERE id = $1 AND status != $2`

	var plan subscription.Plan
	err := r.client.Querier(ctx).GetContext(ctx, &plan, query, id, types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Plan with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}

	if err := r.loadPrices(ctx, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) List(ctx context.Context) ([]*subscription.Plan, error) {
	query := `SELECT * FROM plans WHERE status = $1 ORDER BY name`

	var plans []*subscription.Plan
	err := r.client.Querier(ctx).SelectContext(ctx, &plans, query, types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}

	for _, plan := range plans {
		if err := r.loadPrices(ctx, plan); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// loadPrices fills the plan's dated price rows, newest start date first so
// PriceOnDate resolves the most recent applicable row.
func (r *planRepository) loadPrices(ctx context.Context, plan *subscription.Plan) error {
	query := `
	SELECT * FROM plan_prices
	WHERE plan_id = $1 AND status = $2
	ORDER BY start_date DESC
	`

	err := r.client.Querier(ctx).SelectContext(ctx, &plan.Prices, query, plan.ID, types.StatusActive)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to load plan prices").
			WithReportableDetails(map[string]any{
				"plan_id": plan.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
