package subscription

import (
	"context"
	"time"
)

// Repository defines the interface for subscription persistence operations
type Repository interface {
	// Create creates a new subscription
	Create(ctx context.Context, sub *Subscription) error

	// Get retrieves a subscription by ID
	Get(ctx context.Context, id string) (*Subscription, error)

	// Update updates an existing subscription
	Update(ctx context.Context, sub *Subscription) error

	// ListActiveInPeriod retrieves subscriptions whose active window overlaps
	// the inclusive civil date range [periodStart, periodEnd]
	ListActiveInPeriod(ctx context.Context, periodStart, periodEnd time.Time) ([]*Subscription, error)
}

// PlanRepository defines the interface for plan persistence operations.
// Get and List load the plan's dated price rows.
type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}

// PauseRepository defines the interface for pause interval persistence
type PauseRepository interface {
	Create(ctx context.Context, pause *Pause) error

	// ListForSubscription retrieves all pause intervals for a subscription
	ListForSubscription(ctx context.Context, subscriptionID string) ([]*Pause, error)

	// GetOverlapping retrieves the first pause overlapping the inclusive
	// civil date range, or ErrNotFound when the subscription has none
	GetOverlapping(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (*Pause, error)
}

// AltPriceRepository defines the interface for alt price persistence
type AltPriceRepository interface {
	Create(ctx context.Context, altPrice *AltPrice) error

	// GetForMonth retrieves the override for (subscription, year, month),
	// or ErrNotFound when no override exists
	GetForMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*AltPrice, error)
}
