package credit

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for credit mutation persistence operations
type Repository interface {
	// Create creates a new credit mutation
	Create(ctx context.Context, mutation *Mutation) error

	// ListForSubscription retrieves all mutations for a subscription,
	// newest first
	ListForSubscription(ctx context.Context, subscriptionID string) ([]*Mutation, error)

	// SumAmount sums mutation amounts of one type for a subscription
	SumAmount(ctx context.Context, subscriptionID string, mutationType types.CreditMutationType) (decimal.Decimal, error)

	// HasAddMutationInMonth reports whether a credit grant already exists for
	// the subscription in the given month; used to keep the monthly grant
	// idempotent
	HasAddMutationInMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (bool, error)
}
