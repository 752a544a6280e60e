package taxrate

import (
	"context"
)

// Repository defines the interface for tax rate persistence operations
type Repository interface {
	// Create creates a new tax rate
	Create(ctx context.Context, rate *TaxRate) error

	// Get retrieves a tax rate by ID
	Get(ctx context.Context, id string) (*TaxRate, error)

	// List retrieves all active tax rates ordered by percentage
	List(ctx context.Context) ([]*TaxRate, error)
}
