package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitledger/fitledger/internal/domain/customer"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
)

type customerRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewCustomerRepository(client postgres.IClient, logger *logger.Logger) customer.Repository {
	return &customerRepository{client: client, logger: logger}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
	INSERT INTO customers (
		id, full_name, email, company, company_registration, company_tax_registration,
		address, city, postcode, country,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :full_name, :email, :company, :company_registration, :company_tax_registration,
		:address, :city, :postcode, :country,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			WithReportableDetails(map[string]any{
				"customer_id": c.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	query := `SELECT * FROM customers WHERE id = $1 AND status != $2`

	var c customer.Customer
	err := r.client.Querier(ctx).GetContext(ctx, &c, query, id, types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Customer with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)

	query := `
	UPDATE customers SET
		full_name = :full_name,
		email = :email,
		company = :company,
		company_registration = :company_registration,
		company_tax_registration = :company_tax_registration,
		address = :address,
		city = :city,
		postcode = :postcode,
		country = :country,
		status = :status,
		updated_at = :updated_at,
		updated_by = :updated_by
	WHERE id = :id
	`

	result, err := r.client.Querier(ctx).NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			WithReportableDetails(map[string]any{
				"customer_id": c.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("customer not found").
			WithHintf("Customer with ID %s was not found", c.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
