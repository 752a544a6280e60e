package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{client: client, logger: logger}
}

// invoiceRow flattens the invoice's amounts summary for sqlx scanning; the
// domain model keeps the summary as a nested struct.
type invoiceRow struct {
	ID                             string              `db:"id"`
	GroupID                        string              `db:"group_id"`
	InvoiceNumber                  string              `db:"invoice_number"`
	Status                         types.InvoiceStatus `db:"invoice_status"`
	CustomerID                     *string             `db:"customer_id"`
	SubscriptionID                 *string             `db:"subscription_id"`
	SubscriptionYear               *int                `db:"subscription_year"`
	SubscriptionMonth              *time.Month         `db:"subscription_month"`
	CreditInvoiceFor               *string             `db:"credit_invoice_for"`
	PaymentMethodID                *string             `db:"payment_method_id"`
	DateCreated                    time.Time           `db:"date_created"`
	DateDue                        time.Time           `db:"date_due"`
	Description                    string              `db:"description"`
	Terms                          string              `db:"terms"`
	Footer                         string              `db:"footer"`
	CustomerName                   string              `db:"customer_name"`
	CustomerListName               string              `db:"customer_list_name"`
	CustomerCompany                string              `db:"customer_company"`
	CustomerCompanyRegistration    string              `db:"customer_company_registration"`
	CustomerCompanyTaxRegistration string              `db:"customer_company_tax_registration"`
	CustomerAddress                string              `db:"customer_address"`
	Subtotal                       decimal.Decimal     `db:"subtotal"`
	VAT                            decimal.Decimal     `db:"vat"`
	Total                          decimal.Decimal     `db:"total"`
	Paid                           decimal.Decimal     `db:"paid"`
	Balance                        decimal.Decimal     `db:"balance"`
	types.BaseModel
}

func toInvoiceRow(inv *invoice.Invoice) *invoiceRow {
	return &invoiceRow{
		ID:                             inv.ID,
		GroupID:                        inv.GroupID,
		InvoiceNumber:                  inv.InvoiceNumber,
		Status:                         inv.Status,
		CustomerID:                     inv.CustomerID,
		SubscriptionID:                 inv.SubscriptionID,
		SubscriptionYear:               inv.SubscriptionYear,
		SubscriptionMonth:              inv.SubscriptionMonth,
		CreditInvoiceFor:               inv.CreditInvoiceFor,
		PaymentMethodID:                inv.PaymentMethodID,
		DateCreated:                    inv.DateCreated,
		DateDue:                        inv.DateDue,
		Description:                    inv.Description,
		Terms:                          inv.Terms,
		Footer:                         inv.Footer,
		CustomerName:                   inv.CustomerName,
		CustomerListName:               inv.CustomerListName,
		CustomerCompany:                inv.CustomerCompany,
		CustomerCompanyRegistration:    inv.CustomerCompanyRegistration,
		CustomerCompanyTaxRegistration: inv.CustomerCompanyTaxRegistration,
		CustomerAddress:                inv.CustomerAddress,
		Subtotal:                       inv.Amounts.Subtotal,
		VAT:                            inv.Amounts.VAT,
		Total:                          inv.Amounts.Total,
		Paid:                           inv.Amounts.Paid,
		Balance:                        inv.Amounts.Balance,
		BaseModel:                      inv.BaseModel,
	}
}

func (row *invoiceRow) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		ID:                             row.ID,
		GroupID:                        row.GroupID,
		InvoiceNumber:                  row.InvoiceNumber,
		Status:                         row.Status,
		CustomerID:                     row.CustomerID,
		SubscriptionID:                 row.SubscriptionID,
		SubscriptionYear:               row.SubscriptionYear,
		SubscriptionMonth:              row.SubscriptionMonth,
		CreditInvoiceFor:               row.CreditInvoiceFor,
		PaymentMethodID:                row.PaymentMethodID,
		DateCreated:                    row.DateCreated,
		DateDue:                        row.DateDue,
		Description:                    row.Description,
		Terms:                          row.Terms,
		Footer:                         row.Footer,
		CustomerName:                   row.CustomerName,
		CustomerListName:               row.CustomerListName,
		CustomerCompany:                row.CustomerCompany,
		CustomerCompanyRegistration:    row.CustomerCompanyRegistration,
		CustomerCompanyTaxRegistration: row.CustomerCompanyTaxRegistration,
		CustomerAddress:                row.CustomerAddress,
		Amounts: invoice.Amounts{
			Subtotal: row.Subtotal,
			VAT:      row.VAT,
			Total:    row.Total,
			Paid:     row.Paid,
			Balance:  row.Balance,
		},
		BaseModel: row.BaseModel,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
	INSERT INTO invoices (
		id, group_id, invoice_number, invoice_status, customer_id,
		subscription_id, subscription_year, subscription_month, credit_invoice_for,
		payment_method_id, date_created, date_due, description, terms, footer,
		customer_name, customer_list_name, customer_company,
		customer_company_registration, customer_company_tax_registration, customer_address,
		subtotal, vat, total, paid, balance,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :group_id, :invoice_number, :invoice_status, :customer_id,
		:subscription_id, :subscription_year, :subscription_month, :credit_invoice_for,
		:payment_method_id, :date_created, :date_due, :description, :terms, :footer,
		:customer_name, :customer_list_name, :customer_company,
		:customer_company_registration, :customer_company_tax_registration, :customer_address,
		:subtotal, :vat, :total, :paid, :balance,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, toInvoiceRow(inv))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = $1 AND status != $2`

	var row invoiceRow
	err := r.client.Querier(ctx).GetContext(ctx, &row, query, id, types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHintf("Invoice with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	inv := row.toDomain()
	if err := r.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)

	query := `
	UPDATE invoices SET
		invoice_status = :invoice_status,
		customer_id = :customer_id,
		payment_method_id = :payment_method_id,
		date_due = :date_due,
		description = :description,
		terms = :terms,
		footer = :footer,
		customer_name = :customer_name,
		customer_list_name = :customer_list_name,
		customer_company = :customer_company,
		customer_company_registration = :customer_company_registration,
		customer_company_tax_registration = :customer_company_tax_registration,
		customer_address = :customer_address,
		subtotal = :subtotal,
		vat = :vat,
		total = :total,
		paid = :paid,
		balance = :balance,
		status = :status,
		updated_at = :updated_at,
		updated_by = :updated_by
	WHERE id = :id
	`

	result, err := r.client.Querier(ctx).NamedExecContext(ctx, query, toInvoiceRow(inv))
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *invoiceRepository) GetBySubscriptionMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*invoice.Invoice, error) {
	query := `
	SELECT * FROM invoices
	WHERE subscription_id = $1 AND subscription_year = $2 AND subscription_month = $3
	  AND status != $4
	LIMIT 1
	`

	var row invoiceRow
	err := r.client.Querier(ctx).GetContext(ctx, &row, query,
		subscriptionID, year, int(month), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(err).
				WithHint("No invoice exists for the subscription month").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice for subscription month").
			Mark(ierr.ErrDatabase)
	}

	inv := row.toDomain()
	if err := r.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) CountForSubscription(ctx context.Context, subscriptionID string) (int, error) {
	query := `
	SELECT COUNT(*) FROM invoices
	WHERE subscription_id = $1 AND status != $2
	`

	var count int
	err := r.client.Querier(ctx).GetContext(ctx, &count, query, subscriptionID, types.StatusDeleted)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices for subscription").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) AddItem(ctx context.Context, item *invoice.Item) error {
	query := `
	INSERT INTO invoice_items (
		id, invoice_id, sorting, product_name, description, quantity, price,
		tax_rate_id, total_price, vat, total_price_vat, link_type, link_id,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :invoice_id, :sorting, :product_name, :description, :quantity, :price,
		:tax_rate_id, :total_price, :vat, :total_price_vat, :link_type, :link_id,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, item)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to add invoice item").
			WithReportableDetails(map[string]any{
				"invoice_id": item.InvoiceID,
				"item_id":    item.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) loadItems(ctx context.Context, inv *invoice.Invoice) error {
	query := `
	SELECT * FROM invoice_items
	WHERE invoice_id = $1 AND status != $2
	ORDER BY sorting
	`

	err := r.client.Querier(ctx).SelectContext(ctx, &inv.Items, query, inv.ID, types.StatusDeleted)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to load invoice items").
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
