package postgres

import (
	"context"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
)

type paymentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) invoice.PaymentRepository {
	return &paymentRepository{client: client, logger: logger}
}

func (r *paymentRepository) Create(ctx context.Context, payment *invoice.Payment) error {
	query := `
	INSERT INTO invoice_payments (
		id, invoice_id, receipt_number, amount, payment_date,
		payment_method_id, note,
		provider_payment_id, provider_refund_id, provider_chargeback_id,
		status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :invoice_id, :receipt_number, :amount, :payment_date,
		:payment_method_id, :note,
		:provider_payment_id, :provider_refund_id, :provider_chargeback_id,
		:status, :created_at, :updated_at, :created_by, :updated_by
	)
	`

	_, err := r.client.Querier(ctx).NamedExecContext(ctx, query, payment)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment").
			WithReportableDetails(map[string]any{
				"invoice_id": payment.InvoiceID,
				"payment_id": payment.ID,
			}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) ListForInvoice(ctx context.Context, invoiceID string) ([]*invoice.Payment, error) {
	query := `
	SELECT * FROM invoice_payments
	WHERE invoice_id = $1 AND status != $2
	ORDER BY payment_date, id
	`

	var payments []*invoice.Payment
	err := r.client.Querier(ctx).SelectContext(ctx, &payments, query, invoiceID, types.StatusDeleted)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments for invoice").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}
