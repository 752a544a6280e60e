package service

import (
	"github.com/fitledger/fitledger/internal/config"
	"github.com/fitledger/fitledger/internal/domain/credit"
	"github.com/fitledger/fitledger/internal/domain/customer"
	"github.com/fitledger/fitledger/internal/domain/invoice"
	"github.com/fitledger/fitledger/internal/domain/proration"
	"github.com/fitledger/fitledger/internal/domain/subscription"
	"github.com/fitledger/fitledger/internal/domain/taxrate"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient

	// Repositories
	TaxRateRepo      taxrate.Repository
	CustomerRepo     customer.Repository
	SubRepo          subscription.Repository
	PlanRepo         subscription.PlanRepository
	PauseRepo        subscription.PauseRepository
	AltPriceRepo     subscription.AltPriceRepository
	CreditRepo       credit.Repository
	InvoiceRepo      invoice.Repository
	InvoiceGroupRepo invoice.GroupRepository
	PaymentRepo      invoice.PaymentRepository

	ProrationCalculator proration.Calculator
}

// NewServiceParams assembles the common service dependencies for fx.
func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	db postgres.IClient,
	taxRateRepo taxrate.Repository,
	customerRepo customer.Repository,
	subRepo subscription.Repository,
	planRepo subscription.PlanRepository,
	pauseRepo subscription.PauseRepository,
	altPriceRepo subscription.AltPriceRepository,
	creditRepo credit.Repository,
	invoiceRepo invoice.Repository,
	invoiceGroupRepo invoice.GroupRepository,
	paymentRepo invoice.PaymentRepository,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              cfg,
		DB:                  db,
		TaxRateRepo:         taxRateRepo,
		CustomerRepo:        customerRepo,
		SubRepo:             subRepo,
		PlanRepo:            planRepo,
		PauseRepo:           pauseRepo,
		AltPriceRepo:        altPriceRepo,
		CreditRepo:          creditRepo,
		InvoiceRepo:         invoiceRepo,
		InvoiceGroupRepo:    invoiceGroupRepo,
		PaymentRepo:         paymentRepo,
		ProrationCalculator: proration.NewCalculator(),
	}
}
