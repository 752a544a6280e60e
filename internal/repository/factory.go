package repository

import (
	"github.com/fitledger/fitledger/internal/domain/credit"
	"github.com/fitledger/fitledger/internal/domain/customer"
	"github.com/fitledger/fitledger/internal/domain/invoice"
	"github.com/fitledger/fitledger/internal/domain/subscription"
	"github.com/fitledger/fitledger/internal/domain/taxrate"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	postgresRepo "github.com/fitledger/fitledger/internal/repository/postgres"
)

func NewTaxRateRepository(client postgres.IClient, logger *logger.Logger) taxrate.Repository {
	return postgresRepo.NewTaxRateRepository(client, logger)
}

func NewCustomerRepository(client postgres.IClient, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(client, logger)
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(client, logger)
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) subscription.PlanRepository {
	return postgresRepo.NewPlanRepository(client, logger)
}

func NewPauseRepository(client postgres.IClient, logger *logger.Logger) subscription.PauseRepository {
	return postgresRepo.NewPauseRepository(client, logger)
}

func NewAltPriceRepository(client postgres.IClient, logger *logger.Logger) subscription.AltPriceRepository {
	return postgresRepo.NewAltPriceRepository(client, logger)
}

func NewCreditRepository(client postgres.IClient, logger *logger.Logger) credit.Repository {
	return postgresRepo.NewCreditRepository(client, logger)
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return postgresRepo.NewInvoiceRepository(client, logger)
}

func NewInvoiceGroupRepository(client postgres.IClient, logger *logger.Logger) invoice.GroupRepository {
	return postgresRepo.NewGroupRepository(client, logger)
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) invoice.PaymentRepository {
	return postgresRepo.NewPaymentRepository(client, logger)
}
