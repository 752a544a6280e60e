package testutil

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/config"
	"github.com/fitledger/fitledger/internal/domain/credit"
	"github.com/fitledger/fitledger/internal/domain/customer"
	"github.com/fitledger/fitledger/internal/domain/invoice"
	"github.com/fitledger/fitledger/internal/domain/subscription"
	"github.com/fitledger/fitledger/internal/domain/taxrate"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	TaxRateRepo      taxrate.Repository
	CustomerRepo     customer.Repository
	SubscriptionRepo subscription.Repository
	PlanRepo         subscription.PlanRepository
	PauseRepo        subscription.PauseRepository
	AltPriceRepo     subscription.AltPriceRepository
	CreditRepo       credit.Repository
	InvoiceRepo      invoice.Repository
	InvoiceGroupRepo invoice.GroupRepository
	PaymentRepo      invoice.PaymentRepository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	stores Stores
	db     postgres.IClient
	logger *logger.Logger
	config *config.Configuration
	now    time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext()
}

func (s *BaseServiceTestSuite) setupStores() {
	invoiceStore := NewInMemoryInvoiceStore()
	s.stores = Stores{
		TaxRateRepo:      NewInMemoryTaxRateStore(),
		CustomerRepo:     NewInMemoryCustomerStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		PlanRepo:         NewInMemoryPlanStore(),
		PauseRepo:        NewInMemoryPauseStore(),
		AltPriceRepo:     NewInMemoryAltPriceStore(),
		CreditRepo:       NewInMemoryCreditStore(),
		InvoiceRepo:      invoiceStore,
		InvoiceGroupRepo: NewInMemoryInvoiceGroupStore(invoiceStore),
		PaymentRepo:      NewInMemoryPaymentStore(),
	}

	s.db = NewMockPostgresClient(s.logger)
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.TaxRateRepo.(*InMemoryTaxRateStore).Clear()
	s.stores.CustomerRepo.(*InMemoryCustomerStore).Clear()
	s.stores.SubscriptionRepo.(*InMemorySubscriptionStore).Clear()
	s.stores.PlanRepo.(*InMemoryPlanStore).Clear()
	s.stores.PauseRepo.(*InMemoryPauseStore).Clear()
	s.stores.AltPriceRepo.(*InMemoryAltPriceStore).Clear()
	s.stores.CreditRepo.(*InMemoryCreditStore).Clear()
	s.stores.InvoiceRepo.(*InMemoryInvoiceStore).Clear()
	s.stores.InvoiceGroupRepo.(*InMemoryInvoiceGroupStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current timestamp recorded at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
