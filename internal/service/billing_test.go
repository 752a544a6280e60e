package service

import (
	"testing"
	"time"

	"github.com/fitledger/fitledger/internal/domain/customer"
	"github.com/fitledger/fitledger/internal/domain/invoice"
	"github.com/fitledger/fitledger/internal/domain/proration"
	"github.com/fitledger/fitledger/internal/domain/subscription"
	"github.com/fitledger/fitledger/internal/testutil"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	billingService BillingService
	invoiceService InvoiceService
	params         ServiceParams

	group    *invoice.Group
	customer *customer.Customer
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.params = ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		DB:                  s.GetDB(),
		TaxRateRepo:         stores.TaxRateRepo,
		CustomerRepo:        stores.CustomerRepo,
		SubRepo:             stores.SubscriptionRepo,
		PlanRepo:            stores.PlanRepo,
		PauseRepo:           stores.PauseRepo,
		AltPriceRepo:        stores.AltPriceRepo,
		CreditRepo:          stores.CreditRepo,
		InvoiceRepo:         stores.InvoiceRepo,
		InvoiceGroupRepo:    stores.InvoiceGroupRepo,
		PaymentRepo:         stores.PaymentRepo,
		ProrationCalculator: proration.NewCalculator(),
	}
	taxService := NewTaxService(s.params)
	s.invoiceService = NewInvoiceService(s.params, taxService)
	s.billingService = NewBillingService(s.params, s.invoiceService)

	s.group = &invoice.Group{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_GROUP),
		Name:          "Subscriptions",
		InvoicePrefix: "SUB",
		NextID:        1,
		DueDays:       14,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.InvoiceGroupRepo.Create(s.GetContext(), s.group))
	s.GetConfig().Billing.SubscriptionInvoiceGroupID = s.group.ID
	s.GetConfig().Billing.FirstInvoiceTwoTerms = false

	s.customer = &customer.Customer{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		FullName:  "Anna Jansen",
		Email:     "anna@example.com",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.CustomerRepo.Create(s.GetContext(), s.customer))
}

func (s *BillingServiceSuite) createPlan(price string, mutate func(p *subscription.Plan)) *subscription.Plan {
	plan := &subscription.Plan{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:      "Gold",
		Unit:      types.SubscriptionUnitMonth,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	if price != "" {
		plan.Prices = []*subscription.PlanPrice{{
			ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_PRICE),
			PlanID:    plan.ID,
			StartDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			Price:     decimal.RequireFromString(price),
			BaseModel: types.GetDefaultBaseModel(s.GetContext()),
		}}
	}
	if mutate != nil {
		mutate(plan)
	}
	s.NoError(s.params.PlanRepo.Create(s.GetContext(), plan))
	return plan
}

func (s *BillingServiceSuite) createSubscription(planID string, start time.Time, end *time.Time) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		CustomerID: s.customer.ID,
		PlanID:     planID,
		StartDate:  types.DateOnly(start),
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}
	if end != nil {
		endDate := types.DateOnly(*end)
		sub.EndDate = &endDate
	}
	s.NoError(s.params.SubRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *BillingServiceSuite) invoiceTotal(invoiceID string) decimal.Decimal {
	inv, err := s.invoiceService.GetInvoice(s.GetContext(), invoiceID)
	s.NoError(err)
	return inv.Amounts.Total
}

func (s *BillingServiceSuite) TestBillMonthFullMonth() {
	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(result.Skipped)

	inv, err := s.invoiceService.GetInvoice(s.GetContext(), result.InvoiceID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, inv.Status)
	s.Equal("SUB1", inv.InvoiceNumber)
	s.Equal(sub.ID, *inv.SubscriptionID)
	s.Equal(2024, *inv.SubscriptionYear)
	s.Equal(time.June, *inv.SubscriptionMonth)
	s.Equal("Anna Jansen", inv.CustomerName)
	s.Len(inv.Items, 1)
	s.Equal(types.InvoiceItemLinkSubscription, *inv.Items[0].LinkType)
	s.Equal(sub.ID, *inv.Items[0].LinkID)
	s.True(inv.Amounts.Total.Equal(decimal.RequireFromString("100.00")), inv.Amounts.Total.String())
}

func (s *BillingServiceSuite) TestBillMonthIdempotent() {
	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	first, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(first.Skipped)

	second, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.True(second.Skipped)
	s.Equal(SkipReasonAlreadyInvoiced, second.SkipReason)
	s.Equal(first.InvoiceID, second.InvoiceID)

	count, err := s.params.InvoiceRepo.CountForSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *BillingServiceSuite) TestBillMonthProratesBrokenStart() {
	plan := s.createPlan("100", nil)
	// June has 30 days; starting on the 10th leaves 21 active days
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), nil)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(result.Skipped)
	s.True(s.invoiceTotal(result.InvoiceID).Equal(decimal.RequireFromString("70.00")))
}

func (s *BillingServiceSuite) TestBillMonthProratesBrokenEnd() {
	plan := s.createPlan("62", nil)
	end := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	sub := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), &end)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.May)
	s.NoError(err)
	s.False(result.Skipped)
	// 15 of May's 31 days: 62 * 15/31 = 30.00
	s.True(s.invoiceTotal(result.InvoiceID).Equal(decimal.RequireFromString("30.00")))
}

func (s *BillingServiceSuite) TestBillMonthDeductsPauseDays() {
	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), nil)

	pauseEnd := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	pause := &subscription.Pause{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE),
		SubscriptionID: sub.ID,
		StartDate:      time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		EndDate:        &pauseEnd,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.PauseRepo.Create(s.GetContext(), pause))

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(result.Skipped)
	// 21 active days minus 6 paused: 100 * 15/30 = 50.00
	s.True(s.invoiceTotal(result.InvoiceID).Equal(decimal.RequireFromString("50.00")))
}

func (s *BillingServiceSuite) TestBillMonthSkipsFullyPausedMonth() {
	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	pauseEnd := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	pause := &subscription.Pause{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE),
		SubscriptionID: sub.ID,
		StartDate:      time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		EndDate:        &pauseEnd,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.PauseRepo.Create(s.GetContext(), pause))

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.True(result.Skipped)
	s.Equal(SkipReasonPaused, result.SkipReason)

	count, err := s.params.InvoiceRepo.CountForSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Zero(count)
}

func (s *BillingServiceSuite) TestBillMonthSkipsWhenPauseCoversTruncatedPeriod() {
	s.GetConfig().Billing.FirstInvoiceTwoTerms = true

	plan := s.createPlan("100", nil)
	// Starts mid-month, paused from the start date through month end: the
	// pause covers every billable day without covering the calendar month
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), nil)

	pauseEnd := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	s.NoError(s.params.PauseRepo.Create(s.GetContext(), &subscription.Pause{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE),
		SubscriptionID: sub.ID,
		StartDate:      time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		EndDate:        &pauseEnd,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}))

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.True(result.Skipped)
	s.Equal(SkipReasonPaused, result.SkipReason)
	s.Empty(result.InvoiceID)

	count, err := s.params.InvoiceRepo.CountForSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Zero(count)

	// No second term was planted either: July bills normally later
	julyResult, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.July)
	s.NoError(err)
	s.False(julyResult.Skipped)
}

func (s *BillingServiceSuite) TestBillMonthSkipsInactiveMonth() {
	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), nil)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.True(result.Skipped)
	s.Equal(SkipReasonNotActive, result.SkipReason)
}

func (s *BillingServiceSuite) TestBillMonthSkipsPricelessPlan() {
	plan := s.createPlan("", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.True(result.Skipped)
	s.Equal(SkipReasonNoPrice, result.SkipReason)

	count, err := s.params.InvoiceRepo.CountForSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Zero(count)
}

func (s *BillingServiceSuite) TestBillMonthAltPriceZeroSkipsRepeatedly() {
	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	altPrice := &subscription.AltPrice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALT_PRICE),
		SubscriptionID: sub.ID,
		Year:           2024,
		Month:          time.June,
		Amount:         decimal.Zero,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.AltPriceRepo.Create(s.GetContext(), altPrice))

	for i := 0; i < 2; i++ {
		result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
		s.NoError(err)
		s.True(result.Skipped)
		s.Equal(SkipReasonAltPriceZero, result.SkipReason)
	}

	count, err := s.params.InvoiceRepo.CountForSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Zero(count)
}

func (s *BillingServiceSuite) TestBillMonthAltPriceOverridesProration() {
	plan := s.createPlan("100", nil)
	// A mid-month start would normally prorate, but the override wins
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), nil)

	altPrice := &subscription.AltPrice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALT_PRICE),
		SubscriptionID: sub.ID,
		Year:           2024,
		Month:          time.June,
		Amount:         decimal.RequireFromString("42.50"),
		Description:    "Agreed discount",
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.AltPriceRepo.Create(s.GetContext(), altPrice))

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(result.Skipped)

	inv, err := s.invoiceService.GetInvoice(s.GetContext(), result.InvoiceID)
	s.NoError(err)
	s.Len(inv.Items, 1)
	s.Equal("Agreed discount", inv.Items[0].Description)
	s.True(inv.Amounts.Total.Equal(decimal.RequireFromString("42.50")))
}

func (s *BillingServiceSuite) TestBillMonthFirstInvoiceTwoTerms() {
	s.GetConfig().Billing.FirstInvoiceTwoTerms = true

	plan := s.createPlan("100", nil)
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), nil)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(result.Skipped)

	inv, err := s.invoiceService.GetInvoice(s.GetContext(), result.InvoiceID)
	s.NoError(err)
	s.Len(inv.Items, 2)
	s.True(inv.Amounts.Total.Equal(decimal.RequireFromString("200.00")), inv.Amounts.Total.String())

	// July carries the suppression marker and is settled without an invoice
	julyResult, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.July)
	s.NoError(err)
	s.True(julyResult.Skipped)
	s.Equal(SkipReasonAltPriceZero, julyResult.SkipReason)

	// August bills normally again, as one term
	augustResult, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.August)
	s.NoError(err)
	s.False(augustResult.Skipped)

	augustInv, err := s.invoiceService.GetInvoice(s.GetContext(), augustResult.InvoiceID)
	s.NoError(err)
	s.Len(augustInv.Items, 1)
	s.True(augustInv.Amounts.Total.Equal(decimal.RequireFromString("100.00")))
}

func (s *BillingServiceSuite) TestBillMonthSecondTermBilledAtFullPrice() {
	s.GetConfig().Billing.FirstInvoiceTwoTerms = true

	plan := s.createPlan("100", nil)
	// Ends mid-July; the second term still carries July at the full price
	end := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), &end)

	result, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.False(result.Skipped)

	inv, err := s.invoiceService.GetInvoice(s.GetContext(), result.InvoiceID)
	s.NoError(err)
	s.Len(inv.Items, 2)
	s.True(inv.Items[1].Price.Equal(decimal.NewFromInt(100)), inv.Items[1].Price.String())
	s.True(inv.Amounts.Total.Equal(decimal.RequireFromString("200.00")), inv.Amounts.Total.String())
}

func (s *BillingServiceSuite) TestBillMonthRegistrationFeeBilledOnce() {
	plan := s.createPlan("100", func(p *subscription.Plan) {
		p.RegistrationFee = decimal.RequireFromString("25")
	})
	sub := s.createSubscription(plan.ID, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), nil)

	first, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.June)
	s.NoError(err)
	s.True(s.invoiceTotal(first.InvoiceID).Equal(decimal.RequireFromString("125.00")))

	updated, err := s.params.SubRepo.Get(s.GetContext(), sub.ID)
	s.NoError(err)
	s.True(updated.RegistrationFeePaid)

	second, err := s.billingService.BillMonth(s.GetContext(), sub.ID, 2024, time.July)
	s.NoError(err)
	s.True(s.invoiceTotal(second.InvoiceID).Equal(decimal.RequireFromString("100.00")))
}

func (s *BillingServiceSuite) TestRunMonthlyBilling() {
	plan := s.createPlan("100", nil)

	active := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	other := s.createSubscription(plan.ID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), nil)

	paused := s.createSubscription(plan.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	pauseEnd := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	s.NoError(s.params.PauseRepo.Create(s.GetContext(), &subscription.Pause{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAUSE),
		SubscriptionID: paused.ID,
		StartDate:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        &pauseEnd,
		BaseModel:      types.GetDefaultBaseModel(s.GetContext()),
	}))

	// A subscription only active later in the year is not part of the run
	s.createSubscription(plan.ID, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), nil)

	summary, err := s.billingService.RunMonthlyBilling(s.GetContext(), 2024, time.June)
	s.NoError(err)
	s.Equal(2, summary.Invoiced)
	s.Equal(1, summary.Skipped)
	s.Zero(summary.Failed)
	s.Empty(summary.FailedSubscriptionIDs)

	for _, sub := range []*subscription.Subscription{active, other} {
		count, err := s.params.InvoiceRepo.CountForSubscription(s.GetContext(), sub.ID)
		s.NoError(err)
		s.Equal(1, count)
	}
}
