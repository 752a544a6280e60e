package service

import (
	"strings"
	"testing"
	"time"

	"github.com/fitledger/fitledger/internal/domain/customer"
	"github.com/fitledger/fitledger/internal/domain/invoice"
	"github.com/fitledger/fitledger/internal/domain/proration"
	"github.com/fitledger/fitledger/internal/domain/taxrate"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/testutil"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	invoiceService InvoiceService
	taxService     TaxService
	params         ServiceParams

	group *invoice.Group
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
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
	s.taxService = NewTaxService(s.params)
	s.invoiceService = NewInvoiceService(s.params, s.taxService)

	s.group = &invoice.Group{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_GROUP),
		Name:          "Default",
		InvoicePrefix: "INV",
		NextID:        1,
		DueDays:       14,
		Terms:         "Payment within 14 days",
		Footer:        "Thank you",
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.InvoiceGroupRepo.Create(s.GetContext(), s.group))
}

func (s *InvoiceServiceSuite) createTaxRate(name string, pct string) *taxrate.TaxRate {
	percentage := decimal.RequireFromString(pct)
	rate, err := s.taxService.CreateTaxRate(s.GetContext(), &taxrate.TaxRate{
		Name:       name,
		Percentage: &percentage,
	})
	s.NoError(err)
	return rate
}

func (s *InvoiceServiceSuite) createInvoice(status types.InvoiceStatus) *invoice.Invoice {
	inv, err := s.invoiceService.CreateInvoice(s.GetContext(), CreateInvoiceRequest{
		GroupID: s.group.ID,
		Status:  status,
	})
	s.NoError(err)
	return inv
}

func (s *InvoiceServiceSuite) TestCreateInvoiceSequentialNumbering() {
	first := s.createInvoice(types.InvoiceStatusDraft)
	second := s.createInvoice(types.InvoiceStatusDraft)

	s.Equal("INV1", first.InvoiceNumber)
	s.Equal("INV2", second.InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceYearPrefixResetsCounter() {
	yearly := &invoice.Group{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_GROUP),
		Name:          "Yearly",
		InvoicePrefix: "INV",
		PrefixYear:    true,
		NextID:        1,
		DueDays:       14,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.InvoiceGroupRepo.Create(s.GetContext(), yearly))

	create := func(date time.Time) *invoice.Invoice {
		inv, err := s.invoiceService.CreateInvoice(s.GetContext(), CreateInvoiceRequest{
			GroupID:     yearly.ID,
			DateCreated: date,
		})
		s.NoError(err)
		return inv
	}

	s.Equal("INV20241", create(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).InvoiceNumber)
	s.Equal("INV20242", create(time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)).InvoiceNumber)

	// First invoice of the next year starts the sequence over
	s.Equal("INV20251", create(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)).InvoiceNumber)
	s.Equal("INV20252", create(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)).InvoiceNumber)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceDueDateAndGroupDefaults() {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	inv, err := s.invoiceService.CreateInvoice(s.GetContext(), CreateInvoiceRequest{
		GroupID:     s.group.ID,
		DateCreated: created,
	})
	s.NoError(err)

	s.Equal(created.AddDate(0, 0, 14), inv.DateDue)
	s.Equal("Payment within 14 days", inv.Terms)
	s.Equal("Thank you", inv.Footer)
	s.Equal(types.InvoiceStatusDraft, inv.Status)
}

func (s *InvoiceServiceSuite) TestCreateCreditInvoice() {
	original := s.createInvoice(types.InvoiceStatusSent)

	credit, err := s.invoiceService.CreateInvoice(s.GetContext(), CreateInvoiceRequest{
		GroupID:          s.group.ID,
		CreditInvoiceFor: &original.ID,
	})
	s.NoError(err)
	s.True(credit.IsCreditInvoice())
	s.Equal(original.ID, *credit.CreditInvoiceFor)
	s.False(original.IsCreditInvoice())
}

func (s *InvoiceServiceSuite) TestAddItemComputesTotalsWithVAT() {
	rate := s.createTaxRate("VAT high", "21")
	inv := s.createInvoice(types.InvoiceStatusSent)

	item, err := s.invoiceService.AddItem(s.GetContext(), inv.ID, AddItemRequest{
		ProductName: "Gold subscription",
		Price:       decimal.NewFromInt(100),
		TaxRateID:   &rate.ID,
	})
	s.NoError(err)

	s.True(item.TotalPrice.Equal(decimal.RequireFromString("100.00")), item.TotalPrice.String())
	s.True(item.VAT.Equal(decimal.RequireFromString("21.00")), item.VAT.String())
	s.True(item.TotalPriceVAT.Equal(decimal.RequireFromString("121.00")), item.TotalPriceVAT.String())

	reloaded, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.True(reloaded.Amounts.Subtotal.Equal(decimal.RequireFromString("100.00")))
	s.True(reloaded.Amounts.VAT.Equal(decimal.RequireFromString("21.00")))
	s.True(reloaded.Amounts.Total.Equal(decimal.RequireFromString("121.00")))
	s.True(reloaded.Amounts.Balance.Equal(decimal.RequireFromString("121.00")))
}

func (s *InvoiceServiceSuite) TestPaymentSettlesInvoice() {
	rate := s.createTaxRate("VAT high", "21")
	inv := s.createInvoice(types.InvoiceStatusSent)

	_, err := s.invoiceService.AddItem(s.GetContext(), inv.ID, AddItemRequest{
		ProductName: "Gold subscription",
		Price:       decimal.NewFromInt(100),
		TaxRateID:   &rate.ID,
	})
	s.NoError(err)

	payment, err := s.invoiceService.RecordPayment(s.GetContext(), RecordPaymentRequest{
		InvoiceID:   inv.ID,
		Amount:      decimal.RequireFromString("121.00"),
		PaymentDate: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)
	s.True(strings.HasPrefix(payment.ReceiptNumber, "PR-"), payment.ReceiptNumber)
	s.LessOrEqual(len(payment.ReceiptNumber), 12)

	reloaded, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, reloaded.Status)
	s.True(reloaded.Amounts.Paid.Equal(decimal.RequireFromString("121.00")))
	s.True(reloaded.Amounts.Balance.IsZero(), reloaded.Amounts.Balance.String())
}

func (s *InvoiceServiceSuite) TestRefundFlipsPaidBackToSent() {
	inv := s.createInvoice(types.InvoiceStatusSent)

	_, err := s.invoiceService.AddItem(s.GetContext(), inv.ID, AddItemRequest{
		ProductName: "Gold subscription",
		Price:       decimal.NewFromInt(100),
	})
	s.NoError(err)

	_, err = s.invoiceService.RecordPayment(s.GetContext(), RecordPaymentRequest{
		InvoiceID:   inv.ID,
		Amount:      decimal.NewFromInt(100),
		PaymentDate: time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
	})
	s.NoError(err)

	reloaded, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, reloaded.Status)

	// A refund reopens the balance
	_, err = s.invoiceService.RecordPayment(s.GetContext(), RecordPaymentRequest{
		InvoiceID:   inv.ID,
		Amount:      decimal.NewFromInt(-40),
		PaymentDate: time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC),
		Note:        "partial refund",
	})
	s.NoError(err)

	reloaded, err = s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, reloaded.Status)
	s.True(reloaded.Amounts.Balance.Equal(decimal.NewFromInt(40)))
}

func (s *InvoiceServiceSuite) TestRecomputeAmountsIdempotent() {
	rate := s.createTaxRate("VAT low", "9")
	inv := s.createInvoice(types.InvoiceStatusSent)

	_, err := s.invoiceService.AddItem(s.GetContext(), inv.ID, AddItemRequest{
		ProductName: "Class card",
		Quantity:    decimal.NewFromInt(2),
		Price:       decimal.RequireFromString("17.95"),
		TaxRateID:   &rate.ID,
	})
	s.NoError(err)

	first, err := s.invoiceService.RecomputeAmounts(s.GetContext(), inv.ID)
	s.NoError(err)
	second, err := s.invoiceService.RecomputeAmounts(s.GetContext(), inv.ID)
	s.NoError(err)

	s.True(first.Amounts.Subtotal.Equal(second.Amounts.Subtotal))
	s.True(first.Amounts.VAT.Equal(second.Amounts.VAT))
	s.True(first.Amounts.Total.Equal(second.Amounts.Total))
	s.True(first.Amounts.Balance.Equal(second.Amounts.Balance))
	s.Equal(first.Status, second.Status)
}

func (s *InvoiceServiceSuite) TestDuplicateItem() {
	inv := s.createInvoice(types.InvoiceStatusDraft)

	linkType := types.InvoiceItemLinkClassCard
	linkID := "card_1"
	item, err := s.invoiceService.AddItem(s.GetContext(), inv.ID, AddItemRequest{
		ProductName: "10 class card",
		Price:       decimal.NewFromInt(95),
		LinkType:    &linkType,
		LinkID:      &linkID,
	})
	s.NoError(err)

	copied, err := s.invoiceService.DuplicateItem(s.GetContext(), inv.ID, item.ID)
	s.NoError(err)

	s.Equal("10 class card (Copy)", copied.ProductName)
	s.Equal(2, copied.Sorting)
	s.True(copied.Price.Equal(item.Price))
	s.Nil(copied.LinkType)

	reloaded, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(reloaded.Items, 2)
	s.True(reloaded.Amounts.Total.Equal(decimal.NewFromInt(190)))
}

func (s *InvoiceServiceSuite) TestDuplicateItemUnknownItem() {
	inv := s.createInvoice(types.InvoiceStatusDraft)

	_, err := s.invoiceService.DuplicateItem(s.GetContext(), inv.ID, "missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestAddClassItemValidatesProductType() {
	inv := s.createInvoice(types.InvoiceStatusDraft)

	_, err := s.invoiceService.AddClassItem(s.GetContext(), inv.ID, ClassItemRequest{
		ClassAttendanceID: "att_1",
		ProductType:       types.ClassProductType("subscription"),
		ProductName:       "Morning flow",
		Price:             decimal.NewFromInt(15),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	item, err := s.invoiceService.AddClassItem(s.GetContext(), inv.ID, ClassItemRequest{
		ClassAttendanceID: "att_1",
		ProductType:       types.ClassProductTypeTrial,
		ProductName:       "Morning flow (trial)",
		Price:             decimal.NewFromInt(5),
	})
	s.NoError(err)
	s.Equal(types.InvoiceItemLinkClassAttendance, *item.LinkType)
	s.Equal("att_1", *item.LinkID)
}

func (s *InvoiceServiceSuite) TestLinkedItemKinds() {
	inv := s.createInvoice(types.InvoiceStatusDraft)

	card, err := s.invoiceService.AddClassCardItem(s.GetContext(), inv.ID, "card_7", AddItemRequest{
		ProductName: "10 class card",
		Price:       decimal.NewFromInt(95),
	})
	s.NoError(err)
	s.Equal(types.InvoiceItemLinkClassCard, *card.LinkType)

	membership, err := s.invoiceService.AddMembershipItem(s.GetContext(), inv.ID, "mem_3", AddItemRequest{
		ProductName: "Membership",
		Price:       decimal.NewFromInt(10),
	})
	s.NoError(err)
	s.Equal(types.InvoiceItemLinkMembership, *membership.LinkType)

	workshop, err := s.invoiceService.AddWorkshopItem(s.GetContext(), inv.ID, "wsp_9", AddItemRequest{
		ProductName: "Handstand workshop",
		Price:       decimal.NewFromInt(45),
	})
	s.NoError(err)
	s.Equal(types.InvoiceItemLinkWorkshopProduct, *workshop.LinkType)

	reloaded, err := s.invoiceService.GetInvoice(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Len(reloaded.Items, 3)
	s.Equal([]int{1, 2, 3}, []int{
		reloaded.Items[0].Sorting,
		reloaded.Items[1].Sorting,
		reloaded.Items[2].Sorting,
	})
}

func (s *InvoiceServiceSuite) TestLinkToCustomerSnapshot() {
	c := &customer.Customer{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		FullName: "Robin de Vries",
		Email:    "robin@example.com",
		Company:  "Vries Holding BV",
		Address:  "Kerkstraat 1",
		City:     "Amsterdam",
		Postcode: "1017 GC",
		Country:  "Netherlands",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.CustomerRepo.Create(s.GetContext(), c))

	inv := s.createInvoice(types.InvoiceStatusDraft)
	linked, err := s.invoiceService.LinkToCustomer(s.GetContext(), inv.ID, c.ID)
	s.NoError(err)

	s.Equal(c.ID, *linked.CustomerID)
	s.Equal("Robin de Vries", linked.CustomerName)
	s.Equal("Vries Holding BV", linked.CustomerListName)
	s.Contains(linked.CustomerAddress, "Kerkstraat 1")
	s.Contains(linked.CustomerAddress, "Amsterdam 1017 GC")
	s.Contains(linked.CustomerAddress, "Netherlands")
}

func (s *InvoiceServiceSuite) TestMarkSentRequiresDraft() {
	inv := s.createInvoice(types.InvoiceStatusDraft)

	_, err := s.invoiceService.AddItem(s.GetContext(), inv.ID, AddItemRequest{
		ProductName: "Gold subscription",
		Price:       decimal.NewFromInt(100),
	})
	s.NoError(err)

	sent, err := s.invoiceService.MarkSent(s.GetContext(), inv.ID)
	s.NoError(err)
	s.Equal(types.InvoiceStatusSent, sent.Status)

	_, err = s.invoiceService.MarkSent(s.GetContext(), inv.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
