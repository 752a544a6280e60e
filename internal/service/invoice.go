package service

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/invoice"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest carries everything needed to open a new invoice in a
// group. A zero DateCreated means now; an empty Status means draft.
type CreateInvoiceRequest struct {
	GroupID           string
	Status            types.InvoiceStatus
	CustomerID        *string
	SubscriptionID    *string
	SubscriptionYear  *int
	SubscriptionMonth *time.Month
	CreditInvoiceFor  *string
	PaymentMethodID   *string
	Description       string
	DateCreated       time.Time
}

// AddItemRequest is one line to append to an invoice.
type AddItemRequest struct {
	ProductName string
	Description string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	TaxRateID   *string
	LinkType    *types.InvoiceItemLinkType
	LinkID      *string
}

// ClassItemRequest bills a single class attendance (trial or drop-in).
type ClassItemRequest struct {
	ClassAttendanceID string
	ProductType       types.ClassProductType
	ProductName       string
	Description       string
	Price             decimal.Decimal
	TaxRateID         *string
}

// RecordPaymentRequest records money received against an invoice.
type RecordPaymentRequest struct {
	InvoiceID         string
	Amount            decimal.Decimal
	PaymentDate       time.Time
	PaymentMethodID   *string
	Note              string
	ProviderPaymentID *string
}

// InvoiceService owns the invoice ledger: creation and numbering, line items,
// payments and the derived amounts summary.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error)

	AddItem(ctx context.Context, invoiceID string, req AddItemRequest) (*invoice.Item, error)
	AddClassItem(ctx context.Context, invoiceID string, req ClassItemRequest) (*invoice.Item, error)
	AddClassCardItem(ctx context.Context, invoiceID string, classCardID string, req AddItemRequest) (*invoice.Item, error)
	AddMembershipItem(ctx context.Context, invoiceID string, membershipID string, req AddItemRequest) (*invoice.Item, error)
	AddWorkshopItem(ctx context.Context, invoiceID string, workshopProductID string, req AddItemRequest) (*invoice.Item, error)
	DuplicateItem(ctx context.Context, invoiceID string, itemID string) (*invoice.Item, error)

	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*invoice.Payment, error)

	// RecomputeAmounts rebuilds the whole amounts summary from items and
	// payments and refreshes the paid/sent status. Idempotent.
	RecomputeAmounts(ctx context.Context, invoiceID string) (*invoice.Invoice, error)

	// LinkToCustomer attaches the invoice to a customer and freezes the
	// customer snapshot onto it.
	LinkToCustomer(ctx context.Context, invoiceID string, customerID string) (*invoice.Invoice, error)

	MarkSent(ctx context.Context, invoiceID string) (*invoice.Invoice, error)
}

type invoiceService struct {
	ServiceParams
	taxService TaxService
}

func NewInvoiceService(params ServiceParams, taxService TaxService) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
		taxService:    taxService,
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error) {
	if req.GroupID == "" {
		return nil, ierr.NewError("invoice group id is required").
			Mark(ierr.ErrValidation)
	}

	createdAt := req.DateCreated
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	createdAt = types.DateOnly(createdAt)

	status := req.Status
	if status == "" {
		status = types.InvoiceStatusDraft
	}

	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		group, err := s.InvoiceGroupRepo.Get(ctx, req.GroupID)
		if err != nil {
			return err
		}

		number, err := s.InvoiceGroupRepo.NextInvoiceNumber(ctx, group.ID, createdAt)
		if err != nil {
			return err
		}

		inv = &invoice.Invoice{
			ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
			GroupID:           group.ID,
			InvoiceNumber:     number,
			Status:            status,
			SubscriptionID:    req.SubscriptionID,
			SubscriptionYear:  req.SubscriptionYear,
			SubscriptionMonth: req.SubscriptionMonth,
			CreditInvoiceFor:  req.CreditInvoiceFor,
			PaymentMethodID:   req.PaymentMethodID,
			DateCreated:       createdAt,
			DateDue:           createdAt.AddDate(0, 0, group.DueDays),
			Description:       req.Description,
			Terms:             group.Terms,
			Footer:            group.Footer,
			BaseModel:         types.GetDefaultBaseModel(ctx),
		}

		if req.CustomerID != nil {
			if err := s.applyCustomerSnapshot(ctx, inv, *req.CustomerID); err != nil {
				return err
			}
		}

		if err := inv.Validate(); err != nil {
			return err
		}
		return s.InvoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"group_id", inv.GroupID,
	)
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	return s.InvoiceRepo.Get(ctx, id)
}

func (s *invoiceService) AddItem(ctx context.Context, invoiceID string, req AddItemRequest) (*invoice.Item, error) {
	var item *invoice.Item
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
		if err != nil {
			return err
		}

		item, err = s.buildItem(ctx, inv, req)
		if err != nil {
			return err
		}
		if err := s.InvoiceRepo.AddItem(ctx, item); err != nil {
			return err
		}

		_, err = s.RecomputeAmounts(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *invoiceService) buildItem(ctx context.Context, inv *invoice.Invoice, req AddItemRequest) (*invoice.Item, error) {
	quantity := req.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	item := &invoice.Item{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
		InvoiceID:   inv.ID,
		Sorting:     inv.NextSorting(),
		ProductName: req.ProductName,
		Description: req.Description,
		Quantity:    quantity,
		Price:       req.Price,
		TaxRateID:   req.TaxRateID,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}

	if req.LinkType != nil {
		if req.LinkID == nil {
			return nil, ierr.NewError("item link type and id must be set together").
				Mark(ierr.ErrValidation)
		}
		if err := item.Link(*req.LinkType, *req.LinkID); err != nil {
			return nil, err
		}
	}

	percentage, err := s.taxService.Percentage(ctx, item.TaxRateID)
	if err != nil {
		return nil, err
	}
	item.ComputeTotals(percentage)

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *invoiceService) AddClassItem(ctx context.Context, invoiceID string, req ClassItemRequest) (*invoice.Item, error) {
	if err := req.ProductType.Validate(); err != nil {
		return nil, err
	}
	if req.ClassAttendanceID == "" {
		return nil, ierr.NewError("class attendance id is required").
			Mark(ierr.ErrValidation)
	}

	linkType := types.InvoiceItemLinkClassAttendance
	return s.AddItem(ctx, invoiceID, AddItemRequest{
		ProductName: req.ProductName,
		Description: req.Description,
		Price:       req.Price,
		TaxRateID:   req.TaxRateID,
		LinkType:    &linkType,
		LinkID:      &req.ClassAttendanceID,
	})
}

func (s *invoiceService) AddClassCardItem(ctx context.Context, invoiceID string, classCardID string, req AddItemRequest) (*invoice.Item, error) {
	return s.addLinkedItem(ctx, invoiceID, types.InvoiceItemLinkClassCard, classCardID, req)
}

func (s *invoiceService) AddMembershipItem(ctx context.Context, invoiceID string, membershipID string, req AddItemRequest) (*invoice.Item, error) {
	return s.addLinkedItem(ctx, invoiceID, types.InvoiceItemLinkMembership, membershipID, req)
}

func (s *invoiceService) AddWorkshopItem(ctx context.Context, invoiceID string, workshopProductID string, req AddItemRequest) (*invoice.Item, error) {
	return s.addLinkedItem(ctx, invoiceID, types.InvoiceItemLinkWorkshopProduct, workshopProductID, req)
}

func (s *invoiceService) addLinkedItem(ctx context.Context, invoiceID string, linkType types.InvoiceItemLinkType, linkID string, req AddItemRequest) (*invoice.Item, error) {
	if linkID == "" {
		return nil, ierr.NewError("link id is required").
			WithReportableDetails(map[string]any{
				"link_type": linkType,
			}).
			Mark(ierr.ErrValidation)
	}
	req.LinkType = &linkType
	req.LinkID = &linkID
	return s.AddItem(ctx, invoiceID, req)
}

func (s *invoiceService) DuplicateItem(ctx context.Context, invoiceID string, itemID string) (*invoice.Item, error) {
	var copied *invoice.Item
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
		if err != nil {
			return err
		}

		var source *invoice.Item
		for _, item := range inv.Items {
			if item.ID == itemID {
				source = item
				break
			}
		}
		if source == nil {
			return ierr.NewError("invoice item not found").
				WithHintf("Item with ID %s was not found on invoice %s", itemID, invoiceID).
				Mark(ierr.ErrNotFound)
		}

		// The copy keeps price and tax but not the link: the original domain
		// object is already billed by the source item.
		copied = &invoice.Item{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_ITEM),
			InvoiceID:   inv.ID,
			Sorting:     inv.NextSorting(),
			ProductName: source.ProductName + " (Copy)",
			Description: source.Description,
			Quantity:    source.Quantity,
			Price:       source.Price,
			TaxRateID:   source.TaxRateID,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		}

		percentage, err := s.taxService.Percentage(ctx, copied.TaxRateID)
		if err != nil {
			return err
		}
		copied.ComputeTotals(percentage)

		if err := s.InvoiceRepo.AddItem(ctx, copied); err != nil {
			return err
		}

		_, err = s.RecomputeAmounts(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

func (s *invoiceService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*invoice.Payment, error) {
	payment := &invoice.Payment{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:         req.InvoiceID,
		ReceiptNumber:     types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
		Amount:            req.Amount,
		PaymentDate:       req.PaymentDate,
		PaymentMethodID:   req.PaymentMethodID,
		Note:              req.Note,
		ProviderPaymentID: req.ProviderPaymentID,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.InvoiceRepo.Get(ctx, req.InvoiceID); err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, payment); err != nil {
			return err
		}

		_, err := s.RecomputeAmounts(ctx, req.InvoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("recorded payment",
		"invoice_id", payment.InvoiceID,
		"payment_id", payment.ID,
		"amount", payment.Amount,
	)
	return payment, nil
}

func (s *invoiceService) RecomputeAmounts(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, invoiceID)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		vat := decimal.Zero
		total := decimal.Zero
		for _, item := range inv.Items {
			subtotal = subtotal.Add(item.TotalPrice)
			vat = vat.Add(item.VAT)
			total = total.Add(item.TotalPriceVAT)
		}

		payments, err := s.PaymentRepo.ListForInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		paid := decimal.Zero
		for _, payment := range payments {
			paid = paid.Add(payment.Amount)
		}

		inv.Amounts = invoice.Amounts{
			Subtotal: types.RoundCurrency(subtotal),
			VAT:      types.RoundCurrency(vat),
			Total:    types.RoundCurrency(total),
			Paid:     types.RoundCurrency(paid),
			Balance:  types.RoundCurrency(total).Sub(types.RoundCurrency(paid)),
		}
		s.refreshPaidStatus(inv)

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// refreshPaidStatus flips an issued invoice between sent and paid based on
// the rounded amounts. Paid wins when rounded payments cover the rounded
// total; a refund that reopens the balance flips the invoice back to sent.
// Draft, credited and cancelled invoices keep their status.
func (s *invoiceService) refreshPaidStatus(inv *invoice.Invoice) {
	if inv.Status != types.InvoiceStatusSent && inv.Status != types.InvoiceStatusPaid {
		return
	}
	if inv.Amounts.Paid.GreaterThanOrEqual(inv.Amounts.Total) {
		inv.Status = types.InvoiceStatusPaid
	} else {
		inv.Status = types.InvoiceStatusSent
	}
}

func (s *invoiceService) LinkToCustomer(ctx context.Context, invoiceID string, customerID string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, invoiceID)
		if err != nil {
			return err
		}

		if err := s.applyCustomerSnapshot(ctx, inv, customerID); err != nil {
			return err
		}
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) applyCustomerSnapshot(ctx context.Context, inv *invoice.Invoice, customerID string) error {
	c, err := s.CustomerRepo.Get(ctx, customerID)
	if err != nil {
		return err
	}

	inv.CustomerID = &c.ID
	inv.CustomerName = c.FullName
	inv.CustomerListName = c.ListName()
	inv.CustomerCompany = c.Company
	inv.CustomerCompanyRegistration = c.CompanyRegistration
	inv.CustomerCompanyTaxRegistration = c.CompanyTaxRegistration
	inv.CustomerAddress = c.BillingAddress()
	return nil
}

func (s *invoiceService) MarkSent(ctx context.Context, invoiceID string) (*invoice.Invoice, error) {
	var inv *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != types.InvoiceStatusDraft {
			return ierr.NewError("only draft invoices can be sent").
				WithReportableDetails(map[string]any{
					"invoice_id": inv.ID,
					"status":     inv.Status,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		inv.Status = types.InvoiceStatusSent
		s.refreshPaidStatus(inv)
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
