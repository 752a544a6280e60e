package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fitledger/fitledger/internal/domain/proration"
	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// SkipReason explains why a subscription month produced no new invoice.
type SkipReason string

const (
	SkipReasonAlreadyInvoiced SkipReason = "already_invoiced"
	SkipReasonNotActive       SkipReason = "not_active"
	SkipReasonPaused          SkipReason = "paused"
	SkipReasonAltPriceZero    SkipReason = "alt_price_zero"
	SkipReasonNoPrice         SkipReason = "no_price"
)

// BillMonthResult is the outcome of billing one subscription month. A skip is
// not an error: the month is settled without a new invoice.
type BillMonthResult struct {
	InvoiceID  string
	Skipped    bool
	SkipReason SkipReason
}

// MonthlyBillingSummary aggregates a whole billing run.
type MonthlyBillingSummary struct {
	Year     int
	Month    time.Month
	Invoiced int
	Skipped  int
	Failed   int

	// FailedSubscriptionIDs lists the subscriptions whose billing failed
	// after retries; the rest of the run is unaffected
	FailedSubscriptionIDs []string
}

// BillingService turns subscription months into invoices.
type BillingService interface {
	// BillMonth creates the invoice for one subscription month. Calling it
	// again for the same month returns the existing invoice.
	BillMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*BillMonthResult, error)

	// RunMonthlyBilling bills every subscription active in the month,
	// isolating per-subscription failures.
	RunMonthlyBilling(ctx context.Context, year int, month time.Month) (*MonthlyBillingSummary, error)
}

type billingService struct {
	ServiceParams
	invoiceService InvoiceService
}

func NewBillingService(params ServiceParams, invoiceService InvoiceService) BillingService {
	return &billingService{
		ServiceParams:  params,
		invoiceService: invoiceService,
	}
}

func (s *billingService) BillMonth(ctx context.Context, subscriptionID string, year int, month time.Month) (*BillMonthResult, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	plan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	periodStart := types.MonthStart(year, month)
	periodEnd := types.MonthEnd(year, month)

	// One invoice per subscription month, ever. The existing invoice settles
	// the month regardless of its current status.
	existing, err := s.InvoiceRepo.GetBySubscriptionMonth(ctx, sub.ID, year, month)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return &BillMonthResult{
			InvoiceID:  existing.ID,
			Skipped:    true,
			SkipReason: SkipReasonAlreadyInvoiced,
		}, nil
	}

	if !sub.ActiveInPeriod(periodStart, periodEnd) {
		return &BillMonthResult{Skipped: true, SkipReason: SkipReasonNotActive}, nil
	}

	var pause *subscription.Pause
	overlapping, err := s.PauseRepo.GetOverlapping(ctx, sub.ID, periodStart, periodEnd)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if overlapping != nil {
		if overlapping.Covers(periodStart, periodEnd) {
			return &BillMonthResult{Skipped: true, SkipReason: SkipReasonPaused}, nil
		}
		pause = overlapping
	}

	altPrice, err := s.AltPriceRepo.GetForMonth(ctx, sub.ID, year, month)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if altPrice != nil && altPrice.SuppressesInvoicing() {
		return &BillMonthResult{Skipped: true, SkipReason: SkipReasonAltPriceZero}, nil
	}

	var result *BillMonthResult
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		result, err = s.createSubscriptionInvoice(ctx, sub, plan, altPrice, pause, year, month)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *billingService) createSubscriptionInvoice(
	ctx context.Context,
	sub *subscription.Subscription,
	plan *subscription.Plan,
	altPrice *subscription.AltPrice,
	pause *subscription.Pause,
	year int,
	month time.Month,
) (*BillMonthResult, error) {
	periodStart := types.MonthStart(year, month)

	// Resolve the subscription line before opening an invoice so a priceless
	// plan or a zero-amount month never leaves an empty invoice behind.
	line, skip, err := s.subscriptionLine(sub, plan, altPrice, pause, year, month)
	if err != nil {
		return nil, err
	}
	if skip != "" {
		return &BillMonthResult{Skipped: true, SkipReason: skip}, nil
	}

	// The count taken before creation detects the first invoice ever for the
	// two-term policy.
	invoicedBefore, err := s.InvoiceRepo.CountForSubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoiceService.CreateInvoice(ctx, CreateInvoiceRequest{
		GroupID:           s.Config.Billing.SubscriptionInvoiceGroupID,
		Status:            types.InvoiceStatusSent,
		CustomerID:        &sub.CustomerID,
		SubscriptionID:    &sub.ID,
		SubscriptionYear:  &year,
		SubscriptionMonth: &month,
		PaymentMethodID:   sub.PaymentMethodID,
		Description:       fmt.Sprintf("Subscription %d-%02d", year, month),
		DateCreated:       types.DateOnly(time.Now().UTC()),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.invoiceService.AddItem(ctx, inv.ID, *line); err != nil {
		return nil, err
	}

	if s.Config.Billing.FirstInvoiceTwoTerms && invoicedBefore == 0 {
		if err := s.addSecondTerm(ctx, inv.ID, sub, plan, year, month); err != nil {
			return nil, err
		}
	}

	if plan.RegistrationFee.IsPositive() && !sub.RegistrationFeePaid {
		regLink := types.InvoiceItemLinkSubscription
		_, err := s.invoiceService.AddItem(ctx, inv.ID, AddItemRequest{
			ProductName: "Registration fee",
			Description: plan.Name,
			Price:       plan.RegistrationFee,
			TaxRateID:   s.taxRateForMonth(plan, periodStart),
			LinkType:    &regLink,
			LinkID:      &sub.ID,
		})
		if err != nil {
			return nil, err
		}

		sub.RegistrationFeePaid = true
		if err := s.SubRepo.Update(ctx, sub); err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("billed subscription month",
		"subscription_id", sub.ID,
		"invoice_id", inv.ID,
		"year", year,
		"month", month,
	)
	return &BillMonthResult{InvoiceID: inv.ID}, nil
}

// subscriptionLine prices the month: a nonzero alt price wins over the
// prorated plan price. A non-empty SkipReason means the month must not be
// invoiced: the plan has no nonzero price for it, or proration left no
// billable days.
func (s *billingService) subscriptionLine(
	sub *subscription.Subscription,
	plan *subscription.Plan,
	altPrice *subscription.AltPrice,
	pause *subscription.Pause,
	year int,
	month time.Month,
) (*AddItemRequest, SkipReason, error) {
	periodStart := types.MonthStart(year, month)
	linkType := types.InvoiceItemLinkSubscription

	if altPrice != nil {
		description := altPrice.Description
		if description == "" {
			description = fmt.Sprintf("%s %s - %s",
				plan.Name,
				types.FormatDate(periodStart),
				types.FormatDate(types.MonthEnd(year, month)),
			)
		}
		return &AddItemRequest{
			ProductName: plan.Name,
			Description: description,
			Price:       altPrice.Amount,
			TaxRateID:   s.taxRateForMonth(plan, periodStart),
			LinkType:    &linkType,
			LinkID:      &sub.ID,
		}, "", nil
	}

	planPrice := plan.PriceOnDate(periodStart)
	if planPrice == nil || planPrice.Price.IsZero() {
		return nil, SkipReasonNoPrice, nil
	}

	var pauseInterval *proration.PauseInterval
	if pause != nil {
		pauseInterval = &proration.PauseInterval{
			Start: pause.StartDate,
			End:   pause.EndDate,
		}
	}

	priced, err := s.ProrationCalculator.PriceForMonth(proration.PriceForMonthParams{
		PlanName:          plan.Name,
		SubscriptionStart: sub.StartDate,
		SubscriptionEnd:   sub.EndDate,
		BasePrice:         planPrice.Price,
		Pause:             pauseInterval,
		Year:              year,
		Month:             month,
	})
	if err != nil {
		return nil, "", err
	}

	// A pause can cover the truncated period without covering the whole
	// month; the amount then clamps to zero and nothing is billed.
	if priced.Amount.IsZero() {
		return nil, SkipReasonPaused, nil
	}

	return &AddItemRequest{
		ProductName: plan.Name,
		Description: priced.Description,
		Price:       priced.Amount,
		TaxRateID:   planPrice.TaxRateID,
		LinkType:    &linkType,
		LinkID:      &sub.ID,
	}, "", nil
}

// addSecondTerm puts next month on the first invoice at the full plan price
// and plants a zero alt price so the regular run skips it.
func (s *billingService) addSecondTerm(ctx context.Context, invoiceID string, sub *subscription.Subscription, plan *subscription.Plan, year int, month time.Month) error {
	nextStart := types.MonthStart(year, month).AddDate(0, 1, 0)
	nextYear, nextMonth := nextStart.Year(), nextStart.Month()
	nextEnd := types.MonthEnd(nextYear, nextMonth)

	if !sub.ActiveInPeriod(nextStart, nextEnd) {
		return nil
	}

	planPrice := plan.PriceOnDate(nextStart)
	if planPrice == nil || planPrice.Price.IsZero() {
		return nil
	}

	linkType := types.InvoiceItemLinkSubscription
	line := AddItemRequest{
		ProductName: plan.Name,
		Description: fmt.Sprintf("%s %s - %s",
			plan.Name,
			types.FormatDate(nextStart),
			types.FormatDate(nextEnd),
		),
		Price:     planPrice.Price,
		TaxRateID: planPrice.TaxRateID,
		LinkType:  &linkType,
		LinkID:    &sub.ID,
	}

	if _, err := s.invoiceService.AddItem(ctx, invoiceID, line); err != nil {
		return err
	}

	suppression := &subscription.AltPrice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ALT_PRICE),
		SubscriptionID: sub.ID,
		Year:           nextYear,
		Month:          nextMonth,
		Amount:         decimal.Zero,
		Description:    "Billed with first invoice",
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	return s.AltPriceRepo.Create(ctx, suppression)
}

func (s *billingService) taxRateForMonth(plan *subscription.Plan, date time.Time) *string {
	if price := plan.PriceOnDate(date); price != nil {
		return price.TaxRateID
	}
	return nil
}

func (s *billingService) RunMonthlyBilling(ctx context.Context, year int, month time.Month) (*MonthlyBillingSummary, error) {
	periodStart := types.MonthStart(year, month)
	periodEnd := types.MonthEnd(year, month)

	subs, err := s.SubRepo.ListActiveInPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	summary := &MonthlyBillingSummary{Year: year, Month: month}
	var mu sync.Mutex

	workers := s.Config.Billing.MaxConcurrentSubscriptions
	if workers < 1 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, sub := range subs {
		sub := sub
		p.Go(func() {
			result, err := s.billWithRetry(ctx, sub.ID, year, month)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				summary.FailedSubscriptionIDs = append(summary.FailedSubscriptionIDs, sub.ID)
				s.Logger.Errorw("billing subscription month failed",
					"subscription_id", sub.ID,
					"year", year,
					"month", month,
					"error", err,
				)
			case result.Skipped:
				summary.Skipped++
			default:
				summary.Invoiced++
			}
		})
	}
	p.Wait()

	s.Logger.Infow("monthly billing run finished",
		"year", year,
		"month", month,
		"invoiced", summary.Invoiced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// billWithRetry retries transient failures for one subscription; validation
// errors are terminal.
func (s *billingService) billWithRetry(ctx context.Context, subscriptionID string, year int, month time.Month) (*BillMonthResult, error) {
	var result *BillMonthResult

	operation := func() error {
		var err error
		result, err = s.BillMonth(ctx, subscriptionID, year, month)
		if err != nil {
			if ierr.IsValidation(err) || ierr.IsInvalidOperation(err) || ierr.IsNotFound(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return result, nil
}
