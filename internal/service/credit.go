package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fitledger/fitledger/internal/domain/credit"
	"github.com/fitledger/fitledger/internal/domain/proration"
	"github.com/fitledger/fitledger/internal/domain/subscription"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// CreditMutationRequest adds or spends class credits on a subscription.
type CreditMutationRequest struct {
	SubscriptionID    string
	Amount            decimal.Decimal
	Description       string
	ClassAttendanceID *string
	MutatedAt         time.Time
}

// CreditGrantSummary aggregates a monthly credit grant run.
type CreditGrantSummary struct {
	Year    int
	Month   time.Month
	Granted int
	Skipped int
	Failed  int
}

// CreditService keeps the class-credit ledger per subscription and gates
// check-ins on the balance.
type CreditService interface {
	// Balance is sum(add) - sum(sub), rounded to one decimal place.
	Balance(ctx context.Context, subscriptionID string) (decimal.Decimal, error)

	AddCredits(ctx context.Context, req CreditMutationRequest) (*credit.Mutation, error)
	SubtractCredits(ctx context.Context, req CreditMutationRequest) (*credit.Mutation, error)

	// CanCheckIn reports whether a class check-in is allowed. The balance may
	// run negative down to the plan's reconciliation floor; at or below the
	// floor the check-in is refused unless override is set.
	CanCheckIn(ctx context.Context, subscriptionID string, override bool) (bool, error)

	// CheckIn spends one credit for a class attendance after passing the gate.
	CheckIn(ctx context.Context, subscriptionID string, classAttendanceID string, override bool) (*credit.Mutation, error)

	// GrantMonthlyCredits grants each active subscription its monthly class
	// allowance, prorated by active days. Idempotent per month.
	GrantMonthlyCredits(ctx context.Context, year int, month time.Month) (*CreditGrantSummary, error)
}

type creditService struct {
	ServiceParams
}

func NewCreditService(params ServiceParams) CreditService {
	return &creditService{ServiceParams: params}
}

func (s *creditService) Balance(ctx context.Context, subscriptionID string) (decimal.Decimal, error) {
	added, err := s.CreditRepo.SumAmount(ctx, subscriptionID, types.CreditMutationAdd)
	if err != nil {
		return decimal.Zero, err
	}
	spent, err := s.CreditRepo.SumAmount(ctx, subscriptionID, types.CreditMutationSub)
	if err != nil {
		return decimal.Zero, err
	}
	return types.RoundCredits(added.Sub(spent)), nil
}

func (s *creditService) AddCredits(ctx context.Context, req CreditMutationRequest) (*credit.Mutation, error) {
	return s.createMutation(ctx, types.CreditMutationAdd, req)
}

func (s *creditService) SubtractCredits(ctx context.Context, req CreditMutationRequest) (*credit.Mutation, error) {
	return s.createMutation(ctx, types.CreditMutationSub, req)
}

func (s *creditService) createMutation(ctx context.Context, mutationType types.CreditMutationType, req CreditMutationRequest) (*credit.Mutation, error) {
	mutatedAt := req.MutatedAt
	if mutatedAt.IsZero() {
		mutatedAt = time.Now().UTC()
	}

	mutation := &credit.Mutation{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CREDIT_MUTATION),
		SubscriptionID:    req.SubscriptionID,
		Type:              mutationType,
		Amount:            req.Amount,
		Description:       req.Description,
		ClassAttendanceID: req.ClassAttendanceID,
		MutatedAt:         mutatedAt,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
	if err := mutation.Validate(); err != nil {
		return nil, err
	}
	if err := s.CreditRepo.Create(ctx, mutation); err != nil {
		return nil, err
	}
	return mutation, nil
}

func (s *creditService) CanCheckIn(ctx context.Context, subscriptionID string, override bool) (bool, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return false, err
	}
	plan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return false, err
	}

	if plan.Unlimited {
		return true, nil
	}
	if override {
		return true, nil
	}

	balance, err := s.Balance(ctx, subscriptionID)
	if err != nil {
		return false, err
	}

	floor := decimal.NewFromInt(int64(plan.ReconciliationClasses)).Neg()
	return balance.GreaterThan(floor), nil
}

func (s *creditService) CheckIn(ctx context.Context, subscriptionID string, classAttendanceID string, override bool) (*credit.Mutation, error) {
	if classAttendanceID == "" {
		return nil, ierr.NewError("class attendance id is required").
			Mark(ierr.ErrValidation)
	}

	allowed, err := s.CanCheckIn(ctx, subscriptionID, override)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ierr.NewError("class credit balance is exhausted").
			WithHint("The subscription has reached its reconciliation floor").
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	plan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	// Unlimited plans do not track credits; the check-in succeeds without a
	// ledger entry.
	if plan.Unlimited {
		return nil, nil
	}

	return s.SubtractCredits(ctx, CreditMutationRequest{
		SubscriptionID:    subscriptionID,
		Amount:            decimal.NewFromInt(1),
		Description:       "Class check-in",
		ClassAttendanceID: &classAttendanceID,
	})
}

func (s *creditService) GrantMonthlyCredits(ctx context.Context, year int, month time.Month) (*CreditGrantSummary, error) {
	periodStart := types.MonthStart(year, month)
	periodEnd := types.MonthEnd(year, month)

	subs, err := s.SubRepo.ListActiveInPeriod(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	summary := &CreditGrantSummary{Year: year, Month: month}
	var mu sync.Mutex

	workers := s.Config.Billing.MaxConcurrentSubscriptions
	if workers < 1 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers)
	for _, sub := range subs {
		sub := sub
		p.Go(func() {
			granted, err := s.grantForSubscription(ctx, sub, year, month)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				s.Logger.Errorw("granting monthly credits failed",
					"subscription_id", sub.ID,
					"year", year,
					"month", month,
					"error", err,
				)
			case granted:
				summary.Granted++
			default:
				summary.Skipped++
			}
		})
	}
	p.Wait()

	s.Logger.Infow("monthly credit grant finished",
		"year", year,
		"month", month,
		"granted", summary.Granted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (s *creditService) grantForSubscription(ctx context.Context, sub *subscription.Subscription, year int, month time.Month) (bool, error) {
	plan, err := s.PlanRepo.Get(ctx, sub.PlanID)
	if err != nil {
		return false, err
	}
	if plan.Unlimited || plan.Classes == nil || *plan.Classes <= 0 {
		return false, nil
	}

	exists, err := s.CreditRepo.HasAddMutationInMonth(ctx, sub.ID, year, month)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	amount := monthlyCreditAmount(sub, plan, year, month)
	if !amount.IsPositive() {
		return false, nil
	}

	_, err = s.AddCredits(ctx, CreditMutationRequest{
		SubscriptionID: sub.ID,
		Amount:         amount,
		Description:    fmt.Sprintf("Monthly class credits %d-%02d", year, int(month)),
		MutatedAt:      types.MonthStart(year, month),
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// monthlyCreditAmount prorates the plan's class allowance by the days the
// subscription is active in the month. Weekly allowances scale by active
// days over seven, monthly allowances by the active fraction of the month.
func monthlyCreditAmount(sub *subscription.Subscription, plan *subscription.Plan, year int, month time.Month) decimal.Decimal {
	monthPeriod := proration.MonthPeriod(year, month)

	activeStart := monthPeriod.Start
	if types.DateOnly(sub.StartDate).After(activeStart) {
		activeStart = types.DateOnly(sub.StartDate)
	}
	activeEnd := monthPeriod.End
	if sub.EndDate != nil && types.DateOnly(*sub.EndDate).Before(activeEnd) {
		activeEnd = types.DateOnly(*sub.EndDate)
	}
	if activeEnd.Before(activeStart) {
		return decimal.Zero
	}

	activeDays := decimal.NewFromInt(int64(types.DaysInclusive(activeStart, activeEnd)))
	classes := decimal.NewFromInt(int64(*plan.Classes))

	var amount decimal.Decimal
	if plan.Unit == types.SubscriptionUnitWeek {
		amount = classes.Mul(activeDays).Div(decimal.NewFromInt(7))
	} else {
		monthDays := decimal.NewFromInt(int64(monthPeriod.Days()))
		amount = classes.Mul(activeDays).Div(monthDays)
	}
	return types.RoundCredits(amount)
}
