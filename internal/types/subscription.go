package types

import (
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionUnit is the period a subscription plan's class allowance covers
type SubscriptionUnit string

const (
	SubscriptionUnitWeek  SubscriptionUnit = "week"
	SubscriptionUnitMonth SubscriptionUnit = "month"
)

func (u SubscriptionUnit) Validate() error {
	allowed := []SubscriptionUnit{
		SubscriptionUnitWeek,
		SubscriptionUnitMonth,
	}
	if !lo.Contains(allowed, u) {
		return ierr.NewError("invalid subscription unit").
			WithHint("Please provide a valid subscription unit").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"unit":    u,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreditMutationType distinguishes credit grants from credit spends
type CreditMutationType string

const (
	CreditMutationAdd CreditMutationType = "add"
	CreditMutationSub CreditMutationType = "sub"
)

func (t CreditMutationType) Validate() error {
	allowed := []CreditMutationType{
		CreditMutationAdd,
		CreditMutationSub,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid credit mutation type").
			WithHint("Credit mutation type has to be 'add' or 'sub'").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"type":    t,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
