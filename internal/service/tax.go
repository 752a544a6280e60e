package service

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/domain/taxrate"
	ierr "github.com/fitledger/fitledger/internal/errors"
	"github.com/fitledger/fitledger/internal/types"
	gocache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// TaxService manages tax rates and resolves percentages for invoice items.
type TaxService interface {
	CreateTaxRate(ctx context.Context, rate *taxrate.TaxRate) (*taxrate.TaxRate, error)
	GetTaxRate(ctx context.Context, id string) (*taxrate.TaxRate, error)
	ListTaxRates(ctx context.Context) ([]*taxrate.TaxRate, error)

	// Percentage resolves the percentage for a tax rate reference. A nil or
	// unknown reference means no tax applies and yields a nil percentage,
	// never an error.
	Percentage(ctx context.Context, taxRateID *string) (*decimal.Decimal, error)
}

type taxService struct {
	ServiceParams
	cache *gocache.Cache
}

func NewTaxService(params ServiceParams) TaxService {
	return &taxService{
		ServiceParams: params,
		cache:         gocache.New(5*time.Minute, 10*time.Minute),
	}
}

func (s *taxService) CreateTaxRate(ctx context.Context, rate *taxrate.TaxRate) (*taxrate.TaxRate, error) {
	if rate == nil {
		return nil, ierr.NewError("tax rate is required").
			Mark(ierr.ErrValidation)
	}
	if rate.ID == "" {
		rate.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TAX_RATE)
	}
	rate.BaseModel = types.GetDefaultBaseModel(ctx)

	if err := rate.Validate(); err != nil {
		return nil, err
	}
	if err := s.TaxRateRepo.Create(ctx, rate); err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *taxService) GetTaxRate(ctx context.Context, id string) (*taxrate.TaxRate, error) {
	return s.TaxRateRepo.Get(ctx, id)
}

func (s *taxService) ListTaxRates(ctx context.Context) ([]*taxrate.TaxRate, error) {
	return s.TaxRateRepo.List(ctx)
}

func (s *taxService) Percentage(ctx context.Context, taxRateID *string) (*decimal.Decimal, error) {
	if taxRateID == nil || *taxRateID == "" {
		return nil, nil
	}

	if cached, found := s.cache.Get(*taxRateID); found {
		return cached.(*decimal.Decimal), nil
	}

	rate, err := s.TaxRateRepo.Get(ctx, *taxRateID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("tax rate reference not found, treating as no tax",
				"tax_rate_id", *taxRateID,
			)
			return nil, nil
		}
		return nil, err
	}

	s.cache.Set(*taxRateID, rate.Percentage, gocache.DefaultExpiration)
	return rate.Percentage, nil
}
