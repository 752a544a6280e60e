package scheduler

import (
	"context"
	"time"

	"github.com/fitledger/fitledger/internal/config"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/service"
	"github.com/fitledger/fitledger/internal/types"
	"github.com/robfig/cron/v3"
)

// Scheduler runs the recurring billing jobs: subscription invoices and class
// credit grants for the current month.
type Scheduler struct {
	cron           *cron.Cron
	config         *config.Configuration
	logger         *logger.Logger
	billingService service.BillingService
	creditService  service.CreditService
}

func New(
	cfg *config.Configuration,
	log *logger.Logger,
	billingService service.BillingService,
	creditService service.CreditService,
) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		config:         cfg,
		logger:         log,
		billingService: billingService,
		creditService:  creditService,
	}
}

// Start registers the cron jobs and begins running them. No-op when the
// scheduler is disabled in config or the deployment mode does not run
// scheduled jobs.
func (s *Scheduler) Start() error {
	if !s.config.Scheduler.Enabled || s.config.Deployment.Mode == types.ModeServer {
		s.logger.Infow("scheduler disabled, not starting jobs",
			"enabled", s.config.Scheduler.Enabled,
			"mode", s.config.Deployment.Mode,
		)
		return nil
	}

	_, err := s.cron.AddFunc(s.config.Scheduler.MonthlyBillingSpec, func() {
		s.RunMonthlyBilling(context.Background())
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(s.config.Scheduler.MonthlyCreditsSpec, func() {
		s.RunMonthlyCredits(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Infow("scheduler started",
		"billing_spec", s.config.Scheduler.MonthlyBillingSpec,
		"credits_spec", s.config.Scheduler.MonthlyCreditsSpec,
	)
	return nil
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Infow("scheduler stopped")
}

// RunMonthlyBilling bills the current month. Exposed so the job can also be
// triggered once from the command line.
func (s *Scheduler) RunMonthlyBilling(ctx context.Context) {
	ctx = s.jobContext(ctx)
	now := time.Now().UTC()

	summary, err := s.billingService.RunMonthlyBilling(ctx, now.Year(), now.Month())
	if err != nil {
		s.logger.Errorw("monthly billing job failed",
			"error", err,
		)
		return
	}
	s.logger.Infow("monthly billing job done",
		"invoiced", summary.Invoiced,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
}

// RunMonthlyCredits grants this month's class credits.
func (s *Scheduler) RunMonthlyCredits(ctx context.Context) {
	ctx = s.jobContext(ctx)
	now := time.Now().UTC()

	summary, err := s.creditService.GrantMonthlyCredits(ctx, now.Year(), now.Month())
	if err != nil {
		s.logger.Errorw("monthly credits job failed",
			"error", err,
		)
		return
	}
	s.logger.Infow("monthly credits job done",
		"granted", summary.Granted,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
}

// jobContext stamps scheduled work with the system user so audit fields are
// never empty.
func (s *Scheduler) jobContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
