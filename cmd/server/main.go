package main

import (
	"context"
	"flag"
	"time"

	"github.com/fitledger/fitledger/internal/config"
	"github.com/fitledger/fitledger/internal/logger"
	"github.com/fitledger/fitledger/internal/postgres"
	"github.com/fitledger/fitledger/internal/repository"
	"github.com/fitledger/fitledger/internal/scheduler"
	"github.com/fitledger/fitledger/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func init() {
	// Billing arithmetic works on UTC civil dates everywhere
	time.Local = time.UTC
}

func main() {
	runBilling := flag.Bool("run-monthly-billing", false, "run the monthly billing job once and exit")
	runCredits := flag.Bool("run-monthly-credits", false, "run the monthly credit grant once and exit")
	flag.Parse()

	// Missing .env is fine; config falls back to env vars and defaults
	_ = godotenv.Load()

	runOnce := *runBilling || *runCredits

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			logger.NewLogger,

			postgres.NewDB,
			postgres.NewClient,
			provideClient,

			repository.NewTaxRateRepository,
			repository.NewCustomerRepository,
			repository.NewSubscriptionRepository,
			repository.NewPlanRepository,
			repository.NewPauseRepository,
			repository.NewAltPriceRepository,
			repository.NewCreditRepository,
			repository.NewInvoiceRepository,
			repository.NewInvoiceGroupRepository,
			repository.NewPaymentRepository,

			service.NewServiceParams,
			service.NewTaxService,
			service.NewInvoiceService,
			service.NewBillingService,
			service.NewCreditService,

			scheduler.New,
		),
		fx.Invoke(func(lc fx.Lifecycle, sched *scheduler.Scheduler, shutdowner fx.Shutdowner, log *logger.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if runOnce {
						go func() {
							if *runBilling {
								sched.RunMonthlyBilling(context.Background())
							}
							if *runCredits {
								sched.RunMonthlyCredits(context.Background())
							}
							_ = shutdowner.Shutdown()
						}()
						return nil
					}
					return sched.Start()
				},
				OnStop: func(ctx context.Context) error {
					if !runOnce {
						sched.Stop()
					}
					return nil
				},
			})
		}),
	)
	app.Run()
}

func provideClient(client *postgres.Client) postgres.IClient {
	return client
}
