package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitledger/fitledger/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Billing    BillingConfig    `validate:"required"`
	Scheduler  SchedulerConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int
}

// BillingConfig carries the studio-level billing policies that are not part
// of any single invoice group or plan.
type BillingConfig struct {
	// FirstInvoiceTwoTerms bills a new subscription's first and second month
	// together on the first invoice
	FirstInvoiceTwoTerms bool
	// MaxConcurrentSubscriptions bounds the monthly billing worker pool
	MaxConcurrentSubscriptions int
	// SubscriptionInvoiceGroupID is the invoice group subscription invoices
	// are numbered under
	SubscriptionInvoiceGroupID string
}

type SchedulerConfig struct {
	Enabled bool
	// MonthlyBillingSpec is a cron expression; defaults to the first day of
	// the month at 04:00
	MonthlyBillingSpec string
	// MonthlyCreditsSpec is a cron expression for the credit grant job
	MonthlyCreditsSpec string
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fitledger")

	v.SetEnvPrefix("FITLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("billing.maxconcurrentsubscriptions", 4)
	v.SetDefault("postgres.maxopenconns", 10)
	v.SetDefault("postgres.maxidleconns", 5)
	v.SetDefault("postgres.connmaxlifetimeminutes", 30)
	v.SetDefault("scheduler.monthlybillingspec", "0 4 1 * *")
	v.SetDefault("scheduler.monthlycreditsspec", "30 4 1 * *")

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Postgres: PostgresConfig{
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Billing: BillingConfig{
			FirstInvoiceTwoTerms:       true,
			MaxConcurrentSubscriptions: 4,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User, c.Password, c.DBName, c.Host, c.Port, c.SSLMode,
	)
}
