package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultConfigConnectionPool(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, 10, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, 5, cfg.Postgres.MaxIdleConns)
	assert.Equal(t, 30, cfg.Postgres.ConnMaxLifetimeMinutes)
}

func TestPostgresConfigDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "fitledger",
		Password: "secret",
		DBName:   "fitledger",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"user=fitledger password=secret dbname=fitledger host=localhost port=5432 sslmode=disable",
		cfg.GetDSN(),
	)
}
