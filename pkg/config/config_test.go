package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "FV", cfg.POS.InvoicePrefix)
	assert.Equal(t, "NC", cfg.POS.CreditNotePrefix)
	assert.Equal(t, 30, cfg.POS.PaymentTermsDays)
	assert.Equal(t, 30, cfg.POS.ReceivableDays)
	assert.Equal(t, config.ReceivableModeTransactional, cfg.POS.ReceivableMode)
	assert.Equal(t, 3, cfg.POS.ReceivableAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.POS.ReceivableDelay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Redis.Required)
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("POS_RECEIVABLE_MODE", "TRIGGER")
	t.Setenv("POS_RECEIVABLE_DELAY_MS", "50")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_REQUIRED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.ReceivableModeTrigger, cfg.POS.ReceivableMode)
	assert.Equal(t, 50*time.Millisecond, cfg.POS.ReceivableDelay)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.True(t, cfg.Redis.Required)
}

func TestLoad_ModoInvalido(t *testing.T) {
	t.Setenv("POS_RECEIVABLE_MODE", "eventual")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POS_RECEIVABLE_MODE")
}

func TestDBConfig_DSN(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss", DBName: "pos", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss@db:5432/pos?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
