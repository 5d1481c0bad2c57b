package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LEDGER_BATCH_PREFIX", "LOT")
	t.Setenv("LEDGER_LOCK_TTL_SECONDS", "3")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "LOT", cfg.Ledger.BatchPrefix)
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTTL)
	assert.Equal(t, 12, cfg.Ledger.DefaultExpiryMonths)
	assert.Equal(t, 5*time.Minute, cfg.Ledger.ReceivingStaleAfter)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_PuertoInvalido(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_RecepcionRetomableAntesQueElLock(t *testing.T) {
	t.Setenv("LEDGER_LOCK_TTL_SECONDS", "30")
	t.Setenv("LEDGER_RECEIVING_STALE_SECONDS", "20")
	_, err := config.Load()
	assert.ErrorContains(t, err, "LEDGER_RECEIVING_STALE_SECONDS")
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "ledger", SSLMode: "disable"}
	assert.True(t, c.Enabled())
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/ledger?sslmode=disable", c.DSN())
	assert.False(t, config.DBConfig{}.Enabled())
}
