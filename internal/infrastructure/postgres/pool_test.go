package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg := config.DBConfig{
		Host:     "db.local",
		Port:     5433,
		User:     "ledger",
		Password: "p@ss:word",
		DBName:   "stock",
		SSLMode:  "disable",
		MaxConns: 7,
	}

	pc, err := newPoolConfig(cfg, "stock-ledger-test")
	require.NoError(t, err)

	assert.EqualValues(t, 7, pc.MaxConns)
	assert.EqualValues(t, 1, pc.MinConns)
	assert.Equal(t, "db.local", pc.ConnConfig.Host)
	assert.EqualValues(t, 5433, pc.ConnConfig.Port)
	assert.Equal(t, "p@ss:word", pc.ConnConfig.Password)
	assert.Equal(t, "stock-ledger-test", pc.ConnConfig.RuntimeParams["application_name"])
	assert.NotNil(t, pc.AfterConnect)
	assert.NotNil(t, pc.ConnConfig.DialFunc)
}

func TestNewPoolConfig_DatabaseURLTienePrioridad(t *testing.T) {
	pc, err := newPoolConfig(config.DBConfig{
		DatabaseURL: "postgres://u:p@remote:6543/ledger?sslmode=disable",
		Host:        "ignored",
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "remote", pc.ConnConfig.Host)
	assert.Equal(t, "ledger", pc.ConnConfig.Database)
	assert.EqualValues(t, defaultMaxConns, pc.MaxConns)
}
