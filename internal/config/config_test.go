package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcore/internal/config/configs"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFiles()
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
	assert.Equal(t, configs.StorePostgres, cfg.Store.Driver)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, time.Minute, cfg.Redis.CriteriaTTL)
	assert.True(t, cfg.Payment.Sandbox)
	assert.Equal(t, uint(3), cfg.Payment.MaxAttempts)
	assert.Equal(t, "localhost:5432", cfg.Psql.Addr.Host)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")
	t.Setenv("REDIS_CRITERIA_TTL", "30s")
	t.Setenv("PAYMENT_SANDBOX", "false")
	t.Setenv("PAYMENT_BASE_URL", "https://pay.example.com/api/")
	t.Setenv("PAYMENT_RATE", "2.5")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := LoadFiles()
	require.NoError(t, err)
	assert.Equal(t, configs.StoreMemory, cfg.Store.Driver)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.CriteriaTTL)
	assert.Equal(t, "https://pay.example.com/api/", cfg.Payment.BaseURL)
	assert.InDelta(t, 2.5, cfg.Payment.Rate, 1e-9)
	assert.Equal(t, "json", cfg.Log.SlogFormat())
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_PORT=9090\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")
	// registered so the variable set by the file is removed after the test
	t.Setenv("HTTP_PORT", "")
	require.NoError(t, os.Unsetenv("HTTP_PORT"))

	cfg, err := LoadFiles(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(9090), cfg.HTTP.Port)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := LoadFiles()
	assert.ErrorContains(t, err, "unknown store driver")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("PAYMENT_SANDBOX", "false")
	_, err = LoadFiles()
	assert.ErrorContains(t, err, "PAYMENT_BASE_URL")
}
