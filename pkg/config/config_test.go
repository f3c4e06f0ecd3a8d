package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/confstore/pkg/observability"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFSTORE_POSTGRES_URL", "postgres://localhost:5432/confstore")
	t.Setenv("CONFSTORE_KEY_SERVICE_URL", "http://keys.internal:8080")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, 20, cfg.Postgres.MaxConns)
	assert.Equal(t, 100, cfg.Postgres.BucketQuotaMB)

	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, time.Hour, cfg.Redis.Cache.VersionedTTL)

	assert.Equal(t, 3*time.Second, cfg.Keys.FetchTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Keys.Cache.Expiry)
	assert.Equal(t, time.Minute, cfg.Keys.Cache.RefreshAfter)

	assert.Equal(t, observability.InfoLevel, cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFSTORE_PORT", "8888")
	t.Setenv("CONFSTORE_POSTGRES_MAX_CONNS", "50")
	t.Setenv("CONFSTORE_BUCKET_QUOTA_MB", "500")
	t.Setenv("CONFSTORE_REDIS_URL", "redis://localhost:6379")
	t.Setenv("CONFSTORE_REDIS_LATEST_TTL", "5s")
	t.Setenv("CONFSTORE_KEY_CACHE_REFRESH", "30s")
	t.Setenv("CONFSTORE_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Postgres.MaxConns)
	assert.Equal(t, 500, cfg.Postgres.BucketQuotaMB)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Redis.Cache.LatestTTL)
	assert.Equal(t, 30*time.Second, cfg.Keys.Cache.RefreshAfter)
	assert.Equal(t, observability.DebugLevel, cfg.LogLevel)
}

func TestLoadConfigMissingPostgresURL(t *testing.T) {
	t.Setenv("CONFSTORE_KEY_SERVICE_URL", "http://keys.internal:8080")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres URL is required")
}

func TestLoadConfigMissingKeyServiceURL(t *testing.T) {
	t.Setenv("CONFSTORE_POSTGRES_URL", "postgres://localhost:5432/confstore")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key service URL is required")
}

func TestLoadConfigPortsMustDiffer(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFSTORE_PORT", "9090")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestLoadConfigRefreshMustBeShorterThanExpiry(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CONFSTORE_KEY_CACHE_REFRESH", "10m")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh interval must be shorter")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, observability.WarnLevel, parseLogLevel("WARNING"))
	assert.Equal(t, observability.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("unknown"))
}
