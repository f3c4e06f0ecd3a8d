package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/confstore/pkg/keys"
	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/store/postgres"
	"github.com/platinummonkey/confstore/pkg/store/rediscache"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Postgres postgres.Config
	Redis    RedisConfig
	Keys     KeysConfig
	LogLevel observability.LogLevel
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RedisConfig holds the read cache settings. Enabled is false when no URL
// is configured; the store then runs without the cache layer.
type RedisConfig struct {
	URL   string
	Cache rediscache.Config
}

// Enabled reports whether the redis read cache should be wired in
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// KeysConfig holds the verification key provider settings
type KeysConfig struct {
	ServiceURL   string
	FetchTimeout time.Duration
	Cache        keys.CacheConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:   loadServerConfig(),
		Postgres: loadPostgresConfig(),
		Redis:    loadRedisConfig(),
		Keys:     loadKeysConfig(),
		LogLevel: parseLogLevel(getEnv("CONFSTORE_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CONFSTORE_HOST", "0.0.0.0"),
		Port:            getEnv("CONFSTORE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CONFSTORE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CONFSTORE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CONFSTORE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CONFSTORE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CONFSTORE_HEALTH_PORT", "9090"),
	}
}

func loadPostgresConfig() postgres.Config {
	cfg := postgres.DefaultConfig()
	cfg.URL = getEnv("CONFSTORE_POSTGRES_URL", "")

	if maxConns := getEnvInt("CONFSTORE_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns := getEnvInt("CONFSTORE_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.MinConns = minConns
	}
	if timeout := getEnvDuration("CONFSTORE_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.Timeout = timeout
	}
	if quota := getEnvInt("CONFSTORE_BUCKET_QUOTA_MB", 0); quota > 0 {
		cfg.BucketQuotaMB = quota
	}
	if replicas := getEnvInt("CONFSTORE_BUCKET_REPLICAS", 0); replicas > 0 {
		cfg.BucketReplicas = replicas
	}
	return cfg
}

func loadRedisConfig() RedisConfig {
	cache := rediscache.DefaultCacheConfig()
	if ttl := getEnvDuration("CONFSTORE_REDIS_VERSIONED_TTL", 0); ttl > 0 {
		cache.VersionedTTL = ttl
	}
	if ttl := getEnvDuration("CONFSTORE_REDIS_LATEST_TTL", 0); ttl > 0 {
		cache.LatestTTL = ttl
	}
	return RedisConfig{
		URL:   getEnv("CONFSTORE_REDIS_URL", ""),
		Cache: cache,
	}
}

func loadKeysConfig() KeysConfig {
	cache := keys.CacheConfig{
		Size:         getEnvInt("CONFSTORE_KEY_CACHE_SIZE", keys.DefaultCacheSize),
		Expiry:       getEnvDuration("CONFSTORE_KEY_CACHE_EXPIRY", keys.DefaultExpiry),
		RefreshAfter: getEnvDuration("CONFSTORE_KEY_CACHE_REFRESH", keys.DefaultRefreshAfter),
	}
	return KeysConfig{
		ServiceURL:   getEnv("CONFSTORE_KEY_SERVICE_URL", ""),
		FetchTimeout: getEnvDuration("CONFSTORE_KEY_FETCH_TIMEOUT", 3*time.Second),
		Cache:        cache,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Keys.ServiceURL == "" {
		return fmt.Errorf("key service URL is required")
	}
	if c.Keys.Cache.RefreshAfter >= c.Keys.Cache.Expiry {
		return fmt.Errorf("key cache refresh interval must be shorter than the expiry")
	}
	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
