// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Score store backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ScoreBackend selects the view score store: redis or memory.
	ScoreBackend string `koanf:"score_backend"`

	// RedisAddr, RedisPassword and RedisDB address the redis score store.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Redis connection timeouts. Read and write timeouts only apply to
	// calls without a context deadline; store_timeout_ms bounds the rest.
	RedisDialTimeoutMS  int `koanf:"redis_dial_timeout_ms"`
	RedisReadTimeoutMS  int `koanf:"redis_read_timeout_ms"`
	RedisWriteTimeoutMS int `koanf:"redis_write_timeout_ms"`

	// ScoreKey is the sorted set holding per-item view counts.
	ScoreKey string `koanf:"score_key"`

	// CatalogPath is the SQLite catalog file.
	CatalogPath string `koanf:"catalog_path"`

	// StoreTimeoutMS bounds each score store and catalog call.
	StoreTimeoutMS int `koanf:"store_timeout_ms"`

	// DefaultHotLimit is used when GET /hot has no limit.
	DefaultHotLimit int `koanf:"default_hot_limit"`

	// MaxHotLimit caps GET /hot?limit.
	MaxHotLimit int `koanf:"max_hot_limit"`

	// SeedItems inserts that many placeholder items into an empty catalog
	// at startup. Zero disables seeding.
	SeedItems int `koanf:"seed_items"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		ScoreBackend:        BackendRedis,
		RedisAddr:           "localhost:6379",
		RedisDialTimeoutMS:  2000,
		RedisReadTimeoutMS:  3000,
		RedisWriteTimeoutMS: 3000,
		ScoreKey:            "hotrank:item:hot",
		CatalogPath:         "hotrank.db",
		StoreTimeoutMS:      500,
		DefaultHotLimit:     10,
		MaxHotLimit:         100,
	}
}

// StoreTimeout returns StoreTimeoutMS as a duration.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// RedisDialTimeout returns RedisDialTimeoutMS as a duration.
func (c *Config) RedisDialTimeout() time.Duration {
	return time.Duration(c.RedisDialTimeoutMS) * time.Millisecond
}

// RedisReadTimeout returns RedisReadTimeoutMS as a duration.
func (c *Config) RedisReadTimeout() time.Duration {
	return time.Duration(c.RedisReadTimeoutMS) * time.Millisecond
}

// RedisWriteTimeout returns RedisWriteTimeoutMS as a duration.
func (c *Config) RedisWriteTimeout() time.Duration {
	return time.Duration(c.RedisWriteTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ScoreBackend != BackendRedis && c.ScoreBackend != BackendMemory:
		return fmt.Errorf("%w: score_backend must be %q or %q, got %q", ErrInvalidConfig, BackendRedis, BackendMemory, c.ScoreBackend)
	case c.ScoreBackend == BackendRedis && strings.TrimSpace(c.RedisAddr) == "":
		return fmt.Errorf("%w: redis_addr must not be empty", ErrInvalidConfig)
	case c.RedisDB < 0:
		return fmt.Errorf("%w: redis_db must not be negative", ErrInvalidConfig)
	case c.RedisDialTimeoutMS < 1:
		return fmt.Errorf("%w: redis_dial_timeout_ms must be positive", ErrInvalidConfig)
	case c.RedisReadTimeoutMS < 1:
		return fmt.Errorf("%w: redis_read_timeout_ms must be positive", ErrInvalidConfig)
	case c.RedisWriteTimeoutMS < 1:
		return fmt.Errorf("%w: redis_write_timeout_ms must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.ScoreKey) == "":
		return fmt.Errorf("%w: score_key must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.CatalogPath) == "":
		return fmt.Errorf("%w: catalog_path must not be empty", ErrInvalidConfig)
	case c.StoreTimeoutMS < 0:
		return fmt.Errorf("%w: store_timeout_ms must not be negative", ErrInvalidConfig)
	case c.MaxHotLimit < 1:
		return fmt.Errorf("%w: max_hot_limit must be positive", ErrInvalidConfig)
	case c.DefaultHotLimit < 1 || c.DefaultHotLimit > c.MaxHotLimit:
		return fmt.Errorf("%w: default_hot_limit must be within [1, max_hot_limit]", ErrInvalidConfig)
	case c.SeedItems < 0:
		return fmt.Errorf("%w: seed_items must not be negative", ErrInvalidConfig)
	}
	return nil
}
