package service

import (
	"context"
	"fmt"

	"github.com/okian/hotrank/internal/adapters/catalog/sqlite"
	"github.com/okian/hotrank/internal/adapters/scorestore/memory"
	"github.com/okian/hotrank/internal/adapters/scorestore/redis"
	"github.com/okian/hotrank/internal/config"
	"github.com/okian/hotrank/pkg/logger"
)

// FromConfig opens the collaborators named by cfg and returns an unstarted
// Service that owns them.
func FromConfig(ctx context.Context, cfg *config.Config, l logger.Logger) (*Service, error) {
	scores, err := newScoreStore(cfg)
	if err != nil {
		return nil, err
	}
	catalog, err := sqlite.Open(ctx, cfg.CatalogPath)
	if err != nil {
		_ = scores.Close()
		return nil, fmt.Errorf("open catalog %s: %w", cfg.CatalogPath, err)
	}
	return New(
		WithLogger(l),
		WithScoreStore(scores),
		WithCatalog(catalog),
		WithScoreKey(cfg.ScoreKey),
		WithStoreTimeout(cfg.StoreTimeout()),
		WithSeedItems(cfg.SeedItems),
	), nil
}

func newScoreStore(cfg *config.Config) (ScoreStore, error) {
	switch cfg.ScoreBackend {
	case config.BackendRedis:
		return redis.New(
			redis.WithAddr(cfg.RedisAddr),
			redis.WithPassword(cfg.RedisPassword),
			redis.WithDB(cfg.RedisDB),
			redis.WithDialTimeout(cfg.RedisDialTimeout()),
			redis.WithReadTimeout(cfg.RedisReadTimeout()),
			redis.WithWriteTimeout(cfg.RedisWriteTimeout()),
		), nil
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.ScoreBackend)
	}
}
