package testviews

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hotrank/pkg/logger"
)

// ErrInvalidConfig is returned by Run for unusable settings.
var ErrInvalidConfig = errors.New("invalid load test config")

const percentageMultiplier = 100

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: url is required", ErrInvalidConfig)
	case c.NumViews < 1:
		return fmt.Errorf("%w: views must be positive", ErrInvalidConfig)
	case c.NumItems < 2:
		return fmt.Errorf("%w: items must be at least 2", ErrInvalidConfig)
	case c.Skew <= 1:
		return fmt.Errorf("%w: skew must be greater than 1", ErrInvalidConfig)
	case c.TopN < 1:
		return fmt.Errorf("%w: top must be positive", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Run submits skewed views and verifies the resulting hot list.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stats := &Stats{
		RunID:        uuid.NewString(),
		ViewsPlanned: config.NumViews,
		StartTime:    time.Now(),
	}
	client := newHTTPClient(config, stats.RunID)

	logger.Get().Info(ctx, "starting hot list load test",
		logger.String("run_id", stats.RunID),
		logger.String("base_url", config.BaseURL),
		logger.Int("views", config.NumViews),
		logger.Int("items", config.NumItems),
		logger.Float64("skew", config.Skew),
		logger.Int("workers", config.Workers))

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	views, expected := generateViews(config)

	if err := submitViews(ctx, config, client, views, stats); err != nil {
		return stats, fmt.Errorf("view submission failed: %w", err)
	}

	hot, source, err := fetchHot(ctx, client, config.TopN)
	if err != nil {
		return stats, fmt.Errorf("hot list retrieval failed: %w", err)
	}
	stats.HotEntries = len(hot)
	stats.HotSource = source

	warnings, err := verifyHot(hot, source, expected)
	stats.Warnings = warnings
	for _, w := range warnings {
		logger.Get().Warn(ctx, "hot list consistency warning", logger.String("detail", w))
	}
	if err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}
	displayTopItems(ctx, hot)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

func displayTopItems(ctx context.Context, hot []HotEntry) {
	for _, e := range hot {
		logger.Get().Info(ctx, "hot item",
			logger.Int("rank", e.Rank),
			logger.Int64("item_id", int64(e.Item.ID)),
			logger.String("title", e.Item.Title),
			logger.Int64("score", e.Score))
	}
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, viewsPerSecond float64
	if stats.ViewsPlanned > 0 {
		successRate = float64(stats.ViewsAccepted) / float64(stats.ViewsPlanned) * percentageMultiplier
	}
	if stats.Duration > 0 {
		viewsPerSecond = float64(stats.ViewsAccepted+stats.ViewsFailed) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("run_id", stats.RunID),
		logger.Int("views_planned", stats.ViewsPlanned),
		logger.Int("views_accepted", stats.ViewsAccepted),
		logger.Int("views_failed", stats.ViewsFailed),
		logger.Int("hot_entries", stats.HotEntries),
		logger.String("hot_source", stats.HotSource),
		logger.Int("warnings", len(stats.Warnings)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("success_rate", successRate),
		logger.Float64("views_per_second", viewsPerSecond))
}
