// Package service wires the ranking core to its score store and catalog and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/internal/domain/ranking"
	"github.com/okian/hotrank/pkg/logger"
	"github.com/okian/hotrank/pkg/metrics"
)

const (
	defaultStoreTimeout = 500 * time.Millisecond
	probeTimeout        = 2 * time.Second
)

// ScoreStore is the score store surface the service needs beyond ranking.
type ScoreStore interface {
	ranking.ScoreStore
	Name() string
	Ping(ctx context.Context) error
	Cardinality(ctx context.Context, namespace string) (int64, error)
	Rank(ctx context.Context, namespace, member string) (rank int, score float64, ok bool, err error)
	Close() error
}

// Catalog is the catalog surface the service needs beyond ranking.
type Catalog interface {
	ranking.CatalogReader
	Name() string
	Ping(ctx context.Context) error
	FetchByID(ctx context.Context, id model.ItemID) (model.Item, error)
	Count(ctx context.Context) (int64, error)
	InsertItem(ctx context.Context, it model.Item) error
	Close() error
}

// Service owns the ranking core and its collaborators.
type Service struct {
	mu sync.RWMutex

	scores  ScoreStore
	catalog Catalog
	ranking *ranking.Service

	scoreKey     string
	storeTimeout time.Duration
	seedItems    int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScoreStore sets the score store. The service closes it on Stop.
func WithScoreStore(store ScoreStore) Option {
	return func(s *Service) {
		s.scores = store
	}
}

// WithCatalog sets the catalog. The service closes it on Stop.
func WithCatalog(c Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithScoreKey sets the score store namespace.
func WithScoreKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.scoreKey = key
		}
	}
}

// WithStoreTimeout bounds each score store and catalog call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.storeTimeout = d
		}
	}
}

// WithSeedItems seeds an empty catalog with n placeholder items on Start.
func WithSeedItems(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.seedItems = n
		}
	}
}

// New constructs a Service. Collaborators are supplied through options and
// checked by Start.
func New(opts ...Option) *Service {
	s := &Service{
		scoreKey:     ranking.DefaultNamespace,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start seeds the catalog when asked, probes both collaborators and builds
// the ranking core. An unreachable score store is logged, not fatal: the
// ranking core falls back to the catalog until it recovers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.catalog == nil {
		return fmt.Errorf("start: %w: catalog", ErrMissingDependency)
	}
	if s.scores == nil {
		return fmt.Errorf("start: %w: score store", ErrMissingDependency)
	}

	s.logger.Info(ctx, "starting ranking service...")

	if err := s.seed(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	s.probe(ctx)

	s.ranking = ranking.New(s.scores, s.catalog,
		ranking.WithNamespace(s.scoreKey),
		ranking.WithCallTimeout(s.storeTimeout),
		ranking.WithLogger(s.logger.Named("ranking")),
	)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.String("score_store", s.scores.Name()),
		logger.String("catalog", s.catalog.Name()),
		logger.String("score_key", s.scoreKey),
		logger.Duration("store_timeout", s.storeTimeout),
	)
	return nil
}

// Stop closes both collaborators.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")
	if err := errors.Join(s.scores.Close(), s.catalog.Close()); err != nil {
		s.logger.Warn(ctx, "closing collaborators failed", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// probe pings both collaborators concurrently and only logs the outcome.
func (s *Service) probe(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		err := s.scores.Ping(pctx)
		metrics.UpdateScoreStoreUp(err == nil)
		if err != nil {
			s.logger.Warn(ctx, "score store unreachable; hot lists fall back to durable ranking",
				logger.String("score_store", s.scores.Name()),
				logger.Error(err),
			)
			return nil
		}
		s.logger.Info(ctx, "score store reachable", logger.String("score_store", s.scores.Name()))
		return nil
	})
	g.Go(func() error {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		if err := s.catalog.Ping(pctx); err != nil {
			s.logger.Warn(ctx, "catalog unreachable", logger.String("catalog", s.catalog.Name()), logger.Error(err))
		}
		return nil
	})
	_ = g.Wait()
}

// seed inserts placeholder items 1..n into an empty catalog.
func (s *Service) seed(ctx context.Context) error {
	if s.seedItems == 0 {
		return nil
	}
	n, err := s.catalog.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n > 0 {
		return nil
	}
	for i := 1; i <= s.seedItems; i++ {
		it := model.Item{ID: model.ItemID(i), Title: fmt.Sprintf("Item %d", i)}
		if err := s.catalog.InsertItem(ctx, it); err != nil {
			return fmt.Errorf("seed item %d: %w", i, err)
		}
	}
	s.logger.Info(ctx, "seeded catalog", logger.Int("items", s.seedItems))
	return nil
}

func (s *Service) core() (*ranking.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranking, s.started
}

// RecordView counts one view of id. It never fails.
func (s *Service) RecordView(ctx context.Context, id model.ItemID) {
	if r, ok := s.core(); ok {
		r.RecordView(ctx, id)
	}
}

// GetHotResult returns the hot list with its source. Before Start it is
// empty.
func (s *Service) GetHotResult(ctx context.Context, limit int) ranking.Result {
	r, ok := s.core()
	if !ok {
		return ranking.Result{Entries: []ranking.Entry{}, Source: ranking.SourceNone}
	}
	return r.GetHotResult(ctx, limit)
}

// GetItem loads one item from the catalog. Unknown ids return
// model.ErrItemNotFound.
func (s *Service) GetItem(ctx context.Context, id model.ItemID) (model.Item, error) {
	if _, ok := s.core(); !ok {
		return model.Item{}, ErrNotStarted
	}
	if !id.Valid() {
		return model.Item{}, model.ErrItemNotFound
	}
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	it, err := s.catalog.FetchByID(callCtx, id)
	if err != nil && !errors.Is(err, model.ErrItemNotFound) {
		metrics.RecordCatalogCall("fetch_by_id", sinceMs(start), err)
		return model.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	metrics.RecordCatalogCall("fetch_by_id", sinceMs(start), nil)
	return it, err
}

// GetRank returns id's one-based position and rounded score in the score
// store. Items without views return model.ErrItemNotRanked; a failing store
// returns model.ErrScoreStoreUnavailable.
func (s *Service) GetRank(ctx context.Context, id model.ItemID) (model.ItemRank, error) {
	if _, ok := s.core(); !ok {
		return model.ItemRank{}, ErrNotStarted
	}
	if !id.Valid() {
		return model.ItemRank{}, model.ErrItemNotRanked
	}
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	rank, score, ok, err := s.scores.Rank(callCtx, s.scoreKey, id.Member())
	metrics.RecordScoreStoreCall("rank", sinceMs(start), err)
	if err != nil {
		return model.ItemRank{}, fmt.Errorf("rank item %d: %w: %w", id, model.ErrScoreStoreUnavailable, err)
	}
	if !ok {
		return model.ItemRank{}, model.ErrItemNotRanked
	}
	return model.ItemRank{ItemID: id, Rank: rank + 1, Score: ranking.RoundScore(score)}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]any{
		"started":          started,
		"score_key":        s.scoreKey,
		"store_timeout_ms": s.storeTimeout.Milliseconds(),
		"goroutines":       runtime.NumGoroutine(),
	}
	if !started {
		return stats
	}

	stats["score_store"] = s.scores.Name()
	stats["catalog"] = s.catalog.Name()

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	tracked, err := s.scores.Cardinality(callCtx, s.scoreKey)
	stats["score_store_up"] = err == nil
	metrics.UpdateScoreStoreUp(err == nil)
	if err == nil {
		stats["tracked_items"] = tracked
	}
	if items, err := s.catalog.Count(callCtx); err == nil {
		stats["catalog_items"] = items
	}
	return stats
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
