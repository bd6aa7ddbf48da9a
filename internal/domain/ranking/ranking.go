// Package ranking implements the "hot right now" view over the catalog.
//
// Popularity comes from two places. A fast, ephemeral score store counts
// views per item and answers top-K queries. A durable catalog holds the item
// records and a slower durable count used when the score store has nothing
// to say. Neither RecordView nor GetHot ever returns an error: a failing
// collaborator degrades the answer, never the caller.
package ranking

import (
	"context"
	"math"
	"time"

	"github.com/okian/hotrank/internal/domain/model"
	"github.com/okian/hotrank/pkg/logger"
	"github.com/okian/hotrank/pkg/metrics"
)

// DefaultNamespace is the score store key holding per-item view counts.
const DefaultNamespace = "hotrank:item:hot"

// ScoredMember is one raw score store row.
type ScoredMember struct {
	Member string
	Score  float64
}

// ScoreStore is the ephemeral ordered-score collaborator.
type ScoreStore interface {
	// Increment atomically adds one to member's score in namespace.
	Increment(ctx context.Context, namespace, member string) error
	// TopK returns up to k members of namespace by score, highest first.
	TopK(ctx context.Context, namespace string, k int) ([]ScoredMember, error)
}

// CatalogReader is the durable read collaborator.
type CatalogReader interface {
	// FetchByIDs returns the records for ids in any order. Unknown ids are
	// simply absent.
	FetchByIDs(ctx context.Context, ids []model.ItemID) ([]model.Item, error)
	// FetchTopByDurableCount returns up to limit items in the catalog's own
	// total order, each with its durable count.
	FetchTopByDurableCount(ctx context.Context, limit int) ([]model.CountedItem, error)
}

// Entry is one ranked item with its reported popularity.
type Entry struct {
	Item  model.Item `json:"item"`
	Score int64      `json:"score"`
}

// Source names the collaborator whose ordering produced a Result.
type Source string

const (
	SourceScoreStore Source = metrics.SourceScoreStore
	SourceDurable    Source = metrics.SourceDurable
	SourceNone       Source = metrics.SourceNone
)

// Result is a hot list plus where it came from. Degraded is set when a
// collaborator failed while producing it.
type Result struct {
	Entries  []Entry
	Source   Source
	Degraded bool
}

// Service ranks catalog items by recent popularity. It holds no mutable
// state and is safe for concurrent use.
type Service struct {
	scores      ScoreStore
	catalog     CatalogReader
	namespace   string
	callTimeout time.Duration
	logger      logger.Logger
}

// New builds a Service. scores may be nil, in which case views are dropped
// and every hot list comes from the catalog. catalog must not be nil.
func New(scores ScoreStore, catalog CatalogReader, opts ...Option) *Service {
	if catalog == nil {
		panic("ranking: catalog reader is nil")
	}
	s := &Service{
		scores:      scores,
		catalog:     catalog,
		namespace:   DefaultNamespace,
		callTimeout: defaultCallTimeout,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Namespace returns the score store key in use.
func (s *Service) Namespace() string { return s.namespace }

// RecordView counts one view of id. Invalid ids are ignored. A score store
// failure is logged and dropped; there is no retry.
func (s *Service) RecordView(ctx context.Context, id model.ItemID) {
	if !id.Valid() {
		metrics.RecordViewIgnored()
		return
	}
	if s.scores == nil {
		return
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	err := s.scores.Increment(callCtx, s.namespace, id.Member())
	metrics.RecordScoreStoreCall("incr", sinceMs(start), err)
	metrics.RecordView(err == nil)
	if err != nil {
		s.logger.Debug(ctx, "score store unavailable, view not recorded",
			logger.Int64("item_id", int64(id)),
			logger.Error(err),
		)
	}
}

// GetHot returns at most limit items, most popular first. The result is
// never nil.
func (s *Service) GetHot(ctx context.Context, limit int) []Entry {
	return s.GetHotResult(ctx, limit).Entries
}

// GetHotResult is GetHot with the source of the ordering attached.
func (s *Service) GetHotResult(ctx context.Context, limit int) Result {
	if limit <= 0 {
		return Result{Entries: []Entry{}, Source: SourceNone}
	}

	start := time.Now()
	res := s.hot(ctx, limit)
	metrics.RecordHot(string(res.Source), len(res.Entries), res.Degraded, sinceMs(start))
	return res
}

func (s *Service) hot(ctx context.Context, limit int) Result {
	ranked, storeOK := s.topFromScoreStore(ctx, limit)
	if len(ranked) > 0 {
		return s.resolve(ctx, ranked)
	}
	res := s.fallback(ctx, limit)
	if !storeOK {
		res.Degraded = true
	}
	return res
}

type rankedID struct {
	id    model.ItemID
	score int64
}

// topFromScoreStore returns the usable score store entries in store order.
// ok is false when the store could not be queried at all.
func (s *Service) topFromScoreStore(ctx context.Context, limit int) (ranked []rankedID, ok bool) {
	if s.scores == nil {
		return nil, true
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	members, err := s.scores.TopK(callCtx, s.namespace, limit)
	metrics.RecordScoreStoreCall("topk", sinceMs(start), err)
	if err != nil {
		s.logger.Debug(ctx, "score store unavailable, falling back to durable ranking", logger.Error(err))
		return nil, false
	}

	ranked = make([]rankedID, 0, len(members))
	seen := make(map[model.ItemID]struct{}, len(members))
	malformed := 0
	for _, m := range members {
		if len(ranked) == limit {
			break
		}
		id, valid := model.ParseItemID(m.Member)
		if !valid {
			malformed++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ranked = append(ranked, rankedID{id: id, score: RoundScore(m.Score)})
	}
	if malformed > 0 {
		metrics.RecordMalformed(malformed)
		s.logger.Debug(ctx, "dropped malformed score store members", logger.Int("count", malformed))
	}
	return ranked, true
}

// resolve loads the records for ranked and keeps the score store order.
func (s *Service) resolve(ctx context.Context, ranked []rankedID) Result {
	ids := make([]model.ItemID, len(ranked))
	for i, r := range ranked {
		ids[i] = r.id
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	items, err := s.catalog.FetchByIDs(callCtx, ids)
	metrics.RecordCatalogCall("fetch_by_ids", sinceMs(start), err)
	if err != nil {
		s.logger.Warn(ctx, "catalog unavailable, hot list is empty",
			logger.Int("ids", len(ids)),
			logger.Error(err),
		)
		return Result{Entries: []Entry{}, Source: SourceNone, Degraded: true}
	}

	entries := orderByRank(ranked, items)
	if missing := len(ranked) - len(entries); missing > 0 {
		metrics.RecordUnresolved(missing)
	}
	return Result{Entries: entries, Source: SourceScoreStore}
}

// fallback serves the catalog's durable ordering.
func (s *Service) fallback(ctx context.Context, limit int) Result {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	counted, err := s.catalog.FetchTopByDurableCount(callCtx, limit)
	metrics.RecordCatalogCall("fetch_top", sinceMs(start), err)
	if err != nil {
		s.logger.Warn(ctx, "catalog unavailable for durable ranking", logger.Error(err))
		return Result{Entries: []Entry{}, Source: SourceNone, Degraded: true}
	}

	entries := make([]Entry, 0, min(len(counted), limit))
	seen := make(map[model.ItemID]struct{}, len(counted))
	for _, c := range counted {
		if len(entries) == limit {
			break
		}
		if !c.Item.ID.Valid() {
			continue
		}
		if _, dup := seen[c.Item.ID]; dup {
			continue
		}
		seen[c.Item.ID] = struct{}{}
		entries = append(entries, Entry{Item: c.Item, Score: max(c.Count, 0)})
	}
	return Result{Entries: entries, Source: SourceDurable}
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

// RoundScore rounds a raw store score to the nearest integer, halves away
// from zero. Negative and NaN scores report as zero.
func RoundScore(f float64) int64 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	}
	return int64(math.Round(f))
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
