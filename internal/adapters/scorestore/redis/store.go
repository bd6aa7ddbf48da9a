// Package redis is the shared score store: one sorted set per namespace,
// scores bumped with ZINCRBY and read back with ZREVRANGE.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/hotrank/internal/domain/ranking"
)

const (
	defaultAddr         = "localhost:6379"
	defaultDialTimeout  = 2 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// Store implements ranking.ScoreStore on a Redis sorted set.
type Store struct {
	client goredis.UniversalClient
	opts   goredis.Options
}

var _ ranking.ScoreStore = (*Store)(nil)

// New builds a store. No connection is made until the first command, so a
// down server never blocks startup. Context deadlines bound every command;
// the read and write timeouts apply only to calls without one.
func New(opts ...Option) *Store {
	s := &Store{
		opts: goredis.Options{
			Addr:                  defaultAddr,
			DialTimeout:           defaultDialTimeout,
			ReadTimeout:           defaultReadTimeout,
			WriteTimeout:          defaultWriteTimeout,
			ContextTimeoutEnabled: true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		o := s.opts
		s.client = goredis.NewClient(&o)
	}
	return s
}

// Name identifies the backend in logs and stats.
func (s *Store) Name() string { return "redis" }

// Increment runs ZINCRBY namespace 1 member.
func (s *Store) Increment(ctx context.Context, namespace, member string) error {
	if err := s.client.ZIncrBy(ctx, namespace, 1, member).Err(); err != nil {
		return fmt.Errorf("zincrby %s: %w", namespace, err)
	}
	return nil
}

// TopK runs ZREVRANGE namespace 0 k-1 WITHSCORES.
func (s *Store) TopK(ctx context.Context, namespace string, k int) ([]ranking.ScoredMember, error) {
	if k <= 0 {
		return []ranking.ScoredMember{}, nil
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, namespace, 0, int64(k-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange %s: %w", namespace, err)
	}
	out := make([]ranking.ScoredMember, 0, len(zs))
	for _, z := range zs {
		out = append(out, ranking.ScoredMember{Member: memberString(z.Member), Score: z.Score})
	}
	return out, nil
}

// Rank returns the zero-based position and score of member in one
// MULTI/EXEC round trip. ok is false when member is not in the set.
func (s *Store) Rank(ctx context.Context, namespace, member string) (rank int, score float64, ok bool, err error) {
	var (
		rankCmd  *goredis.IntCmd
		scoreCmd *goredis.FloatCmd
	)
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		rankCmd = p.ZRevRank(ctx, namespace, member)
		scoreCmd = p.ZScore(ctx, namespace, member)
		return nil
	})
	if errors.Is(err, goredis.Nil) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, fmt.Errorf("zrevrank %s: %w", namespace, err)
	}
	return int(rankCmd.Val()), scoreCmd.Val(), true, nil
}

// Cardinality runs ZCARD.
func (s *Store) Cardinality(ctx context.Context, namespace string) (int64, error) {
	n, err := s.client.ZCard(ctx, namespace).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard %s: %w", namespace, err)
	}
	return n, nil
}

// Reset deletes the namespace key.
func (s *Store) Reset(ctx context.Context, namespace string) error {
	if err := s.client.Del(ctx, namespace).Err(); err != nil {
		return fmt.Errorf("del %s: %w", namespace, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func memberString(m any) string {
	switch v := m.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
