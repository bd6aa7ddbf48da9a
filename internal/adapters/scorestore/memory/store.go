// Package memory is an in-process score store backed by one treap per
// namespace. It serves single-node deployments and tests; scores are lost
// on restart.
package memory

import (
	"context"
	"sync"

	"github.com/okian/hotrank/internal/domain/ranking"
)

// Member is one ranked row.
type Member = ranking.ScoredMember

type set struct {
	root   *node
	scores map[string]float64
}

// Store is a concurrency-safe ordered score store.
type Store struct {
	mu     sync.RWMutex
	sets   map[string]*set
	closed bool
}

var _ ranking.ScoreStore = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{sets: make(map[string]*set)}
}

// Name identifies the backend in logs and stats.
func (s *Store) Name() string { return "memory" }

// Increment adds one to member's score.
func (s *Store) Increment(ctx context.Context, namespace, member string) error {
	_, err := s.incrementBy(ctx, namespace, member, 1)
	return err
}

// incrementBy adds delta to member's score and returns the new score.
// Unknown members start at zero. O(log n) expected.
func (s *Store) incrementBy(ctx context.Context, namespace, member string, delta float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	st, ok := s.sets[namespace]
	if !ok {
		st = &set{scores: make(map[string]float64)}
		s.sets[namespace] = st
	}
	old, exists := st.scores[member]
	if exists {
		st.root = remove(st.root, member, old)
	}
	score := old + delta
	st.scores[member] = score
	st.root = insert(st.root, member, score)
	return score, nil
}

// TopK returns up to k members by score desc, member asc.
func (s *Store) TopK(ctx context.Context, namespace string, k int) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if k <= 0 {
		return []Member{}, nil
	}

	st, ok := s.sets[namespace]
	if !ok {
		return []Member{}, nil
	}
	out := make([]Member, 0, min(k, len(st.scores)))
	collectTop(st.root, k, &out)
	return out, nil
}

// Rank returns the zero-based position and score of member. ok is false
// for unknown members.
func (s *Store) Rank(ctx context.Context, namespace, member string) (rank int, score float64, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, 0, false, ErrClosed
	}

	st, found := s.sets[namespace]
	if !found {
		return 0, 0, false, nil
	}
	score, ok = st.scores[member]
	if !ok {
		return 0, 0, false, nil
	}
	return rankOf(st.root, member, score), score, true, nil
}

// Cardinality returns the number of members in namespace.
func (s *Store) Cardinality(ctx context.Context, namespace string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}
	if st, ok := s.sets[namespace]; ok {
		return int64(len(st.scores)), nil
	}
	return 0, nil
}

// Reset drops every member of namespace.
func (s *Store) Reset(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.sets, namespace)
	return nil
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close releases all data. Further calls fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sets = nil
	return nil
}
