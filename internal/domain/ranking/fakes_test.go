package ranking

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/hotrank/internal/domain/model"
)

var errUnavailable = errors.New("connection refused")

type fakeScoreStore struct {
	mu        sync.Mutex
	counts    map[string]map[string]float64
	top       []ScoredMember // when set, TopK returns this verbatim
	incrErr   error
	topErr    error
	incrCalls int
	topCalls  int
	lastK     int
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{counts: map[string]map[string]float64{}}
}

func (f *fakeScoreStore) Increment(_ context.Context, ns, member string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incrCalls++
	if f.incrErr != nil {
		return f.incrErr
	}
	if f.counts[ns] == nil {
		f.counts[ns] = map[string]float64{}
	}
	f.counts[ns][member]++
	return nil
}

func (f *fakeScoreStore) TopK(_ context.Context, ns string, k int) ([]ScoredMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topCalls++
	f.lastK = k
	if f.topErr != nil {
		return nil, f.topErr
	}
	if f.top != nil {
		return f.top, nil
	}
	out := make([]ScoredMember, 0, len(f.counts[ns]))
	for m, s := range f.counts[ns] {
		out = append(out, ScoredMember{Member: m, Score: s})
	}
	sortMembers(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeScoreStore) score(ns, member string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[ns][member]
}

// sortMembers orders by score desc then member asc.
func sortMembers(ms []ScoredMember) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0; j-- {
			a, b := ms[j-1], ms[j]
			if a.Score > b.Score || (a.Score == b.Score && a.Member < b.Member) {
				break
			}
			ms[j-1], ms[j] = b, a
		}
	}
}

type fakeCatalog struct {
	mu         sync.Mutex
	items      map[model.ItemID]model.Item
	durable    []model.CountedItem
	byIDsErr   error
	topErr     error
	byIDsCalls int
	topCalls   int
	lastIDs    []model.ItemID
}

func newFakeCatalog(items ...model.Item) *fakeCatalog {
	c := &fakeCatalog{items: map[model.ItemID]model.Item{}}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

// FetchByIDs answers in reverse request order to prove callers reorder.
func (c *fakeCatalog) FetchByIDs(_ context.Context, ids []model.ItemID) ([]model.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byIDsCalls++
	c.lastIDs = append([]model.ItemID(nil), ids...)
	if c.byIDsErr != nil {
		return nil, c.byIDsErr
	}
	out := make([]model.Item, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if it, ok := c.items[ids[i]]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c *fakeCatalog) FetchTopByDurableCount(_ context.Context, limit int) ([]model.CountedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topCalls++
	if c.topErr != nil {
		return nil, c.topErr
	}
	if len(c.durable) > limit {
		return c.durable[:limit], nil
	}
	return c.durable, nil
}

func (c *fakeCatalog) calls() (byIDs, top int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byIDsCalls, c.topCalls
}

func item(id int64, title string) model.Item {
	return model.Item{ID: model.ItemID(id), Title: title}
}

func ids(entries []Entry) []model.ItemID {
	out := make([]model.ItemID, len(entries))
	for i, e := range entries {
		out[i] = e.Item.ID
	}
	return out
}

func scores(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Score
	}
	return out
}
