package ranking

import "github.com/okian/hotrank/internal/domain/model"

// orderByRank joins catalog records onto ranked ids. The output follows the
// ranked order whatever order items arrive in; ids without a record are
// dropped.
func orderByRank(ranked []rankedID, items []model.Item) []Entry {
	byID := make(map[model.ItemID]model.Item, len(items))
	for _, it := range items {
		if _, ok := byID[it.ID]; !ok {
			byID[it.ID] = it
		}
	}

	entries := make([]Entry, 0, len(ranked))
	for _, r := range ranked {
		it, ok := byID[r.id]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Item: it, Score: r.score})
	}
	return entries
}
