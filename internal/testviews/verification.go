package testviews

import (
	"errors"
	"fmt"

	"github.com/okian/hotrank/internal/domain/model"
)

// Verification errors.
var (
	ErrEmptyHotList   = errors.New("hot list is empty")
	ErrBadRank        = errors.New("ranks are not 1..n")
	ErrNotSorted      = errors.New("hot list is not sorted by score")
	ErrDuplicateEntry = errors.New("hot list repeats an item")
)

// verifyHot checks the structural guarantees of a hot list and returns
// warnings for mismatches against the submitted counts. Counts only line up
// exactly when the service started from an empty score store.
func verifyHot(hot []HotEntry, source string, expected map[model.ItemID]int64) ([]string, error) {
	if len(hot) == 0 {
		return nil, ErrEmptyHotList
	}

	seen := make(map[model.ItemID]struct{}, len(hot))
	for i, e := range hot {
		if e.Rank != i+1 {
			return nil, fmt.Errorf("%w: entry %d has rank %d", ErrBadRank, i, e.Rank)
		}
		if i > 0 && e.Score > hot[i-1].Score {
			return nil, fmt.Errorf("%w: entry %d scores %d above entry %d with %d",
				ErrNotSorted, i, e.Score, i-1, hot[i-1].Score)
		}
		if _, dup := seen[e.Item.ID]; dup {
			return nil, fmt.Errorf("%w: item %d", ErrDuplicateEntry, e.Item.ID)
		}
		seen[e.Item.ID] = struct{}{}
	}

	var warnings []string
	if source != "score_store" {
		warnings = append(warnings, fmt.Sprintf("hot list served from %q, not the score store", source))
		return warnings, nil
	}

	var top int64
	for _, n := range expected {
		top = max(top, n)
	}
	if hot[0].Score < top {
		warnings = append(warnings, fmt.Sprintf("leader %d scores %d, below the most submitted count %d",
			hot[0].Item.ID, hot[0].Score, top))
	}
	for _, e := range hot {
		if want := expected[e.Item.ID]; e.Score < want {
			warnings = append(warnings, fmt.Sprintf("item %d scores %d, below its %d submitted views",
				e.Item.ID, e.Score, want))
		}
	}
	return warnings, nil
}
