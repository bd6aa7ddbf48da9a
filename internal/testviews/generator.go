package testviews

import (
	"math/rand/v2"
	"time"

	"github.com/okian/hotrank/internal/domain/model"
)

// generateViews draws NumViews item ids from a Zipf distribution over
// 1..NumItems, so low ids are viewed most. It also returns how often each id
// was drawn.
func generateViews(config *Config) ([]model.ItemID, map[model.ItemID]int64) {
	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	zipf := rand.NewZipf(rng, config.Skew, 1, uint64(config.NumItems-1))

	views := make([]model.ItemID, config.NumViews)
	counts := make(map[model.ItemID]int64, config.NumItems)
	for i := range views {
		id := model.ItemID(zipf.Uint64() + 1)
		views[i] = id
		counts[id]++
	}
	return views, counts
}
