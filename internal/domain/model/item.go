// Package model contains domain models passed between layers.
package model

import (
	"strconv"
	"strings"
	"time"
)

// ItemID identifies a catalog item. Only positive values are valid.
type ItemID int64

// Valid reports whether id can name a catalog item.
func (id ItemID) Valid() bool { return id > 0 }

// Member returns the score store member string for id.
func (id ItemID) Member() string { return strconv.FormatInt(int64(id), 10) }

// ParseItemID parses a score store member or path segment into an ItemID.
// Surrounding whitespace is ignored; anything else that is not a positive
// base-10 integer is rejected.
func ParseItemID(s string) (ItemID, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return ItemID(n), true
}

// Item is a catalog record. The ranking core reads only ID and WatchedCount.
type Item struct {
	ID            ItemID    `json:"id"`
	Title         string    `json:"title"`
	OriginalTitle string    `json:"original_title,omitempty"`
	Year          int       `json:"year,omitempty"`
	Genres        string    `json:"genres,omitempty"`
	Rating        float64   `json:"rating"`
	RatingCount   int64     `json:"rating_count"`
	WatchedCount  int64     `json:"watched_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// CountedItem pairs an item with its durable popularity count.
type CountedItem struct {
	Item  Item
	Count int64
}

// ItemRank is an item's position in the score store ordering.
type ItemRank struct {
	ItemID ItemID `json:"item_id"`
	Rank   int    `json:"rank"`
	Score  int64  `json:"score"`
}
