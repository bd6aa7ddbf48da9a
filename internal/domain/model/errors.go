package model

import "errors"

var (
	// ErrItemNotFound reports a lookup of an item the catalog does not hold.
	ErrItemNotFound = errors.New("item not found")
	// ErrItemNotRanked reports an item with no views in the score store.
	ErrItemNotRanked = errors.New("item not ranked")
	// ErrScoreStoreUnavailable reports a score store that could not answer.
	ErrScoreStoreUnavailable = errors.New("score store unavailable")
)
