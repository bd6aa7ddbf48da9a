package sqlite

import (
	"errors"

	"github.com/okian/hotrank/internal/domain/model"
)

var (
	// ErrNotFound is returned when an item does not exist.
	ErrNotFound = model.ErrItemNotFound
	// ErrAlreadyExists is returned when an item id is already taken.
	ErrAlreadyExists = errors.New("item already exists")
	// ErrInvalidPath is returned by Open for an empty path.
	ErrInvalidPath = errors.New("storage path is required")
	// ErrInvalidItem is returned for writes with missing or invalid fields.
	ErrInvalidItem = errors.New("invalid item")
)
