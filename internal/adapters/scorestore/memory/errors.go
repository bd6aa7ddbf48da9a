package memory

import "errors"

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("memory score store closed")
