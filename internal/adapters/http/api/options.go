package api

import "github.com/okian/hotrank/pkg/logger"

const (
	defaultHotLimit = 10
	maxHotLimit     = 100
)

type options struct {
	defaultHotLimit int
	maxHotLimit     int
	logger          logger.Logger
}

// Option configures a Server.
type Option func(*options)

// WithDefaultHotLimit sets the size of GET /hot when no limit is given.
func WithDefaultHotLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.defaultHotLimit = n
		}
	}
}

// WithMaxHotLimit sets the largest limit GET /hot accepts.
func WithMaxHotLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxHotLimit = n
		}
	}
}

// WithLogger sets the logger that records causes of failed requests.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
