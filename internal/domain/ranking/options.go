package ranking

import (
	"strings"
	"time"

	"github.com/okian/hotrank/pkg/logger"
)

const defaultCallTimeout = 500 * time.Millisecond

// Option configures a Service.
type Option func(*Service)

// WithNamespace sets the score store key. Blank values are ignored.
func WithNamespace(ns string) Option {
	return func(s *Service) {
		if ns = strings.TrimSpace(ns); ns != "" {
			s.namespace = ns
		}
	}
}

// WithCallTimeout bounds every collaborator call. Zero or negative disables
// the bound and leaves only the caller's deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.callTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
