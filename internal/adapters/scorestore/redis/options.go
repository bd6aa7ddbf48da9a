package redis

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Option configures a Store.
type Option func(*Store)

// WithAddr sets the host:port of the Redis server.
func WithAddr(addr string) Option {
	return func(s *Store) {
		if addr != "" {
			s.opts.Addr = addr
		}
	}
}

// WithPassword sets the AUTH password.
func WithPassword(password string) Option {
	return func(s *Store) {
		s.opts.Password = password
	}
}

// WithDB selects the logical database.
func WithDB(db int) Option {
	return func(s *Store) {
		if db >= 0 {
			s.opts.DB = db
		}
	}
}

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.opts.DialTimeout = d
		}
	}
}

// WithReadTimeout bounds socket reads for calls whose context has no
// deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.opts.ReadTimeout = d
		}
	}
}

// WithWriteTimeout bounds socket writes for calls whose context has no
// deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.opts.WriteTimeout = d
		}
	}
}

// WithClient uses an existing client instead of dialing one. The store
// takes ownership and closes it on Close.
func WithClient(c goredis.UniversalClient) Option {
	return func(s *Store) {
		s.client = c
	}
}
