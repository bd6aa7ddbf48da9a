package service

import "errors"

var (
	// ErrMissingDependency is returned by Start when a collaborator is unset.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrNotStarted is returned by reads issued before Start.
	ErrNotStarted = errors.New("service not started")
	// ErrUnknownBackend is returned for an unsupported score backend.
	ErrUnknownBackend = errors.New("unknown score backend")
)
