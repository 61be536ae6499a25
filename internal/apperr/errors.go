// Package apperr holds the sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	// ErrStale means the file changed since the waymark was read.
	ErrStale = errors.New("stale waymark")
	// ErrInvalidTarget means an edit target matched no waymark.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrInvalidInput means a requested waymark would not parse back as
	// written.
	ErrInvalidInput = errors.New("invalid input")
)
