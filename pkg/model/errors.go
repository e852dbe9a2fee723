package model

import (
	"errors"
)

var (
	// ErrInvalidInput is returned for malformed links and payloads.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when an entry (or an in-flight task for it) already exists.
	ErrConflict = errors.New("object already exists")
	// ErrNotFound is returned when a referenced entry is missing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned when an operation is not allowed in the entry's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrUpstream wraps failures of the object store and the external fetch/tag tools.
	ErrUpstream = errors.New("upstream service error")
)
