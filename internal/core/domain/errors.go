package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreFailure indicates the document store could not serve a search.
	// Connection errors, rejected queries and timeouts all wrap this error.
	ErrStoreFailure = errors.New("document store failure")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrLockLost indicates a lock was no longer held by this instance when
	// it was released, so the work it guarded may have overlapped another run
	ErrLockLost = errors.New("lock lost")
)
