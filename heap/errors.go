package heap

import "errors"

var (
	// ErrHeapClosed is returned when a heap is closed twice.
	ErrHeapClosed = errors.New("heap: closed")

	// ErrBadArgument is returned for zero-length heaps and undefined placement flags.
	ErrBadArgument = errors.New("heap: bad argument")

	// ErrLimitExceeded is returned when a factory with a hard limit cannot commit more memory.
	ErrLimitExceeded = errors.New("heap: limit exceeded")

	// ErrNotSupported is returned by platform queries that have no implementation.
	ErrNotSupported = errors.New("heap: not supported on this platform")
)
