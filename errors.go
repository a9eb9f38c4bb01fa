package heappool

import (
	"errors"

	"github.com/QuangTung97/heappool/allocator"
)

var (
	// ErrInvalidFlags is returned for undefined or contradictory allocation flags.
	ErrInvalidFlags = errors.New("heappool: invalid allocation flags")

	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("heappool: invalid config")

	// ErrClosed is returned by operations on a closed manager.
	ErrClosed = errors.New("heappool: manager closed")

	// ErrOutOfMemory is the allocator error, so errors.Is matches at either level.
	ErrOutOfMemory = allocator.ErrOutOfMemory

	// ErrRegionNotFound ...
	ErrRegionNotFound = allocator.ErrRegionNotFound
)
