package allocator

import "errors"

var (
	// ErrInvalidByteLength is returned when zero bytes are requested.
	ErrInvalidByteLength = errors.New("allocator: byte length must be greater than zero")

	// ErrInvalidAlignment is returned when the requested alignment is not a power of two.
	ErrInvalidAlignment = errors.New("allocator: byte alignment must be zero or a power of two")

	// ErrOutOfMemory indicates no free region can satisfy the request.
	ErrOutOfMemory = errors.New("allocator: out of memory")

	// ErrRegionNotFound indicates the region is not part of the allocator's current partition.
	ErrRegionNotFound = errors.New("allocator: region not found")

	// ErrCorrupt is wrapped by Validate when an internal invariant does not hold.
	ErrCorrupt = errors.New("allocator: corrupt partition")
)
