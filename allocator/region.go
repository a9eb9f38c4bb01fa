package allocator

import "fmt"

// Owner receives regions released through Region.Dispose.
type Owner interface {
	Free(r Region) error
}

// Region describes one byte range inside an allocator. It is a descriptor, not an owner:
// the allocator tracks the range, the Region only refers to it.
type Region struct {
	byteOffset    uint64
	byteLength    uint64
	byteAlignment uint64
	allocated     bool

	allocator Allocator
	owner     Owner

	node uint32
	gen  uint32
}

// ByteOffset ...
func (r Region) ByteOffset() uint64 {
	return r.byteOffset
}

// ByteLength ...
func (r Region) ByteLength() uint64 {
	return r.byteLength
}

// ByteAlignment ...
func (r Region) ByteAlignment() uint64 {
	return r.byteAlignment
}

// IsAllocated ...
func (r Region) IsAllocated() bool {
	return r.allocated
}

// Allocator returns the allocator whose partition contains the region.
func (r Region) Allocator() Allocator {
	return r.allocator
}

// End returns the first offset past the region.
func (r Region) End() uint64 {
	return r.byteOffset + r.byteLength
}

// Dispose releases the region through its owner. It must be called exactly once per
// allocation; a second call reports ErrRegionNotFound.
func (r Region) Dispose() error {
	if r.owner == nil {
		return ErrRegionNotFound
	}
	return r.owner.Free(r)
}

func (r Region) String() string {
	state := "free"
	if r.allocated {
		state = "allocated"
	}
	return fmt.Sprintf("[%d, %d) %s align=%d", r.byteOffset, r.End(), state, r.byteAlignment)
}
