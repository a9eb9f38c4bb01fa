package allocator

import "math/bits"

// Allocator manages the byte range of a single heap.
type Allocator interface {
	Owner

	ByteLength() uint64
	IsEmpty() bool
	IsDedicated() bool
	TotalFreeRegionByteLength() uint64
	FreeRegionCount() int

	TryAllocate(byteLength uint64, byteAlignment uint64) (Region, bool, error)
	Allocate(byteLength uint64, byteAlignment uint64) (Region, error)
	Clear()
}

// Options ...
type Options struct {
	ByteLength uint64

	// MarginByteLength is the free gap kept on both sides of every allocated region.
	MarginByteLength uint64

	// MinimumFreeRegionByteLengthToRegister is the smallest free region kept in the
	// length index. Smaller free regions can only be reclaimed through coalescing.
	MinimumFreeRegionByteLengthToRegister uint64

	// DefaultByteAlignment is used when an allocation asks for alignment 0.
	DefaultByteAlignment uint64

	IsDedicated bool

	// Owner receives Region.Dispose calls. The allocator itself when nil.
	Owner Owner
}

func allocatorValidateOptions(opts Options) {
	if opts.ByteLength == 0 {
		panic("ByteLength must > 0")
	}
	if opts.DefaultByteAlignment != 0 && !isPowerOfTwo(opts.DefaultByteAlignment) {
		panic("DefaultByteAlignment must be a power of two")
	}
	if opts.MinimumFreeRegionByteLengthToRegister > opts.ByteLength {
		panic("MinimumFreeRegionByteLengthToRegister must <= ByteLength")
	}
}

// New creates an allocator whose whole range is a single free region.
func New(opts Options) *DefaultAllocator {
	allocatorValidateOptions(opts)

	alignment := opts.DefaultByteAlignment
	if alignment == 0 {
		alignment = 1
	}

	a := &DefaultAllocator{
		byteLength:       opts.ByteLength,
		margin:           opts.MarginByteLength,
		registerMin:      opts.MinimumFreeRegionByteLengthToRegister,
		defaultAlignment: alignment,
		dedicated:        opts.IsDedicated,
	}
	a.owner = opts.Owner
	if a.owner == nil {
		a.owner = a
	}
	a.Clear()
	return a
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func alignUp(v uint64, alignment uint64) uint64 {
	mask := alignment - 1
	return (v + mask) &^ mask
}

// RequiredByteLength returns the smallest allocator length able to hold one allocation
// of byteLength bytes at byteAlignment with the given margin on both sides.
func RequiredByteLength(byteLength uint64, byteAlignment uint64, margin uint64) uint64 {
	if byteAlignment == 0 {
		byteAlignment = 1
	}
	sum, carry := bits.Add64(alignUp(margin, byteAlignment), byteLength, 0)
	if carry != 0 {
		return 0
	}
	sum, carry = bits.Add64(sum, margin, 0)
	if carry != 0 {
		return 0
	}
	return sum
}

func validateRequest(byteLength uint64, byteAlignment uint64) error {
	if byteLength == 0 {
		return ErrInvalidByteLength
	}
	if byteAlignment != 0 && !isPowerOfTwo(byteAlignment) {
		return ErrInvalidAlignment
	}
	return nil
}

// ValidateRequest reports the argument error TryAllocate would return, without touching
// any allocator.
func ValidateRequest(byteLength uint64, byteAlignment uint64) error {
	return validateRequest(byteLength, byteAlignment)
}
