package heap

import (
	"fmt"
	"math"
	"sync/atomic"
)

// MmapFactory creates heaps from anonymous private mappings. Its budget limit is either
// fixed at construction or the physical memory of the machine.
type MmapFactory struct {
	limit     uint64
	committed atomic.Uint64
	live      atomic.Int64
}

var (
	_ Factory      = (*MmapFactory)(nil)
	_ BudgetSource = (*MmapFactory)(nil)
)

// NewMmapFactory returns a factory reporting limit as its budget. A zero limit asks the
// operating system for the amount of physical memory.
func NewMmapFactory(limit uint64) (*MmapFactory, error) {
	if limit == 0 {
		total, err := SystemMemory()
		if err != nil {
			return nil, fmt.Errorf("querying system memory: %w", err)
		}
		limit = total
	}
	return &MmapFactory{limit: limit}, nil
}

// CreateHeap ...
func (f *MmapFactory) CreateHeap(byteLength uint64, flags PlacementFlags) (Heap, error) {
	if err := validateCreate(byteLength, flags); err != nil {
		return nil, err
	}
	if byteLength > math.MaxInt {
		return nil, fmt.Errorf("%w: %d bytes cannot be mapped", ErrBadArgument, byteLength)
	}

	data, err := mapAnonymous(int(byteLength))
	if err != nil {
		return nil, fmt.Errorf("mapping %d bytes: %w", byteLength, err)
	}

	f.committed.Add(byteLength)
	f.live.Add(1)
	return &HostHeap{
		length: byteLength,
		flags:  flags,
		data:   data,
		release: func(h *HostHeap) error {
			f.committed.Add(-h.length)
			f.live.Add(-1)
			return unmap(h.data)
		},
	}, nil
}

// Budget ...
func (f *MmapFactory) Budget() Budget {
	return Budget{
		EstimatedUsage: f.committed.Load(),
		EstimatedLimit: f.limit,
	}
}

// LiveHeaps ...
func (f *MmapFactory) LiveHeaps() int {
	return int(f.live.Load())
}
