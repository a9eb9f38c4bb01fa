package heap

import (
	"fmt"
	"sync/atomic"
)

// MemoryFactoryOptions ...
type MemoryFactoryOptions struct {
	// Limit is reported as the estimated budget limit.
	Limit uint64

	// Backed allocates Go memory for every heap. Without it heaps only account bytes.
	Backed bool

	// HardLimit makes CreateHeap fail instead of committing past Limit.
	HardLimit bool
}

// MemoryFactory creates heaps from the Go heap and reports its own commitments as budget
// usage. It is safe for concurrent use.
type MemoryFactory struct {
	backed    bool
	hardLimit bool

	limit     atomic.Uint64
	committed atomic.Uint64
	live      atomic.Int64
	created   atomic.Int64
}

var (
	_ Factory      = (*MemoryFactory)(nil)
	_ BudgetSource = (*MemoryFactory)(nil)
)

// NewMemoryFactory ...
func NewMemoryFactory(opts MemoryFactoryOptions) *MemoryFactory {
	f := &MemoryFactory{
		backed:    opts.Backed,
		hardLimit: opts.HardLimit,
	}
	f.limit.Store(opts.Limit)
	return f
}

// CreateHeap ...
func (f *MemoryFactory) CreateHeap(byteLength uint64, flags PlacementFlags) (Heap, error) {
	if err := validateCreate(byteLength, flags); err != nil {
		return nil, err
	}

	committed := f.committed.Add(byteLength)
	if f.hardLimit && committed > f.limit.Load() {
		f.committed.Add(-byteLength)
		return nil, fmt.Errorf("%w: %d bytes requested, %d committed", ErrLimitExceeded, byteLength, committed-byteLength)
	}

	h := &HostHeap{
		length: byteLength,
		flags:  flags,
		release: func(h *HostHeap) error {
			f.committed.Add(-h.length)
			f.live.Add(-1)
			return nil
		},
	}
	if f.backed {
		h.data = make([]byte, byteLength)
	}

	f.live.Add(1)
	f.created.Add(1)
	return h, nil
}

// Budget ...
func (f *MemoryFactory) Budget() Budget {
	return Budget{
		EstimatedUsage: f.committed.Load(),
		EstimatedLimit: f.limit.Load(),
	}
}

// SetLimit changes the reported budget limit.
func (f *MemoryFactory) SetLimit(limit uint64) {
	f.limit.Store(limit)
}

// Committed returns the bytes held by live heaps.
func (f *MemoryFactory) Committed() uint64 {
	return f.committed.Load()
}

// LiveHeaps returns the number of heaps created and not yet closed.
func (f *MemoryFactory) LiveHeaps() int {
	return int(f.live.Load())
}

// CreatedHeaps returns the number of heaps ever created.
func (f *MemoryFactory) CreatedHeaps() int {
	return int(f.created.Load())
}
