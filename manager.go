package heappool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/QuangTung97/heappool/allocator"
	"github.com/QuangTung97/heappool/heap"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// poolEntry pairs a heap with its allocator. Dedicated allocators are skipped by shared
// allocations until they empty out.
type poolEntry struct {
	heap  heap.Heap
	alloc *allocator.DefaultAllocator
}

// Manager owns a pool of heaps, each carved up by its own allocator. Allocators are
// created and destroyed as demand and the memory budget change.
type Manager struct {
	mu sync.Mutex

	conf       Config
	factory    heap.Factory
	budget     heap.BudgetSource
	logger     *slog.Logger
	namePrefix string

	// entries are kept roughly ascending by free bytes.
	entries []*poolEntry
	empty   *poolEntry

	byteLength        uint64
	totalFree         uint64
	minimumByteLength uint64
	operationCount    uint64
	closed            bool
}

var _ allocator.Owner = (*Manager)(nil)

// New creates a manager and commits the allocators needed by the configured floors.
// A nil budget uses the factory when it implements heap.BudgetSource.
func New(conf Config, factory heap.Factory, budget heap.BudgetSource) (*Manager, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: nil heap factory", ErrInvalidConfig)
	}
	if budget == nil {
		b, ok := factory.(heap.BudgetSource)
		if !ok {
			return nil, fmt.Errorf("%w: no budget source", ErrInvalidConfig)
		}
		budget = b
	}

	prefix := slug.Make(conf.Name)
	if prefix == "" {
		prefix = appName
	}

	m := &Manager{
		conf:       conf,
		factory:    factory,
		budget:     budget,
		logger:     conf.logger(),
		namePrefix: prefix,
	}

	for len(m.entries) < conf.MinimumAllocatorCount {
		e, err := m.addAllocator(m.sharedAllocatorByteLength(0), false)
		if err != nil {
			_ = m.Close()
			return nil, err
		}
		if m.empty == nil {
			m.empty = e
		}
	}

	ok, err := m.TrySetMinimumByteLength(conf.MinimumByteLength)
	if err == nil && !ok {
		err = fmt.Errorf("%w: cannot commit minimum byte length %d", ErrOutOfMemory, conf.MinimumByteLength)
	}
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manager) lock() {
	if !m.conf.ExternallySynchronized {
		m.mu.Lock()
	}
}

func (m *Manager) unlock() {
	if !m.conf.ExternallySynchronized {
		m.mu.Unlock()
	}
}

// TryAllocate returns a region of opts.ByteLength bytes. Argument errors are returned
// before any allocator is touched; running out of memory is reported as false.
func (m *Manager) TryAllocate(opts AllocationOptions) (allocator.Region, bool, error) {
	if err := opts.validate(); err != nil {
		return allocator.Region{}, false, err
	}

	m.lock()
	defer m.unlock()

	if m.closed {
		return allocator.Region{}, false, ErrClosed
	}
	return m.tryAllocateLocked(opts)
}

// Allocate is TryAllocate reporting ErrOutOfMemory instead of false.
func (m *Manager) Allocate(opts AllocationOptions) (allocator.Region, error) {
	r, ok, err := m.TryAllocate(opts)
	if err != nil {
		return allocator.Region{}, err
	}
	if !ok {
		return allocator.Region{}, fmt.Errorf("%w: %d bytes, flags %v", ErrOutOfMemory, opts.ByteLength, opts.Flags)
	}
	return r, nil
}

// TryAllocateRegions fills regions with one allocation each. On failure every region
// granted by this call is freed again, last first, the slice is zeroed and allocators
// created by the call are destroyed.
func (m *Manager) TryAllocateRegions(opts AllocationOptions, regions []allocator.Region) (ok bool, err error) {
	if err := opts.validate(); err != nil {
		return false, err
	}

	m.lock()
	defer m.unlock()

	if m.closed {
		return false, ErrClosed
	}

	entryCount := len(m.entries)
	empty := m.empty
	granted := 0
	defer func() {
		if ok {
			return
		}
		for i := granted - 1; i >= 0; i-- {
			if e := m.entryOf(regions[i].Allocator()); e != nil {
				if freeErr := m.releaseRegion(e, regions[i]); freeErr != nil && err == nil {
					err = freeErr
				}
			}
			regions[i] = allocator.Region{}
		}

		// Allocators are only appended while allocating, so the ones created by this
		// call sit past entryCount.
		for len(m.entries) > entryCount {
			e := m.entries[len(m.entries)-1]
			if !e.alloc.IsEmpty() {
				break
			}
			m.removeAllocator(e)
		}
		m.empty = empty
	}()

	for granted < len(regions) {
		r, allocated, allocErr := m.tryAllocateLocked(opts)
		if allocErr != nil || !allocated {
			return false, allocErr
		}
		regions[granted] = r
		granted++
	}
	return true, nil
}

func (m *Manager) tryAllocateLocked(opts AllocationOptions) (allocator.Region, bool, error) {
	m.operationCount++
	budget := m.budget.Budget()

	dedicated := opts.Flags&AllocationDedicated != 0 || opts.ByteLength > m.conf.MaximumSharedAllocatorByteLength

	if !dedicated {
		for _, e := range m.entries {
			if e.alloc.IsDedicated() {
				continue
			}
			r, ok, err := m.allocateFrom(e, opts)
			if err != nil || ok {
				return r, ok, err
			}
		}
	}

	if opts.Flags&AllocationExistingOnly != 0 || len(m.entries) >= m.conf.MaximumAllocatorCount {
		return allocator.Region{}, false, nil
	}

	required := allocator.RequiredByteLength(opts.ByteLength, m.alignmentOf(opts), m.conf.MinimumMarginByteLength)
	if required == 0 {
		return allocator.Region{}, false, nil
	}

	size := required
	if !dedicated {
		size = max(m.sharedAllocatorByteLength(opts.ByteLength), required)
	}

	if opts.Flags&AllocationCanExceedBudget == 0 && size > budget.Headroom() {
		m.logger.Debug("allocation exceeds memory budget",
			"byteLength", opts.ByteLength,
			"heapByteLength", size,
			"estimatedUsage", budget.EstimatedUsage,
			"estimatedLimit", budget.EstimatedLimit,
		)
		return allocator.Region{}, false, nil
	}

	e, err := m.addAllocator(size, dedicated)
	if err != nil {
		return allocator.Region{}, false, err
	}

	r, ok, err := m.allocateFrom(e, opts)
	if err != nil || !ok {
		m.removeAllocator(e)
		return allocator.Region{}, false, err
	}
	return r, true, nil
}

func (m *Manager) alignmentOf(opts AllocationOptions) uint64 {
	if opts.ByteAlignment != 0 {
		return opts.ByteAlignment
	}
	return m.conf.DefaultByteAlignment
}

func (m *Manager) allocateFrom(e *poolEntry, opts AllocationOptions) (allocator.Region, bool, error) {
	before := e.alloc.TotalFreeRegionByteLength()
	r, ok, err := e.alloc.TryAllocate(opts.ByteLength, opts.ByteAlignment)
	if err != nil || !ok {
		return allocator.Region{}, false, err
	}

	m.totalFree -= before - e.alloc.TotalFreeRegionByteLength()
	if m.empty == e {
		m.empty = nil
	}
	return r, true, nil
}

// sharedAllocatorByteLength sizes a new shared allocator: the shared ceiling, halved while
// the result stays above the configured minimum, above every shared allocator already in
// the pool and at least twice the requested length.
func (m *Manager) sharedAllocatorByteLength(requested uint64) uint64 {
	ceiling := m.conf.MaximumSharedAllocatorByteLength
	largest := m.largestSharedByteLength()

	size := ceiling
	for _, step := range sharedLadder {
		candidate := step.MulUint64(ceiling)
		if candidate <= m.conf.MinimumSharedAllocatorByteLength || candidate <= largest || requested > candidate/2 {
			break
		}
		size = candidate
	}
	return size
}

func (m *Manager) largestSharedByteLength() uint64 {
	var largest uint64
	for _, e := range m.entries {
		if !e.alloc.IsDedicated() {
			largest = max(largest, e.alloc.ByteLength())
		}
	}
	return largest
}

func (m *Manager) addAllocator(byteLength uint64, dedicated bool) (*poolEntry, error) {
	h, err := m.factory.CreateHeap(byteLength, m.conf.PlacementFlags)
	if err != nil {
		return nil, fmt.Errorf("creating heap of %d bytes: %w", byteLength, err)
	}
	h.SetName(fmt.Sprintf("%s/heap-%s", m.namePrefix, uuid.NewString()))

	e := &poolEntry{
		heap: h,
		alloc: allocator.New(allocator.Options{
			ByteLength:                            byteLength,
			MarginByteLength:                      m.conf.MinimumMarginByteLength,
			MinimumFreeRegionByteLengthToRegister: min(m.conf.MinimumFreeRegionByteLengthToRegister, byteLength),
			DefaultByteAlignment:                  m.conf.DefaultByteAlignment,
			IsDedicated:                           dedicated,
			Owner:                                 m,
		}),
	}

	m.entries = append(m.entries, e)
	m.byteLength += byteLength
	m.totalFree += byteLength

	m.logger.Debug("created heap",
		"heap", h.Name(),
		"byteLength", byteLength,
		"dedicated", dedicated,
		"allocators", len(m.entries),
	)
	return e, nil
}

func (m *Manager) removeAllocator(e *poolEntry) {
	for i, other := range m.entries {
		if other == e {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	if m.empty == e {
		m.empty = nil
	}

	m.byteLength -= e.alloc.ByteLength()
	m.totalFree -= e.alloc.TotalFreeRegionByteLength()

	m.logger.Debug("destroying heap",
		"heap", e.heap.Name(),
		"byteLength", e.alloc.ByteLength(),
		"allocators", len(m.entries),
	)
	if err := e.heap.Close(); err != nil {
		m.logger.Warn("closing heap", "heap", e.heap.Name(), "error", err)
	}
}

// canRemove reports whether dropping e keeps the pool within its count and byte floors.
func (m *Manager) canRemove(e *poolEntry) bool {
	return len(m.entries)-1 >= m.conf.MinimumAllocatorCount &&
		m.byteLength-e.alloc.ByteLength() >= m.minimumByteLength
}

// Free releases a region handed out by this manager. Region.Dispose calls it.
func (m *Manager) Free(r allocator.Region) error {
	m.lock()
	defer m.unlock()
	return m.freeLocked(r)
}

func (m *Manager) entryOf(a allocator.Allocator) *poolEntry {
	if a == nil {
		return nil
	}
	for _, e := range m.entries {
		if allocator.Allocator(e.alloc) == a {
			return e
		}
	}
	return nil
}

func (m *Manager) freeLocked(r allocator.Region) error {
	e := m.entryOf(r.Allocator())
	if e == nil {
		return fmt.Errorf("%w: allocator is not owned by this manager", ErrRegionNotFound)
	}
	if err := m.releaseRegion(e, r); err != nil {
		return err
	}

	if e.alloc.IsEmpty() {
		m.releaseEmpty(e)
	}
	m.sortPass()
	return nil
}

// releaseRegion returns r to its allocator without applying the retention policy.
func (m *Manager) releaseRegion(e *poolEntry, r allocator.Region) error {
	before := e.alloc.TotalFreeRegionByteLength()
	if err := e.alloc.Free(r); err != nil {
		return err
	}
	m.totalFree += e.alloc.TotalFreeRegionByteLength() - before
	m.operationCount++
	return nil
}

// releaseEmpty applies the retention policy to an allocator that just became empty: at
// most one empty allocator is kept warm, and of two empty ones the larger goes first.
func (m *Manager) releaseEmpty(e *poolEntry) {
	e.alloc.SetDedicated(false)

	if m.empty != nil && m.empty != e {
		larger, smaller := e, m.empty
		if m.empty.alloc.ByteLength() > e.alloc.ByteLength() {
			larger, smaller = m.empty, e
		}
		if m.canRemove(larger) {
			m.removeAllocator(larger)
			m.empty = smaller
		}
		return
	}

	if m.empty == nil {
		if m.budget.Budget().OverBudget() && m.canRemove(e) {
			m.removeAllocator(e)
			return
		}
		m.empty = e
	}
}

// sortPass runs a single bubble pass over the allocators by free bytes. The order is only
// eventually ascending.
func (m *Manager) sortPass() {
	for i := 1; i < len(m.entries); i++ {
		if m.entries[i-1].alloc.TotalFreeRegionByteLength() > m.entries[i].alloc.TotalFreeRegionByteLength() {
			m.entries[i-1], m.entries[i] = m.entries[i], m.entries[i-1]
		}
	}
}

// TrySetMinimumByteLength changes the floor on committed bytes. Lowering it destroys
// empty allocators from the back of the pool while both floors hold. Allocators are then
// added until the floor is met; it returns false when the allocator count ceiling stops
// it, keeping what was already added.
func (m *Manager) TrySetMinimumByteLength(minimumByteLength uint64) (bool, error) {
	m.lock()
	defer m.unlock()

	if m.closed {
		return false, ErrClosed
	}

	lowered := minimumByteLength < m.minimumByteLength
	m.minimumByteLength = minimumByteLength
	if lowered {
		for i := len(m.entries) - 1; i >= 0; i-- {
			e := m.entries[i]
			if e.alloc.IsEmpty() && m.canRemove(e) {
				m.removeAllocator(e)
			}
		}
	}

	// A lowered floor can still be above the pool after an earlier raise stopped at
	// the allocator count ceiling.
	for m.byteLength < minimumByteLength {
		if len(m.entries) >= m.conf.MaximumAllocatorCount {
			return false, nil
		}

		size := min(m.sharedAllocatorByteLength(0), minimumByteLength-m.byteLength)
		e, err := m.addAllocator(size, false)
		if err != nil {
			return false, err
		}
		if m.empty == nil {
			m.empty = e
		}
	}
	return true, nil
}

// Close disposes every heap. Regions still outstanding become invalid.
func (m *Manager) Close() error {
	m.lock()
	defer m.unlock()

	if m.closed {
		return ErrClosed
	}
	m.closed = true

	var errs []error
	for _, e := range m.entries {
		if err := e.heap.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing heap %s: %w", e.heap.Name(), err))
		}
	}
	m.entries = nil
	m.empty = nil
	m.byteLength = 0
	m.totalFree = 0
	return errors.Join(errs...)
}
