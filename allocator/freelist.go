package allocator

import "fmt"

// DefaultAllocator is a best-fit free-list allocator over [0, ByteLength).
// It does no locking; callers serialize access.
type DefaultAllocator struct {
	byteLength       uint64
	margin           uint64
	registerMin      uint64
	defaultAlignment uint64
	dedicated        bool
	owner            Owner

	slab  nodeSlab
	head  uint32
	tail  uint32
	index []uint32

	totalFree uint64
	freeCount int
}

var _ Allocator = (*DefaultAllocator)(nil)

// ByteLength ...
func (a *DefaultAllocator) ByteLength() uint64 {
	return a.byteLength
}

// IsEmpty reports whether a single free region spans the whole allocator.
func (a *DefaultAllocator) IsEmpty() bool {
	return a.freeCount == 1 && a.totalFree == a.byteLength
}

// IsDedicated ...
func (a *DefaultAllocator) IsDedicated() bool {
	return a.dedicated
}

// SetDedicated changes the mark reported by IsDedicated. The allocator itself does not
// act on it.
func (a *DefaultAllocator) SetDedicated(dedicated bool) {
	a.dedicated = dedicated
}

// TotalFreeRegionByteLength ...
func (a *DefaultAllocator) TotalFreeRegionByteLength() uint64 {
	return a.totalFree
}

// FreeRegionCount counts every free region, indexed or not.
func (a *DefaultAllocator) FreeRegionCount() int {
	return a.freeCount
}

// Clear drops every outstanding region. Regions issued before the call become stale.
func (a *DefaultAllocator) Clear() {
	if a.slab.nodes == nil {
		a.slab = newNodeSlab()
	} else {
		a.slab.reset()
	}
	a.index = a.index[:0]

	root := a.slab.allocate(0, a.byteLength)
	a.head = root
	a.tail = root
	a.totalFree = a.byteLength
	a.freeCount = 1
	a.register(root)
}

// TryAllocate carves byteLength bytes aligned to byteAlignment out of the smallest
// registered free region that fits. It returns false when nothing fits.
func (a *DefaultAllocator) TryAllocate(byteLength uint64, byteAlignment uint64) (Region, bool, error) {
	if err := validateRequest(byteLength, byteAlignment); err != nil {
		return Region{}, false, err
	}
	if byteAlignment == 0 {
		byteAlignment = a.defaultAlignment
	}

	if byteLength > a.byteLength || a.margin > (a.byteLength-byteLength)/2 {
		return Region{}, false, nil
	}
	need := byteLength + 2*a.margin
	if a.totalFree < need {
		return Region{}, false, nil
	}

	for pos := a.lowerBound(need, 0); pos < len(a.index); pos++ {
		index := a.index[pos]
		n := a.slab.get(index)

		start := n.offset + a.margin
		alignedStart := alignUp(start, byteAlignment)
		if alignedStart < start {
			continue
		}
		paddingBegin := alignedStart - n.offset
		if paddingBegin > n.length || n.length-paddingBegin < byteLength+a.margin {
			continue
		}

		a.removeIndexAt(pos)
		return a.split(index, alignedStart, byteLength, byteAlignment), true, nil
	}
	return Region{}, false, nil
}

// Allocate is TryAllocate reporting ErrOutOfMemory instead of false.
func (a *DefaultAllocator) Allocate(byteLength uint64, byteAlignment uint64) (Region, error) {
	r, ok, err := a.TryAllocate(byteLength, byteAlignment)
	if err != nil {
		return Region{}, err
	}
	if !ok {
		return Region{}, fmt.Errorf("%w: %d bytes aligned to %d", ErrOutOfMemory, byteLength, byteAlignment)
	}
	return r, nil
}

// split turns the unregistered free node at index into an allocated node of exactly
// byteLength at alignedStart, inserting free nodes for the leading and trailing rest.
func (a *DefaultAllocator) split(index uint32, alignedStart uint64, byteLength uint64, byteAlignment uint64) Region {
	n := a.slab.get(index)
	offset := n.offset
	paddingBegin := alignedStart - offset
	paddingEnd := n.length - paddingBegin - byteLength

	n.offset = alignedStart
	n.length = byteLength
	n.alignment = byteAlignment
	n.allocated = true
	n.gen++

	a.freeCount--
	a.totalFree -= byteLength

	if paddingBegin > 0 {
		before := a.slab.allocate(offset, paddingBegin)
		a.insertBefore(index, before)
		a.freeCount++
		a.register(before)
	}
	if paddingEnd > 0 {
		after := a.slab.allocate(alignedStart+byteLength, paddingEnd)
		a.insertAfter(index, after)
		a.freeCount++
		a.register(after)
	}

	return a.regionOf(index)
}

func (a *DefaultAllocator) regionOf(index uint32) Region {
	n := a.slab.get(index)
	return Region{
		byteOffset:    n.offset,
		byteLength:    n.length,
		byteAlignment: n.alignment,
		allocated:     n.allocated,
		allocator:     a,
		owner:         a.owner,
		node:          index,
		gen:           n.gen,
	}
}

func (a *DefaultAllocator) find(r Region) (uint32, bool) {
	if r.allocator != Allocator(a) {
		return nullIndex, false
	}
	n := a.slab.lookup(r.node)
	if n == nil || n.gen != r.gen || n.offset != r.byteOffset || n.length != r.byteLength {
		return nullIndex, false
	}
	return r.node, true
}

// Free returns the region to the free list, merging it with free neighbours.
func (a *DefaultAllocator) Free(r Region) error {
	index, ok := a.find(r)
	if !ok {
		return fmt.Errorf("%w: %v", ErrRegionNotFound, r)
	}

	n := a.slab.get(index)
	if !n.allocated {
		return nil
	}
	n.allocated = false
	n.alignment = 0
	n.gen++

	a.freeCount++
	a.totalFree += n.length

	if next := n.next; next != nullIndex && !a.slab.get(next).allocated {
		a.unregister(next)
		n.length += a.slab.get(next).length
		a.unlink(next)
		a.slab.deallocate(next)
		a.freeCount--
	}

	if prev := n.prev; prev != nullIndex && !a.slab.get(prev).allocated {
		a.unregister(prev)
		a.slab.get(prev).length += n.length
		a.unlink(index)
		a.slab.deallocate(index)
		a.freeCount--
		index = prev
	}

	a.register(index)
	return nil
}

// Regions returns every free and allocated region in offset order.
func (a *DefaultAllocator) Regions() []Region {
	result := make([]Region, 0, a.slab.inUse)
	for _, index := range a.contentOfList() {
		result = append(result, a.regionOf(index))
	}
	return result
}
