package allocator

import "fmt"

// Validate walks the partition list and the free index and reports the first broken
// invariant, wrapped in ErrCorrupt.
func (a *DefaultAllocator) Validate() error {
	var (
		offset    uint64
		free      uint64
		freeCount int
		count     int
		prev      = nullIndex
		prevFree  bool
		indexed   int
	)

	for index := a.head; index != nullIndex; index = a.slab.get(index).next {
		n := a.slab.get(index)
		switch {
		case !n.inUse:
			return fmt.Errorf("%w: node %d is recycled but linked", ErrCorrupt, index)
		case n.prev != prev:
			return fmt.Errorf("%w: node %d has prev %d, want %d", ErrCorrupt, index, n.prev, prev)
		case n.offset != offset:
			return fmt.Errorf("%w: node %d starts at %d, want %d", ErrCorrupt, index, n.offset, offset)
		case n.length == 0:
			return fmt.Errorf("%w: node %d is empty", ErrCorrupt, index)
		}

		if !n.allocated {
			if prevFree {
				return fmt.Errorf("%w: adjacent free nodes at offset %d", ErrCorrupt, n.offset)
			}
			free += n.length
			freeCount++

			shouldIndex := n.length >= a.registerMin
			if n.indexed != shouldIndex {
				return fmt.Errorf("%w: free node %d of %d bytes indexed=%v", ErrCorrupt, index, n.length, n.indexed)
			}
			if n.indexed {
				indexed++
			}
		} else if n.indexed {
			return fmt.Errorf("%w: allocated node %d is indexed", ErrCorrupt, index)
		}

		offset += n.length
		prevFree = !n.allocated
		prev = index
		count++
	}

	if prev != a.tail {
		return fmt.Errorf("%w: tail is %d, want %d", ErrCorrupt, a.tail, prev)
	}
	if offset != a.byteLength {
		return fmt.Errorf("%w: partition covers %d of %d bytes", ErrCorrupt, offset, a.byteLength)
	}
	if free != a.totalFree {
		return fmt.Errorf("%w: free bytes %d, tracked %d", ErrCorrupt, free, a.totalFree)
	}
	if freeCount != a.freeCount {
		return fmt.Errorf("%w: free nodes %d, tracked %d", ErrCorrupt, freeCount, a.freeCount)
	}
	if count != a.slab.inUse {
		return fmt.Errorf("%w: %d nodes linked, %d in use", ErrCorrupt, count, a.slab.inUse)
	}
	if indexed != len(a.index) {
		return fmt.Errorf("%w: %d nodes flagged indexed, index holds %d", ErrCorrupt, indexed, len(a.index))
	}

	for i := 1; i < len(a.index); i++ {
		l := a.slab.get(a.index[i-1])
		r := a.slab.get(a.index[i])
		if l.length > r.length || (l.length == r.length && l.offset >= r.offset) {
			return fmt.Errorf("%w: free index unsorted at %d", ErrCorrupt, i)
		}
	}
	return nil
}
