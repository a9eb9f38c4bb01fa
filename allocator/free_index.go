package allocator

// The free index holds free nodes of at least registerMin bytes, sorted ascending by
// (length, offset). Offsets are unique, so every registered node has a unique position.

func (a *DefaultAllocator) lowerBound(length uint64, offset uint64) int {
	first := 0
	last := len(a.index)
	for first != last {
		mid := (first + last) >> 1
		n := a.slab.get(a.index[mid])
		if n.length < length || (n.length == length && n.offset < offset) {
			first = mid + 1
		} else {
			last = mid
		}
	}
	return first
}

func (a *DefaultAllocator) register(index uint32) {
	n := a.slab.get(index)
	if n.length < a.registerMin {
		return
	}

	pos := a.lowerBound(n.length, n.offset)
	a.index = append(a.index, 0)
	copy(a.index[pos+1:], a.index[pos:])
	a.index[pos] = index
	n.indexed = true
}

func (a *DefaultAllocator) unregister(index uint32) {
	n := a.slab.get(index)
	if !n.indexed {
		return
	}

	pos := a.lowerBound(n.length, n.offset)
	if pos == len(a.index) || a.index[pos] != index {
		panic("free index out of sync with partition list")
	}
	a.removeIndexAt(pos)
}

func (a *DefaultAllocator) removeIndexAt(pos int) {
	a.slab.get(a.index[pos]).indexed = false
	copy(a.index[pos:], a.index[pos+1:])
	a.index = a.index[:len(a.index)-1]
}

func (a *DefaultAllocator) contentOfIndex() []uint64 {
	result := make([]uint64, 0, len(a.index))
	for _, i := range a.index {
		result = append(result, a.slab.get(i).length)
	}
	return result
}
