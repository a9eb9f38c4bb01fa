package allocator

import "math"

const nullIndex uint32 = math.MaxUint32

type regionNode struct {
	offset    uint64
	length    uint64
	alignment uint64

	next uint32
	prev uint32
	gen  uint32

	allocated bool
	indexed   bool
	inUse     bool
}

// nodeSlab hands out region nodes by index and recycles released slots.
// Pointers returned by get are invalidated by the next allocate.
type nodeSlab struct {
	nodes    []regionNode
	freeList uint32
	inUse    int
}

func newNodeSlab() nodeSlab {
	return nodeSlab{freeList: nullIndex}
}

func (s *nodeSlab) contentOfFreeList() []uint32 {
	var result []uint32
	n := s.freeList
	for n != nullIndex {
		result = append(result, n)
		n = s.nodes[n].next
	}
	return result
}

func (s *nodeSlab) allocate(offset uint64, length uint64) uint32 {
	var index uint32
	if s.freeList == nullIndex {
		s.nodes = append(s.nodes, regionNode{})
		index = uint32(len(s.nodes) - 1)
	} else {
		index = s.freeList
		s.freeList = s.nodes[index].next
	}

	n := &s.nodes[index]
	*n = regionNode{
		offset: offset,
		length: length,
		next:   nullIndex,
		prev:   nullIndex,
		gen:    n.gen,
		inUse:  true,
	}
	s.inUse++
	return index
}

func (s *nodeSlab) deallocate(index uint32) {
	n := &s.nodes[index]
	n.gen++
	n.inUse = false
	n.indexed = false
	n.prev = nullIndex
	n.next = s.freeList
	s.freeList = index
	s.inUse--
}

func (s *nodeSlab) get(index uint32) *regionNode {
	return &s.nodes[index]
}

// lookup returns the live node for index, or nil when the index is out of range or
// the slot is currently recycled.
func (s *nodeSlab) lookup(index uint32) *regionNode {
	if int(index) >= len(s.nodes) {
		return nil
	}
	n := &s.nodes[index]
	if !n.inUse {
		return nil
	}
	return n
}

// reset releases every slot. Generations keep counting so handles issued before the
// reset stay stale.
func (s *nodeSlab) reset() {
	s.freeList = nullIndex
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := &s.nodes[i]
		n.gen++
		n.inUse = false
		n.indexed = false
		n.prev = nullIndex
		n.next = s.freeList
		s.freeList = uint32(i)
	}
	s.inUse = 0
}
