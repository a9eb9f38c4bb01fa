package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeSlab_Recycle(t *testing.T) {
	s := newNodeSlab()

	assert.Equal(t, uint32(0), s.allocate(0, 10))
	assert.Equal(t, uint32(1), s.allocate(10, 20))
	assert.Equal(t, uint32(2), s.allocate(30, 40))
	assert.Equal(t, 3, s.inUse)
	assert.Equal(t, []uint32(nil), s.contentOfFreeList())

	s.deallocate(1)
	s.deallocate(0)
	assert.Equal(t, []uint32{0, 1}, s.contentOfFreeList())
	assert.Equal(t, 1, s.inUse)
	assert.Nil(t, s.lookup(0))
	assert.Nil(t, s.lookup(1))
	assert.NotNil(t, s.lookup(2))
	assert.Nil(t, s.lookup(3))

	index := s.allocate(50, 60)
	assert.Equal(t, uint32(0), index)
	assert.Equal(t, []uint32{1}, s.contentOfFreeList())

	n := s.get(index)
	assert.Equal(t, uint64(50), n.offset)
	assert.Equal(t, uint64(60), n.length)
	assert.Equal(t, uint32(1), n.gen)
	assert.Equal(t, nullIndex, n.next)
	assert.Equal(t, nullIndex, n.prev)
}

func TestNodeSlab_Reset(t *testing.T) {
	s := newNodeSlab()
	s.allocate(0, 10)
	s.allocate(10, 20)
	s.allocate(30, 40)
	s.deallocate(1)

	s.reset()
	assert.Equal(t, []uint32{0, 1, 2}, s.contentOfFreeList())
	assert.Equal(t, 0, s.inUse)
	assert.Equal(t, uint32(1), s.get(0).gen)
	assert.Equal(t, uint32(2), s.get(1).gen)
	assert.Equal(t, uint32(1), s.get(2).gen)

	assert.Equal(t, uint32(0), s.allocate(0, 100))
	assert.Equal(t, []uint32{1, 2}, s.contentOfFreeList())
}
