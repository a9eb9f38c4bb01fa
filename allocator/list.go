package allocator

// The partition list orders every node of the allocator by offset. Links are slab indices.

func (a *DefaultAllocator) insertAfter(at uint32, index uint32) {
	node := a.slab.get(index)
	head := a.slab.get(at)

	node.prev = at
	node.next = head.next
	if head.next != nullIndex {
		a.slab.get(head.next).prev = index
	} else {
		a.tail = index
	}
	head.next = index
}

func (a *DefaultAllocator) insertBefore(at uint32, index uint32) {
	node := a.slab.get(index)
	head := a.slab.get(at)

	node.next = at
	node.prev = head.prev
	if head.prev != nullIndex {
		a.slab.get(head.prev).next = index
	} else {
		a.head = index
	}
	head.prev = index
}

func (a *DefaultAllocator) unlink(index uint32) {
	node := a.slab.get(index)

	if node.next != nullIndex {
		a.slab.get(node.next).prev = node.prev
	} else {
		a.tail = node.prev
	}

	if node.prev != nullIndex {
		a.slab.get(node.prev).next = node.next
	} else {
		a.head = node.next
	}

	node.next = nullIndex
	node.prev = nullIndex
}

func (a *DefaultAllocator) contentOfList() []uint32 {
	var result []uint32
	n := a.head
	for n != nullIndex {
		result = append(result, n)
		n = a.slab.get(n).next
	}
	return result
}
