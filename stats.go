package heappool

// HeapStats describes one heap of the pool.
type HeapStats struct {
	Name            string `yaml:"name"`
	ByteLength      uint64 `yaml:"byteLength"`
	TotalFree       uint64 `yaml:"totalFree"`
	FreeRegionCount int    `yaml:"freeRegionCount"`
	Dedicated       bool   `yaml:"dedicated"`
	Empty           bool   `yaml:"empty"`
	Cached          bool   `yaml:"cached"`
}

// Stats is a snapshot of the pool, heaps listed in pool order.
type Stats struct {
	ByteLength        uint64      `yaml:"byteLength"`
	TotalFree         uint64      `yaml:"totalFree"`
	MinimumByteLength uint64      `yaml:"minimumByteLength"`
	OperationCount    uint64      `yaml:"operationCount"`
	Heaps             []HeapStats `yaml:"heaps"`
}

// ByteLength returns the bytes committed across all heaps.
func (m *Manager) ByteLength() uint64 {
	m.lock()
	defer m.unlock()
	return m.byteLength
}

// TotalFreeRegionByteLength ...
func (m *Manager) TotalFreeRegionByteLength() uint64 {
	m.lock()
	defer m.unlock()
	return m.totalFree
}

// OperationCount counts allocation attempts and frees.
func (m *Manager) OperationCount() uint64 {
	m.lock()
	defer m.unlock()
	return m.operationCount
}

// MinimumByteLength ...
func (m *Manager) MinimumByteLength() uint64 {
	m.lock()
	defer m.unlock()
	return m.minimumByteLength
}

// AllocatorCount ...
func (m *Manager) AllocatorCount() int {
	m.lock()
	defer m.unlock()
	return len(m.entries)
}

// IsEmpty reports whether no region is allocated from any heap.
func (m *Manager) IsEmpty() bool {
	m.lock()
	defer m.unlock()
	for _, e := range m.entries {
		if !e.alloc.IsEmpty() {
			return false
		}
	}
	return true
}

// Stats ...
func (m *Manager) Stats() Stats {
	m.lock()
	defer m.unlock()

	s := Stats{
		ByteLength:        m.byteLength,
		TotalFree:         m.totalFree,
		MinimumByteLength: m.minimumByteLength,
		OperationCount:    m.operationCount,
		Heaps:             make([]HeapStats, 0, len(m.entries)),
	}
	for _, e := range m.entries {
		s.Heaps = append(s.Heaps, HeapStats{
			Name:            e.heap.Name(),
			ByteLength:      e.alloc.ByteLength(),
			TotalFree:       e.alloc.TotalFreeRegionByteLength(),
			FreeRegionCount: e.alloc.FreeRegionCount(),
			Dedicated:       e.alloc.IsDedicated(),
			Empty:           e.alloc.IsEmpty(),
			Cached:          e == m.empty,
		})
	}
	return s
}
