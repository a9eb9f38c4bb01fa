package heap

import (
	"fmt"
	"sync"
)

// HostHeap is a heap backed by host memory.
type HostHeap struct {
	mu      sync.Mutex
	name    string
	length  uint64
	flags   PlacementFlags
	data    []byte
	closed  bool
	release func(h *HostHeap) error
}

var _ Heap = (*HostHeap)(nil)

// ByteLength ...
func (h *HostHeap) ByteLength() uint64 {
	return h.length
}

// PlacementFlags ...
func (h *HostHeap) PlacementFlags() PlacementFlags {
	return h.flags
}

// Name ...
func (h *HostHeap) Name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.name
}

// SetName ...
func (h *HostHeap) SetName(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.name = name
}

// Bytes returns the backing memory, or nil for accounting-only heaps.
func (h *HostHeap) Bytes() []byte {
	return h.data
}

// Slice returns the backing bytes of [offset, offset+length).
func (h *HostHeap) Slice(offset uint64, length uint64) ([]byte, error) {
	if h.data == nil || offset+length > uint64(len(h.data)) || offset+length < offset {
		return nil, fmt.Errorf("%w: [%d, %d) outside heap of %d bytes", ErrBadArgument, offset, offset+length, len(h.data))
	}
	return h.data[offset : offset+length : offset+length], nil
}

// Close ...
func (h *HostHeap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHeapClosed
	}
	h.closed = true
	err := h.release(h)
	h.data = nil
	return err
}

func (h *HostHeap) String() string {
	return fmt.Sprintf("%s(%d bytes, %v)", h.Name(), h.length, h.flags)
}

func validateCreate(byteLength uint64, flags PlacementFlags) error {
	if byteLength == 0 {
		return fmt.Errorf("%w: zero byte length", ErrBadArgument)
	}
	if !flags.Valid() {
		return fmt.Errorf("%w: placement flags %v", ErrBadArgument, flags)
	}
	return nil
}
