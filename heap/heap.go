// Package heap declares the device heap collaborators used by the pool manager and
// provides host-memory backed implementations of them.
package heap

import "strings"

// PlacementFlags describe which resource kinds a heap may hold. The manager passes them
// through to the factory unchanged.
type PlacementFlags uint32

const (
	// PlacementNone places no restriction on the heap.
	PlacementNone PlacementFlags = 0
	// PlacementBuffers ...
	PlacementBuffers PlacementFlags = 1 << (iota - 1)
	// PlacementTextures ...
	PlacementTextures
	// PlacementRenderTargets ...
	PlacementRenderTargets

	placementMask = PlacementBuffers | PlacementTextures | PlacementRenderTargets
)

var placementFlagNames = []struct {
	flag PlacementFlags
	name string
}{
	{PlacementBuffers, "Buffers"},
	{PlacementTextures, "Textures"},
	{PlacementRenderTargets, "RenderTargets"},
}

func (f PlacementFlags) String() string {
	if f == PlacementNone {
		return "None"
	}
	var parts []string
	for _, n := range placementFlagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if f&^placementMask != 0 {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}

// Valid reports whether only defined bits are set.
func (f PlacementFlags) Valid() bool {
	return f&^placementMask == 0
}

// Heap is one physically backed block of memory.
type Heap interface {
	ByteLength() uint64
	PlacementFlags() PlacementFlags

	// Name and SetName carry a diagnostic label.
	Name() string
	SetName(name string)

	// Close disposes the heap. A second call returns ErrHeapClosed.
	Close() error
}

// Factory creates heaps.
type Factory interface {
	CreateHeap(byteLength uint64, flags PlacementFlags) (Heap, error)
}

// Budget is an estimate of the memory in use and the memory available to the process.
type Budget struct {
	EstimatedUsage uint64
	EstimatedLimit uint64
}

// Headroom returns how many more bytes fit under the limit.
func (b Budget) Headroom() uint64 {
	if b.EstimatedUsage >= b.EstimatedLimit {
		return 0
	}
	return b.EstimatedLimit - b.EstimatedUsage
}

// OverBudget ...
func (b Budget) OverBudget() bool {
	return b.EstimatedUsage > b.EstimatedLimit
}

// BudgetSource answers budget queries.
type BudgetSource interface {
	Budget() Budget
}

// BudgetFunc adapts a function to BudgetSource.
type BudgetFunc func() Budget

// Budget ...
func (f BudgetFunc) Budget() Budget {
	return f()
}
