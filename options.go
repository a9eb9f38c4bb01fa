package heappool

import (
	"fmt"
	"strings"

	"github.com/QuangTung97/heappool/allocator"
)

// AllocationFlags ...
type AllocationFlags uint32

const (
	// AllocationNone ...
	AllocationNone AllocationFlags = 0
	// AllocationDedicated places the allocation in a new allocator owned by it alone.
	AllocationDedicated AllocationFlags = 1 << (iota - 1)
	// AllocationExistingOnly forbids creating a new allocator.
	AllocationExistingOnly
	// AllocationCanExceedBudget permits growth past the memory budget.
	AllocationCanExceedBudget

	allocationFlagsMask = AllocationDedicated | AllocationExistingOnly | AllocationCanExceedBudget
)

var allocationFlagNames = []struct {
	flag AllocationFlags
	name string
}{
	{AllocationDedicated, "Dedicated"},
	{AllocationExistingOnly, "ExistingOnly"},
	{AllocationCanExceedBudget, "CanExceedBudget"},
}

func (f AllocationFlags) String() string {
	if f == AllocationNone {
		return "None"
	}
	var parts []string
	for _, n := range allocationFlagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if f&^allocationFlagsMask != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(f&^allocationFlagsMask)))
	}
	return strings.Join(parts, "|")
}

// AllocationOptions ...
type AllocationOptions struct {
	ByteLength    uint64
	ByteAlignment uint64
	Flags         AllocationFlags
}

func (o AllocationOptions) validate() error {
	if err := allocator.ValidateRequest(o.ByteLength, o.ByteAlignment); err != nil {
		return err
	}
	if o.Flags&^allocationFlagsMask != 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFlags, o.Flags)
	}
	if o.Flags&AllocationDedicated != 0 && o.Flags&AllocationExistingOnly != 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFlags, o.Flags)
	}
	return nil
}
