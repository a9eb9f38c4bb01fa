package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementFlags_String(t *testing.T) {
	table := []struct {
		flags    PlacementFlags
		expected string
	}{
		{PlacementNone, "None"},
		{PlacementBuffers, "Buffers"},
		{PlacementBuffers | PlacementTextures, "Buffers|Textures"},
		{PlacementRenderTargets | 1<<10, "RenderTargets|Unknown"},
	}

	for _, e := range table {
		t.Run(e.expected, func(t *testing.T) {
			assert.Equal(t, e.expected, e.flags.String())
		})
	}

	assert.True(t, (PlacementBuffers | PlacementRenderTargets).Valid())
	assert.False(t, PlacementFlags(1<<10).Valid())
}

func TestBudget(t *testing.T) {
	b := Budget{EstimatedUsage: 30, EstimatedLimit: 100}
	assert.Equal(t, uint64(70), b.Headroom())
	assert.False(t, b.OverBudget())

	b = Budget{EstimatedUsage: 130, EstimatedLimit: 100}
	assert.Equal(t, uint64(0), b.Headroom())
	assert.True(t, b.OverBudget())

	src := BudgetFunc(func() Budget { return Budget{EstimatedLimit: 5} })
	assert.Equal(t, uint64(5), src.Budget().EstimatedLimit)
}

func TestMemoryFactory_Lifecycle(t *testing.T) {
	f := NewMemoryFactory(MemoryFactoryOptions{Limit: 1 << 20})

	h1, err := f.CreateHeap(4096, PlacementBuffers)
	require.NoError(t, err)
	h2, err := f.CreateHeap(8192, PlacementNone)
	require.NoError(t, err)

	assert.Equal(t, uint64(4096), h1.ByteLength())
	assert.Equal(t, PlacementBuffers, h1.PlacementFlags())
	assert.Nil(t, h1.(*HostHeap).Bytes())
	assert.Equal(t, Budget{EstimatedUsage: 4096 + 8192, EstimatedLimit: 1 << 20}, f.Budget())
	assert.Equal(t, 2, f.LiveHeaps())

	h1.SetName("pool/heap-1")
	assert.Equal(t, "pool/heap-1", h1.Name())

	require.NoError(t, h1.Close())
	assert.ErrorIs(t, h1.Close(), ErrHeapClosed)
	assert.Equal(t, uint64(8192), f.Committed())
	assert.Equal(t, 1, f.LiveHeaps())
	assert.Equal(t, 2, f.CreatedHeaps())

	require.NoError(t, h2.Close())
	assert.Equal(t, uint64(0), f.Committed())

	f.SetLimit(10)
	assert.Equal(t, uint64(10), f.Budget().EstimatedLimit)
}

func TestMemoryFactory_BadArguments(t *testing.T) {
	f := NewMemoryFactory(MemoryFactoryOptions{Limit: 1 << 20})

	_, err := f.CreateHeap(0, PlacementNone)
	assert.ErrorIs(t, err, ErrBadArgument)

	_, err = f.CreateHeap(64, PlacementFlags(1<<20))
	assert.ErrorIs(t, err, ErrBadArgument)
	assert.Equal(t, 0, f.CreatedHeaps())
}

func TestMemoryFactory_HardLimit(t *testing.T) {
	f := NewMemoryFactory(MemoryFactoryOptions{Limit: 8192, HardLimit: true})

	_, err := f.CreateHeap(8192, PlacementNone)
	require.NoError(t, err)

	_, err = f.CreateHeap(1, PlacementNone)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Equal(t, uint64(8192), f.Committed())
}

func TestMemoryFactory_Backed(t *testing.T) {
	f := NewMemoryFactory(MemoryFactoryOptions{Limit: 1 << 20, Backed: true})

	h, err := f.CreateHeap(4096, PlacementNone)
	require.NoError(t, err)
	host := h.(*HostHeap)
	assert.Equal(t, 4096, len(host.Bytes()))

	b, err := host.Slice(100, 28)
	require.NoError(t, err)
	assert.Equal(t, 28, len(b))
	assert.Equal(t, 28, cap(b))
	copy(b, "hello")
	assert.Equal(t, byte('h'), host.Bytes()[100])

	_, err = host.Slice(4090, 10)
	assert.ErrorIs(t, err, ErrBadArgument)

	require.NoError(t, h.Close())
	assert.Nil(t, host.Bytes())
}
