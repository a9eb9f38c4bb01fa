package main

import (
	"testing"

	"github.com/QuangTung97/heappool"
	"github.com/QuangTung97/heappool/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPool(t *testing.T) *heappool.Manager {
	conf := heappool.DefaultConfig()
	conf.MinimumSharedAllocatorByteLength = 1 << 20
	conf.MaximumSharedAllocatorByteLength = 16 << 20
	conf.DefaultByteAlignment = 64
	conf.MinimumFreeRegionByteLengthToRegister = 64

	m, err := heappool.New(conf, heap.NewMemoryFactory(heap.MemoryFactoryOptions{Limit: 1 << 30}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSimulate(t *testing.T) {
	m := newTestPool(t)

	result, err := simulate(m, workload{
		Operations:    2000,
		Seed:          7,
		MaxByteLength: 64 << 10,
	})
	require.NoError(t, err)

	assert.Equal(t, result.Allocations, result.Frees)
	assert.Equal(t, 0, result.Failures)
	assert.Greater(t, result.Allocations, 0)
	assert.Equal(t, result.PeakByteLength, result.Peak.ByteLength)
	assert.Equal(t, result.Final.ByteLength, result.Final.TotalFree)
	assert.True(t, m.IsEmpty())
}

func TestSimulate_SameSeedSameResult(t *testing.T) {
	w := workload{Operations: 500, Seed: 3, MaxByteLength: 1 << 20}

	r1, err := simulate(newTestPool(t), w)
	require.NoError(t, err)
	r2, err := simulate(newTestPool(t), w)
	require.NoError(t, err)

	assert.Equal(t, r1.Allocations, r2.Allocations)
	assert.Equal(t, r1.PeakByteLength, r2.PeakByteLength)
	assert.Equal(t, r1.Final.ByteLength, r2.Final.ByteLength)
}

func TestSimulate_ZeroMaxSize(t *testing.T) {
	_, err := simulate(newTestPool(t), workload{Operations: 1})
	assert.Error(t, err)
}
