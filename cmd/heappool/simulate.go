package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/QuangTung97/heappool"
	"github.com/QuangTung97/heappool/allocator"
)

type workload struct {
	Operations    int
	Seed          int64
	MaxByteLength uint64
}

type simulateResult struct {
	Allocations    int            `yaml:"allocations"`
	Dedicated      int            `yaml:"dedicated"`
	Failures       int            `yaml:"failures"`
	Frees          int            `yaml:"frees"`
	PeakByteLength uint64         `yaml:"peakByteLength"`
	Peak           heappool.Stats `yaml:"peak"`
	Final          heappool.Stats `yaml:"final"`
}

var workloadAlignments = []uint64{0, 16, 256, 4096}

// simulate runs a random mix of allocations and frees, then frees whatever is left.
func simulate(m *heappool.Manager, w workload) (simulateResult, error) {
	if w.MaxByteLength == 0 {
		return simulateResult{}, errors.New("max byte length must be > 0")
	}

	rnd := rand.New(rand.NewSource(w.Seed))

	var (
		result simulateResult
		live   []allocator.Region
	)

	for i := 0; i < w.Operations; i++ {
		if len(live) > 0 && rnd.Intn(5) < 2 {
			k := rnd.Intn(len(live))
			if err := live[k].Dispose(); err != nil {
				return result, fmt.Errorf("freeing %v: %w", live[k], err)
			}
			live[k] = live[len(live)-1]
			live = live[:len(live)-1]
			result.Frees++
			continue
		}

		opts := heappool.AllocationOptions{
			ByteLength:    uint64(rnd.Int63n(int64(w.MaxByteLength))) + 1,
			ByteAlignment: workloadAlignments[rnd.Intn(len(workloadAlignments))],
		}
		if rnd.Intn(64) == 0 {
			opts.Flags |= heappool.AllocationDedicated
		}

		r, ok, err := m.TryAllocate(opts)
		if err != nil {
			return result, err
		}
		if !ok {
			result.Failures++
			continue
		}
		live = append(live, r)
		result.Allocations++
		if opts.Flags&heappool.AllocationDedicated != 0 {
			result.Dedicated++
		}

		if n := m.ByteLength(); n > result.PeakByteLength {
			result.PeakByteLength = n
			result.Peak = m.Stats()
		}
	}

	for _, r := range live {
		if err := r.Dispose(); err != nil {
			return result, fmt.Errorf("freeing %v: %w", r, err)
		}
		result.Frees++
	}
	result.Final = m.Stats()
	return result, nil
}
