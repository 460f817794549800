package feature

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

// DefaultWeightCap is the default limit on float32 weight cells across
// all features in the process: 1 GiB.
const DefaultWeightCap = 1 << 28

const cellSize = 4

var ErrWeightCapExceeded = errors.New("weight allocation exceeds cap")

type allocator struct {
	sync.Mutex
	total int64
	cap   int64
}

var weightAllocator = &allocator{cap: DefaultWeightCap}

func (a *allocator) alloc(n int) ([]float32, error) {
	a.Lock()
	defer a.Unlock()
	if a.total+int64(n) > a.cap {
		return nil, fmt.Errorf("%w: %d cells requested, %d of %d in use",
			ErrWeightCapExceeded, n, a.total, a.cap)
	}
	a.total += int64(n)
	return make([]float32, n), nil
}

func (a *allocator) release(n int) {
	a.Lock()
	defer a.Unlock()
	a.total -= int64(n)
	if a.total < 0 {
		a.total = 0
	}
}

// SetWeightCap changes the process-wide cell limit. It does not affect
// tables that are already allocated.
func SetWeightCap(cells int64) {
	weightAllocator.Lock()
	defer weightAllocator.Unlock()
	weightAllocator.cap = cells
}

// WeightCap returns the current cell limit.
func WeightCap() int64 {
	weightAllocator.Lock()
	defer weightAllocator.Unlock()
	return weightAllocator.cap
}

// WeightCellsAllocated returns the number of cells currently handed out.
func WeightCellsAllocated() int64 {
	weightAllocator.Lock()
	defer weightAllocator.Unlock()
	return weightAllocator.total
}

// Release returns a feature's cells to the allocator. The feature must not
// be used afterwards.
func Release(f Feature) {
	n := f.Size()
	if p, ok := f.(*Pattern); ok {
		p.weight = nil
	}
	weightAllocator.release(n)
}

// SystemWeightCap returns DefaultWeightCap, lowered so the tables never
// take more than half of physical memory.
func SystemWeightCap() int64 {
	total := memory.TotalMemory()
	if total == 0 {
		log.Warn().Msg("could not determine system memory; using default weight cap")
		return DefaultWeightCap
	}
	cells := int64(total / 2 / cellSize)
	if cells > DefaultWeightCap {
		cells = DefaultWeightCap
	}
	log.Debug().Uint64("system-memory", total).Int64("cap-cells", cells).Msg("weight-cap")
	return cells
}
