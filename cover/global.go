package cover

import (
	"sync"

	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// GlobalCounters is the merge point where per-worker snapshots become
// shared state. All access is serialized by an internal mutex; workers
// only touch it when they flush, so contention is bounded by flush
// frequency rather than by increment frequency.
type GlobalCounters struct {
	mu     sync.Mutex
	counts []uint64
}

// NewGlobalCounters creates an accumulator for blockCount blocks.
func NewGlobalCounters(blockCount int) *GlobalCounters {
	if blockCount < 0 {
		blockCount = 0
	}
	return &GlobalCounters{counts: make([]uint64, blockCount)}
}

// Merge adds a flushed snapshot into the accumulator. Snapshots longer
// than the global counter space are truncated; shorter ones merge what
// they have.
func (g *GlobalCounters) Merge(snapshot []uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(snapshot)
	if n > len(g.counts) {
		n = len(g.counts)
	}
	for i := 0; i < n; i++ {
		g.counts[i] += snapshot[i]
	}
}

// Get returns the merged count for block, 0 when out of range.
func (g *GlobalCounters) Get(block wasmcoverage.BlockID) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := uint64(block)
	if idx >= uint64(len(g.counts)) {
		return 0
	}
	return g.counts[idx]
}

// Snapshot returns a copy of all merged counts.
func (g *GlobalCounters) Snapshot() []uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]uint64, len(g.counts))
	copy(out, g.counts)
	return out
}

// CoveredCount returns how many blocks have a nonzero merged count.
func (g *GlobalCounters) CoveredCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	covered := 0
	for _, c := range g.counts {
		if c > 0 {
			covered++
		}
	}
	return covered
}

// BlockCount returns the size of the global counter space.
func (g *GlobalCounters) BlockCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.counts)
}
