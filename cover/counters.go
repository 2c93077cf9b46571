package cover

import (
	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// ThreadLocalCounters buffers hit counts privately for one worker so the
// hot increment path touches no shared memory and no atomics. Exactly one
// goroutine may use an instance; local counts cross a thread boundary only
// through the snapshot returned by Flush.
//
// Two flush operations exist and they are not symmetric. The explicit
// Flush exports a snapshot of every local count and zeroes the locals.
// The automatic flush, triggered when flushThreshold increments have
// accumulated, only resets the increments-since-flush counter and bumps
// FlushCount: local counts survive it. Automatic flush is a throttle on
// how often the threshold check fires, not a synchronization point; only
// the explicit Flush moves data.
type ThreadLocalCounters struct {
	counts           []uint64
	flushThreshold   int
	blocksSinceFlush int
	flushCount       int
}

// NewThreadLocalCounters creates a counter buffer for blockCount blocks.
// A threshold of 0 or less disables the automatic flush entirely.
func NewThreadLocalCounters(blockCount int, flushThreshold int) *ThreadLocalCounters {
	if blockCount < 0 {
		blockCount = 0
	}
	return &ThreadLocalCounters{
		counts:         make([]uint64, blockCount),
		flushThreshold: flushThreshold,
	}
}

// Increment records one hit for block. Out-of-range blocks are silently
// ignored; the counter space never grows.
func (c *ThreadLocalCounters) Increment(block wasmcoverage.BlockID) {
	idx := uint64(block)
	if idx >= uint64(len(c.counts)) {
		return
	}
	c.counts[idx]++
	c.blocksSinceFlush++
	if c.flushThreshold > 0 && c.blocksSinceFlush >= c.flushThreshold {
		// Throttle-only: counts stay put, see the type doc.
		c.blocksSinceFlush = 0
		c.flushCount++
	}
}

// Get returns block's current local count, 0 when out of range.
func (c *ThreadLocalCounters) Get(block wasmcoverage.BlockID) uint64 {
	idx := uint64(block)
	if idx >= uint64(len(c.counts)) {
		return 0
	}
	return c.counts[idx]
}

// Flush returns a snapshot of all local counts and resets every local
// counter to zero. The returned slice is owned by the caller.
func (c *ThreadLocalCounters) Flush() []uint64 {
	snapshot := make([]uint64, len(c.counts))
	copy(snapshot, c.counts)
	for i := range c.counts {
		c.counts[i] = 0
	}
	c.blocksSinceFlush = 0
	c.flushCount++
	return snapshot
}

// FlushCount returns how many flushes, automatic or explicit, have
// occurred.
func (c *ThreadLocalCounters) FlushCount() int {
	return c.flushCount
}

// BlockCount returns the size of the local counter space.
func (c *ThreadLocalCounters) BlockCount() int {
	return len(c.counts)
}
