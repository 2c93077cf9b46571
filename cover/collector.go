package cover

import (
	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// Collector is the granularity-aware recording facade a worker owns. It
// holds one ThreadLocalCounters per identifier space and records into the
// space selected by the configured granularity; records for the other
// spaces are dropped. Like the counters it wraps, a Collector belongs to
// exactly one goroutine.
type Collector struct {
	granularity wasmcoverage.Granularity
	blocks      *ThreadLocalCounters
	functions   *ThreadLocalCounters
	edges       *ThreadLocalCounters
}

// CollectorSpec sizes the three identifier spaces. Spaces sized zero
// ignore every record.
type CollectorSpec struct {
	Granularity    wasmcoverage.Granularity
	BlockCount     int
	FunctionCount  int
	EdgeCount      int
	FlushThreshold int
}

// NewCollector creates a collector recording at spec.Granularity.
func NewCollector(spec CollectorSpec) *Collector {
	return &Collector{
		granularity: spec.Granularity,
		blocks:      NewThreadLocalCounters(spec.BlockCount, spec.FlushThreshold),
		functions:   NewThreadLocalCounters(spec.FunctionCount, spec.FlushThreshold),
		edges:       NewThreadLocalCounters(spec.EdgeCount, spec.FlushThreshold),
	}
}

// Granularity returns the space this collector records into.
func (c *Collector) Granularity() wasmcoverage.Granularity {
	return c.granularity
}

// RecordBlock records a block hit when block granularity is selected.
func (c *Collector) RecordBlock(id wasmcoverage.BlockID) {
	if c.granularity == wasmcoverage.GranularityBlock {
		c.blocks.Increment(id)
	}
}

// RecordFunction records a function hit when function granularity is
// selected.
func (c *Collector) RecordFunction(id wasmcoverage.FunctionID) {
	if c.granularity == wasmcoverage.GranularityFunction {
		c.functions.Increment(wasmcoverage.BlockID(uint32(id)))
	}
}

// RecordEdge records an edge hit when edge granularity is selected.
func (c *Collector) RecordEdge(id wasmcoverage.EdgeID) {
	if c.granularity == wasmcoverage.GranularityEdge {
		c.edges.Increment(wasmcoverage.BlockID(uint32(id)))
	}
}

// Flush exports and resets the counters of the active space.
func (c *Collector) Flush() []uint64 {
	return c.active().Flush()
}

// Get returns the local count for an index in the active space.
func (c *Collector) Get(index uint32) uint64 {
	return c.active().Get(wasmcoverage.BlockID(index))
}

// FlushCount returns the active space's flush count.
func (c *Collector) FlushCount() int {
	return c.active().FlushCount()
}

func (c *Collector) active() *ThreadLocalCounters {
	switch c.granularity {
	case wasmcoverage.GranularityFunction:
		return c.functions
	case wasmcoverage.GranularityEdge:
		return c.edges
	default:
		return c.blocks
	}
}
