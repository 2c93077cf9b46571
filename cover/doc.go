// Package cover implements the coverage data plane: zero-copy views over
// counter memory, per-worker buffered counters, the merge accumulator, and
// the final coverage report.
//
// MemoryView reads 8-byte little-endian counters straight out of a byte
// buffer representing WASM linear memory without copying. Reads beyond the
// counter space or the buffer return zero instead of failing; coverage
// observation prefers degraded data over a crashed run.
//
// ThreadLocalCounters is the hot path. Each worker owns exactly one
// instance, increments it without synchronization, and hands its counts
// across the goroutine boundary only through an explicit Flush that is
// merged into a GlobalCounters accumulator under its lock.
//
// Report is the immutable end product, assembled once from the merged
// counts and the tainted-block set.
package cover
