package cover

import (
	"encoding/binary"

	wasmcoverage "github.com/wippyai/wasm-coverage"
)

const counterSize = 8

// MemoryView is a read-only lens over counters stored in a byte buffer
// representing WASM linear memory. It never copies the buffer and never
// mutates it; the view is valid only as long as the buffer is.
//
// Counters are 8-byte little-endian unsigned integers, contiguous from
// counterBase. Any read outside the counter space or the buffer returns
// zero rather than failing: coverage data stays available even when the
// instrumentation metadata is wrong, at the cost of silently reading
// zeroes. Callers who need the buffer to keep changing underneath them
// must take their own snapshot first.
type MemoryView struct {
	mem         []byte
	counterBase uint32
	blockCount  uint32
}

// NewMemoryView creates a view over mem with blockCount counters starting
// at byte offset counterBase. The buffer is not validated against the
// counter space; short buffers simply read as zero.
func NewMemoryView(mem []byte, counterBase, blockCount uint32) *MemoryView {
	return &MemoryView{mem: mem, counterBase: counterBase, blockCount: blockCount}
}

// BlockCount returns the number of counters the view addresses.
func (v *MemoryView) BlockCount() uint32 {
	return v.blockCount
}

// ReadCounter returns the counter for block, or 0 when the block index is
// outside the counter space or the 8-byte read would run past the buffer.
func (v *MemoryView) ReadCounter(block wasmcoverage.BlockID) uint64 {
	idx := uint64(block)
	if idx >= uint64(v.blockCount) {
		return 0
	}
	off := uint64(v.counterBase) + idx*counterSize
	if off+counterSize > uint64(len(v.mem)) {
		return 0
	}
	return binary.LittleEndian.Uint64(v.mem[off:])
}

// ReadAllCounters returns one value per block, stopping early at the first
// position where fewer than 8 bytes remain in the buffer. The result is
// shorter than BlockCount when the buffer is truncated.
func (v *MemoryView) ReadAllCounters() []uint64 {
	out := make([]uint64, 0, v.blockCount)
	for i := uint64(0); i < uint64(v.blockCount); i++ {
		off := uint64(v.counterBase) + i*counterSize
		if off+counterSize > uint64(len(v.mem)) {
			break
		}
		out = append(out, binary.LittleEndian.Uint64(v.mem[off:]))
	}
	return out
}

// IsCovered reports whether block's counter is nonzero.
func (v *MemoryView) IsCovered(block wasmcoverage.BlockID) bool {
	return v.ReadCounter(block) > 0
}

// CoveredCount returns how many blocks have a nonzero counter.
func (v *MemoryView) CoveredCount() uint32 {
	var covered uint32
	for i := uint32(0); i < v.blockCount; i++ {
		if v.IsCovered(wasmcoverage.BlockID(i)) {
			covered++
		}
	}
	return covered
}

// CoveragePercent returns covered blocks as a percentage of the counter
// space. An empty space is trivially fully covered, so zero blocks yields
// 100.
func (v *MemoryView) CoveragePercent() float64 {
	if v.blockCount == 0 {
		return 100.0
	}
	return float64(v.CoveredCount()) / float64(v.blockCount) * 100.0
}
