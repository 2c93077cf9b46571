package cover

import (
	"sort"
	"time"

	"github.com/google/uuid"

	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// Report is the aggregated result of a coverage run: the merged per-block
// counts, the blocks whose counts can no longer be trusted, and whether
// the run ran to completion. A report is assembled once at run end and
// must be treated as read-only afterward; it is safe for concurrent
// readers and is the stable input contract for formatters and the run
// archive.
type Report struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// CreatedAt is when the report was assembled.
	CreatedAt time.Time `json:"created_at"`

	// Granularity is the identifier space the counts describe.
	Granularity wasmcoverage.Granularity `json:"granularity"`

	// TotalBlocks is the size of the instrumented counter space.
	TotalBlocks uint32 `json:"total_blocks"`

	// Counts holds one merged hit count per block, indexed by BlockID.
	// Always exactly TotalBlocks long.
	Counts []uint64 `json:"counts"`

	// Tainted lists blocks whose counts are untrustworthy, sorted
	// ascending. Tainted blocks never count as covered even when their
	// counter is nonzero.
	Tainted []wasmcoverage.BlockID `json:"tainted"`

	// Complete is false when the run was aborted or cancelled before
	// every superblock executed.
	Complete bool `json:"complete"`
}

// BlockCoverage is one block's row in the report.
type BlockCoverage struct {
	ID      wasmcoverage.BlockID `json:"id"`
	Hits    uint64               `json:"hits"`
	Tainted bool                 `json:"tainted"`
}

// Summary is the derived roll-up of a report.
type Summary struct {
	TotalBlocks   uint32  `json:"total_blocks"`
	CoveredBlocks uint32  `json:"covered_blocks"`
	TaintedBlocks uint32  `json:"tainted_blocks"`
	Percent       float64 `json:"percent"`
	Complete      bool    `json:"complete"`
}

// NewReport assembles a report from merged counts and the tainted-block
// set. Counts shorter than totalBlocks are zero-padded and longer ones
// truncated; tainted ids are copied, sorted, and deduplicated.
func NewReport(totalBlocks uint32, counts []uint64, tainted []wasmcoverage.BlockID, complete bool, granularity wasmcoverage.Granularity) *Report {
	normalized := make([]uint64, totalBlocks)
	copy(normalized, counts)

	taintedCopy := make([]wasmcoverage.BlockID, 0, len(tainted))
	seen := make(map[wasmcoverage.BlockID]struct{}, len(tainted))
	for _, id := range tainted {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		taintedCopy = append(taintedCopy, id)
	}
	sort.Slice(taintedCopy, func(i, j int) bool { return taintedCopy[i] < taintedCopy[j] })

	return &Report{
		RunID:       uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Granularity: granularity,
		TotalBlocks: totalBlocks,
		Counts:      normalized,
		Tainted:     taintedCopy,
		Complete:    complete,
	}
}

// Hits returns the merged count for block, 0 when out of range.
func (r *Report) Hits(block wasmcoverage.BlockID) uint64 {
	idx := uint64(block)
	if idx >= uint64(len(r.Counts)) {
		return 0
	}
	return r.Counts[idx]
}

// IsTainted reports whether block is in the tainted set.
func (r *Report) IsTainted(block wasmcoverage.BlockID) bool {
	i := sort.Search(len(r.Tainted), func(i int) bool { return r.Tainted[i] >= block })
	return i < len(r.Tainted) && r.Tainted[i] == block
}

// IsCovered reports trustworthy coverage: a nonzero count on a block that
// is not tainted.
func (r *Report) IsCovered(block wasmcoverage.BlockID) bool {
	return r.Hits(block) > 0 && !r.IsTainted(block)
}

// Blocks returns one row per block in ascending BlockID order.
func (r *Report) Blocks() []BlockCoverage {
	rows := make([]BlockCoverage, r.TotalBlocks)
	for i := uint32(0); i < r.TotalBlocks; i++ {
		id := wasmcoverage.BlockID(i)
		rows[i] = BlockCoverage{
			ID:      id,
			Hits:    r.Hits(id),
			Tainted: r.IsTainted(id),
		}
	}
	return rows
}

// Summary computes the roll-up. The empty counter space is trivially
// fully covered, so zero blocks yields 100 percent.
func (r *Report) Summary() Summary {
	var covered uint32
	for i := uint32(0); i < r.TotalBlocks; i++ {
		if r.IsCovered(wasmcoverage.BlockID(i)) {
			covered++
		}
	}
	percent := 100.0
	if r.TotalBlocks > 0 {
		percent = float64(covered) / float64(r.TotalBlocks) * 100.0
	}
	return Summary{
		TotalBlocks:   r.TotalBlocks,
		CoveredBlocks: covered,
		TaintedBlocks: uint32(len(r.Tainted)),
		Percent:       percent,
		Complete:      r.Complete,
	}
}
