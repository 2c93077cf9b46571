package format

import (
	"fmt"
	"strings"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
)

// Metadata is the optional side information formatters can use. Both
// fields may be nil.
type Metadata struct {
	Sources SourceMap
	Symbols SymbolTable
}

// syntheticFile is the SF name used when no source map is available.
const syntheticFile = "<unknown>"

// LCOV renders the report as an LCOV tracefile. Without a source map a
// single synthetic record is emitted with line numbers derived from
// block ids; with one, blocks are grouped under their files. Tainted
// blocks render as zero hits: their counters exist but are not
// trustworthy, and LCOV has no way to say so.
func LCOV(r *cover.Report, meta Metadata) string {
	var b strings.Builder
	b.WriteString("TN:\n")

	if len(meta.Sources) == 0 {
		ids := make([]wasmcoverage.BlockID, r.TotalBlocks)
		for i := range ids {
			ids[i] = wasmcoverage.BlockID(i)
		}
		lcovRecord(&b, r, meta, syntheticFile, ids, true)
		return b.String()
	}

	for i, file := range meta.Sources.Files() {
		lcovRecord(&b, r, meta, file, meta.Sources.BlocksInFile(file), i == 0)
	}
	return b.String()
}

func lcovRecord(b *strings.Builder, r *cover.Report, meta Metadata, file string, blocks []wasmcoverage.BlockID, withFunctions bool) {
	fmt.Fprintf(b, "SF:%s\n", file)

	if withFunctions && len(meta.Symbols) > 0 {
		var hit int
		for _, fid := range meta.Symbols.IDs() {
			sym := meta.Symbols[fid]
			fmt.Fprintf(b, "FN:%d,%s\n", sym.Line, sym.Name)
		}
		for _, fid := range meta.Symbols.IDs() {
			sym := meta.Symbols[fid]
			// Function hit counts are only known when the report was
			// recorded at function granularity.
			var hits uint64
			if r.Granularity == wasmcoverage.GranularityFunction {
				hits = trustedHits(r, wasmcoverage.BlockID(uint32(fid)))
			}
			if hits > 0 {
				hit++
			}
			fmt.Fprintf(b, "FNDA:%d,%s\n", hits, sym.Name)
		}
		fmt.Fprintf(b, "FNF:%d\n", len(meta.Symbols))
		fmt.Fprintf(b, "FNH:%d\n", hit)
	}

	var covered int
	for _, id := range blocks {
		line := uint32(id) + 1
		if loc, ok := meta.Sources[id]; ok {
			line = loc.StartLine
		}
		hits := trustedHits(r, id)
		if hits > 0 {
			covered++
		}
		fmt.Fprintf(b, "DA:%d,%d\n", line, hits)
	}
	fmt.Fprintf(b, "LF:%d\n", len(blocks))
	fmt.Fprintf(b, "LH:%d\n", covered)
	b.WriteString("end_of_record\n")
}

// trustedHits is the hit count with taint applied: tainted counters
// read as zero.
func trustedHits(r *cover.Report, id wasmcoverage.BlockID) uint64 {
	if r.IsTainted(id) {
		return 0
	}
	return r.Hits(id)
}
