package format

import (
	"sort"

	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// SourceLocation ties an instrumented block back to source text.
type SourceLocation struct {
	File      string
	StartLine uint32
	StartCol  uint16
	EndLine   uint32
	EndCol    uint16
	NumStmt   uint16
}

// SourceMap maps blocks to their source positions. Produced by the
// external decomposition tooling; formatters only read it.
type SourceMap map[wasmcoverage.BlockID]SourceLocation

// Files returns every file mentioned in the map, sorted.
func (m SourceMap) Files() []string {
	seen := make(map[string]struct{}, len(m))
	for _, loc := range m {
		seen[loc.File] = struct{}{}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// BlocksInFile returns the blocks located in file, sorted by start line
// then block id.
func (m SourceMap) BlocksInFile(file string) []wasmcoverage.BlockID {
	var blocks []wasmcoverage.BlockID
	for id, loc := range m {
		if loc.File == file {
			blocks = append(blocks, id)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		a, b := m[blocks[i]], m[blocks[j]]
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		return blocks[i] < blocks[j]
	})
	return blocks
}
