package wasmcoverage

import "fmt"

// BlockID identifies one instrumented code region (typically a basic block).
// Each block owns exactly one counter slot in the module's counter space.
//
// BlockID, FunctionID, and EdgeID are deliberately distinct types: a value
// of one kind cannot be used where another is expected without an explicit
// conversion. Construction from a raw uint32 always succeeds and converting
// back is lossless. No arithmetic is defined beyond equality and ordering.
type BlockID uint32

// FunctionID identifies one instrumented function.
type FunctionID uint32

// EdgeID identifies one instrumented control-flow edge.
type EdgeID uint32

// SuperblockID identifies a group of blocks scheduled as one atomic unit.
type SuperblockID uint32

// Granularity selects which identifier space a collector records into.
type Granularity uint8

const (
	GranularityBlock Granularity = iota
	GranularityFunction
	GranularityEdge
)

// String returns the lowercase name used in configuration files and reports.
func (g Granularity) String() string {
	switch g {
	case GranularityBlock:
		return "block"
	case GranularityFunction:
		return "function"
	case GranularityEdge:
		return "edge"
	}
	return fmt.Sprintf("granularity(%d)", uint8(g))
}

// ParseGranularity converts a configuration string to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "block", "":
		return GranularityBlock, nil
	case "function":
		return GranularityFunction, nil
	case "edge":
		return GranularityEdge, nil
	}
	return GranularityBlock, fmt.Errorf("unknown granularity %q", s)
}

// MarshalText implements encoding.TextMarshaler so reports serialize the
// granularity by name.
func (g Granularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Granularity) UnmarshalText(text []byte) error {
	parsed, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
