package format

import (
	"fmt"
	"sort"
	"strings"

	"go.bytecodealliance.org/wit"

	wasmcoverage "github.com/wippyai/wasm-coverage"
)

// FuncSymbol names an instrumented function with its WIT signature.
type FuncSymbol struct {
	Name    string
	Line    uint32
	Params  []wit.Type
	Results []wit.Type
}

// Signature renders the symbol in WIT notation, e.g.
// "transform(input: string, limit: u32) -> string".
func (s FuncSymbol) Signature() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = fmt.Sprintf("arg%d: %s", i, witTypeStr(p))
	}
	sig := s.Name + "(" + strings.Join(params, ", ") + ")"
	if len(s.Results) > 0 {
		results := make([]string, len(s.Results))
		for i, r := range s.Results {
			results[i] = witTypeStr(r)
		}
		sig += " -> " + strings.Join(results, ", ")
	}
	return sig
}

// SymbolTable maps instrumented functions to their symbols. Optional
// metadata: LCOV emits FN/FNDA records only when a table is present.
type SymbolTable map[wasmcoverage.FunctionID]FuncSymbol

// IDs returns the function ids in ascending order.
func (t SymbolTable) IDs() []wasmcoverage.FunctionID {
	ids := make([]wasmcoverage.FunctionID, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func witTypeStr(t wit.Type) string {
	switch v := t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return "typedef"
	default:
		return fmt.Sprintf("%T", t)
	}
}
