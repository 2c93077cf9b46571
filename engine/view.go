package engine

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/errors"
)

// Export names under which instrumented guests publish their counter
// space. Older toolchain revisions used the short names; try them in
// order, newest first.
var (
	baseGlobalNames  = []string{"__coverage_base", "__cov_base"}
	countGlobalNames = []string{"__coverage_count", "__cov_count"}
)

// ModuleView builds a zero-copy view over mod's counter space. The
// counter base and block count come from the guest's exported
// instrumentation globals. The returned view aliases the module's linear
// memory: it is only valid while the module is not executing and not
// closed. Use ModuleSnapshot when the guest keeps running.
func ModuleView(mod api.Module) (*cover.MemoryView, error) {
	buf, base, count, err := counterSpace(mod)
	if err != nil {
		return nil, err
	}

	Logger().Debug("coverage view over module memory",
		zap.Uint32("counter_base", base),
		zap.Uint32("block_count", count),
		zap.Int("memory_bytes", len(buf)))

	return cover.NewMemoryView(buf, base, count), nil
}

// ModuleSnapshot is ModuleView over an owned copy of the module's
// memory, safe to keep after the guest resumes or is closed.
func ModuleSnapshot(mod api.Module) (*cover.MemoryView, error) {
	buf, base, count, err := counterSpace(mod)
	if err != nil {
		return nil, err
	}
	owned := make([]byte, len(buf))
	copy(owned, buf)
	return cover.NewMemoryView(owned, base, count), nil
}

// ReadView builds a view through the runtime-neutral Memory boundary:
// the whole memory is fetched once through m and wrapped. Zero copy when
// the implementation returns its backing storage directly, as the wazero
// adapter does.
func ReadView(m wasmcoverage.Memory, sizer wasmcoverage.MemorySizer, counterBase, blockCount uint32) (*cover.MemoryView, error) {
	size := sizer.Size()
	if size == 0 {
		return cover.NewMemoryView(nil, counterBase, blockCount), nil
	}
	buf, err := m.Read(0, size)
	if err != nil {
		return nil, errors.New(errors.PhaseObserve, errors.KindIO).
			Detail("read linear memory").
			Cause(err).
			Build()
	}
	return cover.NewMemoryView(buf, counterBase, blockCount), nil
}

// counterSpace resolves the instrumentation globals and the raw memory
// they describe.
func counterSpace(mod api.Module) ([]byte, uint32, uint32, error) {
	mem := mod.Memory()
	if mem == nil {
		return nil, 0, 0, errors.NotFound(errors.PhaseObserve, "module has no linear memory")
	}

	base, err := exportedGlobal(mod, baseGlobalNames)
	if err != nil {
		return nil, 0, 0, err
	}
	count, err := exportedGlobal(mod, countGlobalNames)
	if err != nil {
		return nil, 0, 0, err
	}

	buf, ok := mem.Read(0, mem.Size())
	if !ok {
		return nil, 0, 0, errors.OutOfBounds(errors.PhaseObserve, 0, int(mem.Size()))
	}
	return buf, base, count, nil
}

// exportedGlobal resolves the first present name from the fallback chain
// as a uint32.
func exportedGlobal(mod api.Module, names []string) (uint32, error) {
	for _, name := range names {
		if g := mod.ExportedGlobal(name); g != nil {
			if name != names[0] {
				debugf("using legacy instrumentation global %q", name)
			}
			return uint32(g.Get()), nil
		}
	}
	return 0, errors.NotFound(errors.PhaseObserve, "instrumentation global "+names[0])
}
