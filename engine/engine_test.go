package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/errors"
	"github.com/wippyai/wasm-coverage/internal/wasmbin"
)

func instantiate(t *testing.T, bin []byte) api.Module {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("instantiate fixture module: %v", err)
	}
	return mod
}

func TestModuleView_ReadsCounters(t *testing.T) {
	counters := []uint64{3, 0, 9, 1 << 40}
	mod := instantiate(t, wasmbin.Instrumented(64, counters))

	view, err := ModuleView(mod)
	if err != nil {
		t.Fatalf("ModuleView failed: %v", err)
	}
	if view.BlockCount() != 4 {
		t.Errorf("BlockCount() = %d, want 4", view.BlockCount())
	}
	for i, want := range counters {
		if got := view.ReadCounter(wasmcoverage.BlockID(i)); got != want {
			t.Errorf("ReadCounter(%d) = %d, want %d", i, got, want)
		}
	}
	if got := view.CoveredCount(); got != 3 {
		t.Errorf("CoveredCount() = %d, want 3", got)
	}
}

func TestModuleView_LegacyGlobalNames(t *testing.T) {
	bin := wasmbin.New(1).
		ExportGlobalI32("__cov_base", 16).
		ExportGlobalI32("__cov_count", 2).
		Data(16, []byte{5, 0, 0, 0, 0, 0, 0, 0, 7, 0, 0, 0, 0, 0, 0, 0}).
		Bytes()
	mod := instantiate(t, bin)

	view, err := ModuleView(mod)
	if err != nil {
		t.Fatalf("ModuleView failed: %v", err)
	}
	if got := view.ReadCounter(1); got != 7 {
		t.Errorf("ReadCounter(1) = %d, want 7", got)
	}
}

func TestModuleView_MissingGlobals(t *testing.T) {
	mod := instantiate(t, wasmbin.New(1).Bytes())

	_, err := ModuleView(mod)
	if err == nil {
		t.Fatal("expected error for module without instrumentation globals")
	}
	var cerr *errors.Error
	if !stderrors.As(err, &cerr) || cerr.Kind != errors.KindNotFound {
		t.Errorf("expected not_found error, got %v", err)
	}
}

func TestModuleSnapshot_SurvivesModuleClose(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, wasmbin.Instrumented(0, []uint64{1, 2}))
	if err != nil {
		t.Fatalf("instantiate fixture module: %v", err)
	}

	snap, err := ModuleSnapshot(mod)
	if err != nil {
		t.Fatalf("ModuleSnapshot failed: %v", err)
	}
	if err := mod.Close(ctx); err != nil {
		t.Fatalf("close module: %v", err)
	}

	if got := snap.ReadCounter(1); got != 2 {
		t.Errorf("ReadCounter(1) after close = %d, want 2", got)
	}
}

func TestWazeroMemory_Adapter(t *testing.T) {
	mod := instantiate(t, wasmbin.Instrumented(32, []uint64{11, 22}))
	mem := NewWazeroMemory(mod.Memory())

	if got, err := mem.ReadU64(40); err != nil || got != 22 {
		t.Errorf("ReadU64(40) = %d, %v, want 22, nil", got, err)
	}
	if mem.Size() == 0 {
		t.Error("Size() should report the module's memory size")
	}

	buf, err := mem.Read(32, 16)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if buf[0] != 11 {
		t.Errorf("Read(32,16)[0] = %d, want 11", buf[0])
	}

	if _, err := mem.Read(1<<31, 8); err == nil {
		t.Error("out-of-bounds Read should error")
	}
	if _, err := mem.ReadU64(1 << 31); err == nil {
		t.Error("out-of-bounds ReadU64 should error")
	}
}

// mockMemory implements wasmcoverage.Memory and MemorySizer over a byte
// slice for runtime-neutral boundary tests.
type mockMemory struct {
	data []byte
}

func (m *mockMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return m.data[offset : offset+length], nil
}

func (m *mockMemory) ReadU64(offset uint32) (uint64, error) {
	b, err := m.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

func (m *mockMemory) Size() uint32 {
	return uint32(len(m.data))
}

func TestReadView(t *testing.T) {
	data := make([]byte, 24)
	data[8] = 42 // counter 1 = 42 little-endian
	mem := &mockMemory{data: data}

	view, err := ReadView(mem, mem, 0, 3)
	if err != nil {
		t.Fatalf("ReadView failed: %v", err)
	}
	if got := view.ReadCounter(1); got != 42 {
		t.Errorf("ReadCounter(1) = %d, want 42", got)
	}
}

func TestReadView_EmptyMemory(t *testing.T) {
	mem := &mockMemory{}

	view, err := ReadView(mem, mem, 0, 4)
	if err != nil {
		t.Fatalf("ReadView failed: %v", err)
	}
	if got := view.ReadCounter(0); got != 0 {
		t.Errorf("ReadCounter(0) = %d, want 0", got)
	}
}
