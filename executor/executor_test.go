package executor

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/errors"
)

// succeedAll reports success for every superblock.
func succeedAll(_ context.Context, sb *Superblock) Result {
	return Result{Superblock: sb.ID(), Success: true}
}

func TestExecute_AllSuccess(t *testing.T) {
	sbs := NewSuperblockBuilder(4).Add(blockRange(10)...).Build()
	exec := New(sbs, Config{Workers: 3})

	if got := exec.TotalBlockCount(); got != 10 {
		t.Errorf("TotalBlockCount() = %d, want 10", got)
	}
	if got := exec.SuperblockCount(); got != 3 {
		t.Errorf("SuperblockCount() = %d, want 3", got)
	}

	report, err := exec.Execute(context.Background(), succeedAll)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !report.Complete {
		t.Error("report should be complete")
	}

	s := report.Summary()
	if s.CoveredBlocks != 10 {
		t.Errorf("CoveredBlocks = %d, want 10", s.CoveredBlocks)
	}
	if s.Percent != 100.0 {
		t.Errorf("Percent = %v, want 100.0", s.Percent)
	}
	if s.TaintedBlocks != 0 {
		t.Errorf("TaintedBlocks = %d, want 0", s.TaintedBlocks)
	}
}

func TestExecute_FailureTaintsUnderContinue(t *testing.T) {
	// A:[0,1] succeeds, B:[2,3] fails. Blocks 2 and 3 must end up
	// tainted and uncovered, never covered.
	sbs := []*Superblock{
		NewSuperblock(0, []wasmcoverage.BlockID{0, 1}),
		NewSuperblock(1, []wasmcoverage.BlockID{2, 3}),
	}
	exec := New(sbs, Config{Workers: 2, Policy: ContinueAlways})

	report, err := exec.Execute(context.Background(), func(_ context.Context, sb *Superblock) Result {
		if sb.ID() == 1 {
			return Result{Superblock: sb.ID(), Success: false, Err: stderrors.New("workload crashed")}
		}
		return Result{Superblock: sb.ID(), Success: true}
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !report.Complete {
		t.Error("run should complete under log-and-continue")
	}

	for _, b := range []wasmcoverage.BlockID{0, 1} {
		if !report.IsCovered(b) {
			t.Errorf("block %d should be covered", b)
		}
	}
	for _, b := range []wasmcoverage.BlockID{2, 3} {
		if report.IsCovered(b) {
			t.Errorf("block %d must never be covered", b)
		}
		if !report.IsTainted(b) {
			t.Errorf("block %d should be tainted", b)
		}
		if report.Hits(b) != 0 {
			t.Errorf("block %d has %d hits, want 0 (failed superblock not recorded)", b, report.Hits(b))
		}
	}
}

func TestExecute_FailureAbortsUnderStop(t *testing.T) {
	// Single worker for a deterministic order: the first superblock's
	// hits must survive into the partial report, the second aborts.
	sbs := []*Superblock{
		NewSuperblock(0, []wasmcoverage.BlockID{0, 1}),
		NewSuperblock(1, []wasmcoverage.BlockID{2, 3}),
		NewSuperblock(2, []wasmcoverage.BlockID{4, 5}),
	}
	exec := New(sbs, Config{Workers: 1, Policy: StopAlways})

	var executed atomic.Int32
	report, err := exec.Execute(context.Background(), func(_ context.Context, sb *Superblock) Result {
		executed.Add(1)
		if sb.ID() == 1 {
			return Result{Superblock: sb.ID(), Success: false, Err: stderrors.New("infrastructure fault")}
		}
		return Result{Superblock: sb.ID(), Success: true}
	})

	if err == nil {
		t.Fatal("expected abort error")
	}
	if !stderrors.Is(err, errors.ErrAborted) {
		t.Errorf("error %v should match ErrAborted", err)
	}
	if report == nil {
		t.Fatal("partial report must still be returned")
	}
	if report.Complete {
		t.Error("aborted report must be marked incomplete")
	}
	if got := executed.Load(); got != 2 {
		t.Errorf("executed %d superblocks, want 2 (stop before the third)", got)
	}
	if !report.IsCovered(0) || !report.IsCovered(1) {
		t.Error("blocks from the completed superblock should be covered in the partial report")
	}
	for _, b := range []wasmcoverage.BlockID{2, 3, 4, 5} {
		if report.IsCovered(b) {
			t.Errorf("block %d must not be covered after abort", b)
		}
	}
}

func TestExecute_DefaultPolicyStopsOnInstrumentation(t *testing.T) {
	sbs := NewSuperblockBuilder(2).Add(blockRange(8)...).Build()
	exec := New(sbs, Config{Workers: 1})

	_, err := exec.Execute(context.Background(), func(_ context.Context, sb *Superblock) Result {
		if sb.ID() == 2 {
			return Result{
				Superblock: sb.ID(),
				Success:    false,
				Err:        errors.Instrumentation(uint32(sb.ID()), "counter region unmapped"),
			}
		}
		return Result{Superblock: sb.ID(), Success: true}
	})
	if !stderrors.Is(err, errors.ErrAborted) {
		t.Errorf("instrumentation fault should abort the run, got %v", err)
	}
}

func TestExecute_AtMostOncePerSuperblock(t *testing.T) {
	const superblocks = 64
	sbs := NewSuperblockBuilder(2).Add(blockRange(superblocks * 2)...).Build()
	exec := New(sbs, Config{Workers: 8})

	counts := make([]atomic.Int32, superblocks)
	_, err := exec.Execute(context.Background(), func(_ context.Context, sb *Superblock) Result {
		counts[sb.ID()].Add(1)
		return Result{Superblock: sb.ID(), Success: true}
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for i := range counts {
		if got := counts[i].Load(); got != 1 {
			t.Errorf("superblock %d executed %d times, want exactly 1", i, got)
		}
	}
}

func TestExecute_StealingAndPinnedProduceSameReport(t *testing.T) {
	// Deterministic workload: identical failures either way. The merge
	// is commutative, so scheduling must not leak into the report.
	build := func() []*Superblock {
		return NewSuperblockBuilder(3).Add(blockRange(30)...).Build()
	}
	fn := func(_ context.Context, sb *Superblock) Result {
		if sb.ID()%4 == 3 {
			return Result{Superblock: sb.ID(), Success: false, Err: stderrors.New("flaky")}
		}
		return Result{Superblock: sb.ID(), Success: true}
	}

	stealing := New(build(), Config{Workers: 4, Policy: ContinueAlways})
	pinned := New(build(), Config{Workers: 4, Policy: ContinueAlways, DisableWorkStealing: true})

	a, err := stealing.Execute(context.Background(), fn)
	if err != nil {
		t.Fatalf("stealing run failed: %v", err)
	}
	b, err := pinned.Execute(context.Background(), fn)
	if err != nil {
		t.Fatalf("pinned run failed: %v", err)
	}

	if a.TotalBlocks != b.TotalBlocks {
		t.Fatalf("TotalBlocks differ: %d vs %d", a.TotalBlocks, b.TotalBlocks)
	}
	for i := uint32(0); i < a.TotalBlocks; i++ {
		id := wasmcoverage.BlockID(i)
		if a.Hits(id) != b.Hits(id) {
			t.Errorf("block %d hits differ: %d vs %d", i, a.Hits(id), b.Hits(id))
		}
		if a.IsTainted(id) != b.IsTainted(id) {
			t.Errorf("block %d taint differs", i)
		}
	}
	if a.Summary().CoveredBlocks != b.Summary().CoveredBlocks {
		t.Errorf("covered counts differ: %d vs %d", a.Summary().CoveredBlocks, b.Summary().CoveredBlocks)
	}
}

func TestExecute_Cancellation(t *testing.T) {
	sbs := NewSuperblockBuilder(1).Add(blockRange(100)...).Build()
	exec := New(sbs, Config{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	report, err := exec.Execute(ctx, func(_ context.Context, sb *Superblock) Result {
		once.Do(cancel)
		return Result{Superblock: sb.ID(), Success: true}
	})

	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if report == nil {
		t.Fatal("partial report must still be returned")
	}
	if report.Complete {
		t.Error("cancelled report must be marked incomplete")
	}
}

func TestExecute_FunctionGranularity(t *testing.T) {
	sbs := NewSuperblockBuilder(4).Add(blockRange(4)...).Build()
	exec := New(sbs, Config{Workers: 1, Granularity: wasmcoverage.GranularityFunction})

	report, err := exec.Execute(context.Background(), succeedAll)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Granularity != wasmcoverage.GranularityFunction {
		t.Errorf("Granularity = %v, want function", report.Granularity)
	}
	if got := report.Summary().CoveredBlocks; got != 4 {
		t.Errorf("CoveredBlocks = %d, want 4", got)
	}
}

func TestExecute_NoSuperblocks(t *testing.T) {
	exec := New(nil, Config{Workers: 2})

	report, err := exec.Execute(context.Background(), succeedAll)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !report.Complete {
		t.Error("empty run should be complete")
	}
	if got := report.Summary().Percent; got != 100.0 {
		t.Errorf("Percent = %v, want vacuous 100.0", got)
	}
}
