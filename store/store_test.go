package store

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "coverage.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndLoadReport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	report := cover.NewReport(5,
		[]uint64{2, 0, 7, 0, 1},
		[]wasmcoverage.BlockID{2},
		true,
		wasmcoverage.GranularityBlock)

	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	loaded, err := s.LoadReport(ctx, report.RunID)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}

	if loaded.RunID != report.RunID {
		t.Errorf("RunID = %q, want %q", loaded.RunID, report.RunID)
	}
	if loaded.TotalBlocks != 5 {
		t.Errorf("TotalBlocks = %d, want 5", loaded.TotalBlocks)
	}
	if !loaded.Complete {
		t.Error("Complete should survive the round trip")
	}
	for i := uint32(0); i < 5; i++ {
		id := wasmcoverage.BlockID(i)
		if loaded.Hits(id) != report.Hits(id) {
			t.Errorf("block %d hits = %d, want %d", i, loaded.Hits(id), report.Hits(id))
		}
	}
	if !loaded.IsTainted(2) {
		t.Error("block 2 should still be tainted")
	}
	if loaded.Summary() != report.Summary() {
		t.Errorf("Summary = %+v, want %+v", loaded.Summary(), report.Summary())
	}
	if !loaded.CreatedAt.Equal(report.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", loaded.CreatedAt, report.CreatedAt)
	}
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	report := cover.NewReport(3, []uint64{1, 1, 0}, nil, false, wasmcoverage.GranularityEdge)

	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatalf("second save: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1 after duplicate save", len(runs))
	}

	loaded, err := s.LoadReport(ctx, report.RunID)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if loaded.Granularity != wasmcoverage.GranularityEdge {
		t.Errorf("Granularity = %v, want edge", loaded.Granularity)
	}
	if loaded.Complete {
		t.Error("Complete should stay false")
	}
}

func TestStore_ListRunsOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := cover.NewReport(2, []uint64{1, 0}, nil, true, wasmcoverage.GranularityBlock)
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := cover.NewReport(2, []uint64{1, 1}, nil, true, wasmcoverage.GranularityBlock)
	newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := s.SaveReport(ctx, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if err := s.SaveReport(ctx, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].RunID != newer.RunID {
		t.Errorf("first listed run = %q, want newest %q", runs[0].RunID, newer.RunID)
	}
	if runs[1].Covered != 1 {
		t.Errorf("older run covered = %d, want 1", runs[1].Covered)
	}
}

func TestStore_LoadMissingRun(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadReport(context.Background(), "no-such-run")
	if err == nil {
		t.Fatal("expected error for missing run")
	}
	var cerr *errors.Error
	if !stderrors.As(err, &cerr) || cerr.Kind != errors.KindNotFound {
		t.Errorf("expected not_found error, got %v", err)
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverage.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}
