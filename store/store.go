// Package store archives coverage runs in SQLite so runs can be rendered
// or compared after the fact. Storage only: no trend analysis happens
// here.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	_ "github.com/mattn/go-sqlite3"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/errors"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for coverage reports.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing archive.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.IO(errors.PhaseStore, err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.New(errors.PhaseStore, errors.KindIO).
				Detail("apply %q", pragma).
				Cause(err).
				Build()
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.New(errors.PhaseStore, errors.KindIO).
			Detail("apply schema").
			Cause(err).
			Build()
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveReport writes a report to the archive. Saving the same run id
// again replaces the previous rows, so retried writes are idempotent.
// Only blocks with hits or taint get a row; zero rows are implied by the
// run's total block count.
func (s *Store) SaveReport(ctx context.Context, r *cover.Report) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.IO(errors.PhaseStore, err)
	}
	defer tx.Rollback()

	summary := r.Summary()
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs
		 (run_id, created_at, granularity, total_blocks, covered, tainted, percent, complete)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID,
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.Granularity.String(),
		int64(r.TotalBlocks),
		int64(summary.CoveredBlocks),
		int64(summary.TaintedBlocks),
		summary.Percent,
		boolToInt(r.Complete),
	)
	if err != nil {
		return errors.New(errors.PhaseStore, errors.KindIO).
			Path("runs", r.RunID).
			Detail("insert run row").
			Cause(err).
			Build()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM block_coverage WHERE run_id = ?`, r.RunID); err != nil {
		return errors.IO(errors.PhaseStore, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO block_coverage (run_id, block_id, hits, tainted) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.IO(errors.PhaseStore, err)
	}
	defer stmt.Close()

	for _, row := range r.Blocks() {
		if row.Hits == 0 && !row.Tainted {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.RunID, int64(row.ID), int64(row.Hits), boolToInt(row.Tainted)); err != nil {
			return errors.New(errors.PhaseStore, errors.KindIO).
				Path("block_coverage", r.RunID).
				Detail("insert block %d", row.ID).
				Cause(err).
				Build()
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.IO(errors.PhaseStore, err)
	}
	return nil
}

// LoadReport reconstructs a stored report by run id.
func (s *Store) LoadReport(ctx context.Context, runID string) (*cover.Report, error) {
	var (
		createdAt   string
		granularity string
		totalBlocks int64
		complete    int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, granularity, total_blocks, complete FROM runs WHERE run_id = ?`, runID).
		Scan(&createdAt, &granularity, &totalBlocks, &complete)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(errors.PhaseStore, "run "+runID)
	}
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err)
	}

	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, errors.New(errors.PhaseStore, errors.KindInvalidInput).
			Path("runs", runID).
			Detail("parse created_at %q", createdAt).
			Cause(err).
			Build()
	}
	gran, err := wasmcoverage.ParseGranularity(granularity)
	if err != nil {
		return nil, errors.New(errors.PhaseStore, errors.KindInvalidInput).
			Path("runs", runID).
			Cause(err).
			Build()
	}

	counts := make([]uint64, totalBlocks)
	var tainted []wasmcoverage.BlockID

	rows, err := s.db.QueryContext(ctx,
		`SELECT block_id, hits, tainted FROM block_coverage WHERE run_id = ? ORDER BY block_id`, runID)
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err)
	}
	defer rows.Close()

	for rows.Next() {
		var blockID, hits, taint int64
		if err := rows.Scan(&blockID, &hits, &taint); err != nil {
			return nil, errors.IO(errors.PhaseStore, err)
		}
		if blockID >= 0 && blockID < totalBlocks {
			counts[blockID] = uint64(hits)
		}
		if taint != 0 {
			tainted = append(tainted, wasmcoverage.BlockID(blockID))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IO(errors.PhaseStore, err)
	}

	report := &cover.Report{
		RunID:       runID,
		CreatedAt:   created,
		Granularity: gran,
		TotalBlocks: uint32(totalBlocks),
		Counts:      counts,
		Tainted:     tainted,
		Complete:    complete != 0,
	}
	return report, nil
}

// RunInfo is one row of the archive listing.
type RunInfo struct {
	RunID       string
	CreatedAt   time.Time
	Granularity wasmcoverage.Granularity
	TotalBlocks uint32
	Covered     uint32
	Tainted     uint32
	Percent     float64
	Complete    bool
}

// ListRuns returns every stored run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, granularity, total_blocks, covered, tainted, percent, complete
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err)
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var (
			info        RunInfo
			createdAt   string
			granularity string
			complete    int64
		)
		if err := rows.Scan(&info.RunID, &createdAt, &granularity, &info.TotalBlocks,
			&info.Covered, &info.Tainted, &info.Percent, &complete); err != nil {
			return nil, errors.IO(errors.PhaseStore, err)
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, errors.New(errors.PhaseStore, errors.KindInvalidInput).
				Path("runs", info.RunID).
				Detail("parse created_at %q", createdAt).
				Cause(err).
				Build()
		}
		if info.Granularity, err = wasmcoverage.ParseGranularity(granularity); err != nil {
			return nil, errors.New(errors.PhaseStore, errors.KindInvalidInput).
				Path("runs", info.RunID).
				Cause(err).
				Build()
		}
		info.Complete = complete != 0
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IO(errors.PhaseStore, err)
	}
	return out, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
