package executor

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/cover"
	"github.com/wippyai/wasm-coverage/errors"
)

// Config holds executor configuration. The zero value is usable: zero
// workers means detected parallelism, zero flush threshold means the
// default, nil policy means DefaultPolicy, and work stealing is on
// unless explicitly disabled.
type Config struct {
	// Workers is the number of worker goroutines.
	Workers int

	// DisableWorkStealing pins every superblock to the worker it was
	// initially assigned to.
	DisableWorkStealing bool

	// FlushThreshold configures each worker's local counters.
	FlushThreshold int

	// Policy decides what a failed superblock does to the run.
	Policy Policy

	// Granularity selects the identifier space workers record into.
	Granularity wasmcoverage.Granularity
}

// ConfigFrom maps the library-level configuration surface onto executor
// configuration.
func ConfigFrom(rc wasmcoverage.Config) Config {
	rc.Normalize()
	return Config{
		Workers:             rc.Workers,
		DisableWorkStealing: !rc.WorkStealingEnabled(),
		FlushThreshold:      rc.FlushThreshold,
		Granularity:         rc.Granularity,
	}
}

// TestFunc runs the workload for one superblock and reports the outcome.
// It is called from worker goroutines and must be safe for concurrent
// invocation with distinct superblocks.
type TestFunc func(ctx context.Context, sb *Superblock) Result

// CoverageExecutor distributes superblocks across parallel workers and
// merges their recorded hits into one report. Superblocks are atomic:
// once a worker claims one it runs it to completion, and no superblock
// executes more than once per run.
type CoverageExecutor struct {
	superblocks []*Superblock
	cfg         Config
	totalBlocks uint32
}

// New creates an executor over the given superblocks. The total block
// count is derived from the highest block id present, so counter space
// covers every scheduled block.
func New(superblocks []*Superblock, cfg Config) *CoverageExecutor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.FlushThreshold == 0 {
		cfg.FlushThreshold = wasmcoverage.DefaultFlushThreshold
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy
	}

	var total uint32
	for _, sb := range superblocks {
		for i := 0; i < sb.Len(); i++ {
			if id := uint32(sb.Block(i)); id+1 > total {
				total = id + 1
			}
		}
	}

	return &CoverageExecutor{
		superblocks: superblocks,
		cfg:         cfg,
		totalBlocks: total,
	}
}

// TotalBlockCount returns the size of the counter space, one past the
// highest scheduled block id.
func (e *CoverageExecutor) TotalBlockCount() uint32 {
	return e.totalBlocks
}

// SuperblockCount returns the number of scheduled superblocks.
func (e *CoverageExecutor) SuperblockCount() int {
	return len(e.superblocks)
}

// Execute runs fn for every superblock and assembles the final report.
//
// The returned report is never nil. The error is non-nil in exactly two
// cases: the jidoka policy stopped the run (errors.Is against
// errors.ErrAborted holds) or ctx was cancelled. In both cases the
// report carries whatever counts were merged before the cut and is
// marked incomplete.
func (e *CoverageExecutor) Execute(ctx context.Context, fn TestFunc) (*cover.Report, error) {
	workers := e.cfg.Workers
	queues := make([]*deque, workers)
	for i := range queues {
		queues[i] = &deque{}
	}
	for i, sb := range e.superblocks {
		queues[i%workers].push(sb)
	}

	Logger().Info("coverage run starting",
		zap.Int("workers", workers),
		zap.Int("superblocks", len(e.superblocks)),
		zap.Uint32("blocks", e.totalBlocks),
		zap.Bool("work_stealing", !e.cfg.DisableWorkStealing))

	global := cover.NewGlobalCounters(int(e.totalBlocks))
	tainted := NewTaintedBlocks()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		idx := i
		g.Go(func() error {
			return e.runWorker(gctx, idx, queues, fn, global, tainted)
		})
	}
	err := g.Wait()

	complete := err == nil
	report := cover.NewReport(e.totalBlocks, global.Snapshot(), tainted.Slice(), complete, e.cfg.Granularity)

	summary := report.Summary()
	Logger().Info("coverage run finished",
		zap.String("run_id", report.RunID),
		zap.Uint32("covered", summary.CoveredBlocks),
		zap.Uint32("tainted", summary.TaintedBlocks),
		zap.Float64("percent", summary.Percent),
		zap.Bool("complete", complete))

	return report, err
}

// runWorker drains its own queue front-to-back, then steals from peers
// back-to-front when stealing is enabled. Cancellation is honored only
// between superblocks; a claimed superblock always runs to completion.
func (e *CoverageExecutor) runWorker(ctx context.Context, idx int, queues []*deque, fn TestFunc, global *cover.GlobalCounters, tainted *TaintedBlocks) error {
	collector := cover.NewCollector(cover.CollectorSpec{
		Granularity:    e.cfg.Granularity,
		BlockCount:     int(e.totalBlocks),
		FunctionCount:  int(e.totalBlocks),
		EdgeCount:      int(e.totalBlocks),
		FlushThreshold: e.cfg.FlushThreshold,
	})
	// Merge whatever was recorded, even when the run is cut short: a
	// partial report still carries every completed superblock.
	defer func() {
		global.Merge(collector.Flush())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		sb := queues[idx].popFront()
		if sb == nil && !e.cfg.DisableWorkStealing {
			sb = e.steal(queues, idx)
		}
		if sb == nil {
			return nil
		}

		res := fn(ctx, sb)
		if res.Success {
			e.record(collector, sb)
			continue
		}

		switch e.cfg.Policy(res) {
		case ActionStop:
			Logger().Error("violation policy stopped the run",
				zap.Uint32("superblock", uint32(sb.ID())),
				zap.Error(res.Err))
			return errors.Aborted(uint32(sb.ID()), res.Err)
		case ActionLogAndContinue:
			tainted.Add(sb.Blocks()...)
			Logger().Warn("superblock failed, blocks tainted",
				zap.Uint32("superblock", uint32(sb.ID())),
				zap.Int("blocks", sb.Len()),
				zap.Error(res.Err))
		}
	}
}

// record marks every block of a successful superblock as hit in the
// worker's local counters.
func (e *CoverageExecutor) record(collector *cover.Collector, sb *Superblock) {
	for i := 0; i < sb.Len(); i++ {
		b := sb.Block(i)
		switch e.cfg.Granularity {
		case wasmcoverage.GranularityFunction:
			collector.RecordFunction(wasmcoverage.FunctionID(uint32(b)))
		case wasmcoverage.GranularityEdge:
			collector.RecordEdge(wasmcoverage.EdgeID(uint32(b)))
		default:
			collector.RecordBlock(b)
		}
	}
}

// steal scans peers round-robin from the thief's right and claims one
// superblock from the back of the first non-empty queue. At most one
// queue lock is held at a time.
func (e *CoverageExecutor) steal(queues []*deque, thief int) *Superblock {
	n := len(queues)
	for off := 1; off < n; off++ {
		victim := (thief + off) % n
		if sb := queues[victim].popBack(); sb != nil {
			return sb
		}
	}
	return nil
}

// deque is a mutex-protected double-ended superblock queue. The owner
// pops from the front, thieves pop from the back.
type deque struct {
	mu    sync.Mutex
	items []*Superblock
}

func (d *deque) push(sb *Superblock) {
	d.mu.Lock()
	d.items = append(d.items, sb)
	d.mu.Unlock()
}

func (d *deque) popFront() *Superblock {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil
	}
	sb := d.items[0]
	d.items = d.items[1:]
	return sb
}

func (d *deque) popBack() *Superblock {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return nil
	}
	sb := d.items[len(d.items)-1]
	d.items = d.items[:len(d.items)-1]
	return sb
}
