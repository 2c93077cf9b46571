// Package wasmcoverage provides coverage instrumentation and aggregation
// for WebAssembly test infrastructure.
//
// The library counts which code regions of a running WASM module execute,
// reads counters directly out of the module's linear memory without copying,
// and schedules groups of regions across parallel workers with load
// balancing. It is the collection core of a larger test toolkit: control-flow
// decomposition, browser automation, and report rendering pipelines live
// outside and communicate through the types defined here.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	wasmcoverage/        Root package with identifier types, the Memory
//	                     interface, and the run configuration surface
//	├── cover/           Data plane: zero-copy memory views, thread-local
//	                     counters, merge accumulator, coverage reports
//	├── executor/        Control plane: superblock tiling, work-stealing
//	                     scheduler, jidoka violation policy
//	├── engine/          wazero integration: observing counters in a live
//	                     module's linear memory
//	├── format/          Pure renderers of a coverage report (LCOV,
//	                     Cobertura, HTML, terminal summary)
//	├── store/           SQLite archive of completed runs
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Group instrumented blocks into superblocks and run them across workers:
//
//	blocks := make([]wasmcoverage.BlockID, 64)
//	for i := range blocks {
//	    blocks[i] = wasmcoverage.BlockID(i)
//	}
//	sbs := executor.NewSuperblockBuilder(16).Add(blocks...).Build()
//
//	exec := executor.New(sbs, executor.Config{Workers: 4})
//	report, err := exec.Execute(ctx, func(ctx context.Context, sb *executor.Superblock) executor.Result {
//	    return executor.Result{Superblock: sb.ID(), Success: runTestsFor(sb)}
//	})
//
// Read ground-truth counters straight out of a module's linear memory:
//
//	view, err := engine.ModuleView(mod) // mod is a wazero api.Module
//	hits := view.ReadCounter(wasmcoverage.BlockID(7))
//
// # Identifier Model
//
// Blocks, functions, and edges live in separate identifier spaces. The
// BlockID, FunctionID, and EdgeID types are distinct named integer types, so
// passing one where another is expected is a compile-time error rather than
// a runtime check. Construction from a raw integer always succeeds and
// converts back losslessly.
//
// # Thread Safety
//
// MemoryView and Report are safe for concurrent readers. ThreadLocalCounters
// is NOT thread-safe and must be owned by exactly one worker; local counts
// cross a goroutine boundary only through an explicit Flush merged into a
// GlobalCounters accumulator. The Executor manages this discipline
// internally.
//
// # Memory Model
//
// Counters are fixed 8-byte little-endian unsigned integers, contiguous from
// a base offset inside the module's linear memory. A MemoryView never copies
// that memory and never fails: reads beyond the counter space or the buffer
// return zero. The view is valid only as long as the underlying buffer; use
// engine.ModuleSnapshot when the module keeps running while you read.
package wasmcoverage
