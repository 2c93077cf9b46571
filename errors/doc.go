// Package errors provides structured error types for the wasm-coverage library.
//
// Errors are categorized by Phase (where in the coverage pipeline the error
// occurred) and Kind (error category). The Error type includes context: the
// superblock involved, a field path, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseStore, errors.KindIO).
//		Path("runs", runID).
//		Detail("insert run row").
//		Cause(sqlErr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Workload(uint32(sb.ID()), testErr)
//	err := errors.Instrumentation(uint32(sb.ID()), "counter region unmapped")
//
// All errors implement the standard error interface and support errors.Is/As.
// Fatal run aborts are detected with errors.Is(err, errors.ErrAborted).
package errors
