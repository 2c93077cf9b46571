// Package format renders coverage reports to the standard interchange
// formats: LCOV tracefiles, Cobertura XML, a standalone HTML page, and a
// styled terminal summary.
//
// Formatters are pure functions of a cover.Report plus optional metadata.
// A SourceMap maps blocks back to file and line positions; a SymbolTable
// names instrumented functions with their WIT signatures. Both are
// optional: without them formatters fall back to synthetic positions
// derived from block ids, deterministically, so the same report always
// renders to the same bytes.
package format
