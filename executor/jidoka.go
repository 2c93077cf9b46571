package executor

import (
	mapset "github.com/deckarep/golang-set/v2"

	wasmcoverage "github.com/wippyai/wasm-coverage"
	"github.com/wippyai/wasm-coverage/errors"
)

// Result is what a test function reports back for one superblock.
type Result struct {
	// Superblock is the unit the result belongs to.
	Superblock wasmcoverage.SuperblockID

	// Success is true when the workload ran and its blocks may be
	// recorded as hit.
	Success bool

	// Err carries the failure cause when Success is false.
	Err error
}

// Action is the jidoka decision for a failed superblock.
type Action int

const (
	// ActionLogAndContinue taints the superblock's blocks and keeps the
	// run going.
	ActionLogAndContinue Action = iota

	// ActionStop aborts the whole run at the next superblock boundary.
	ActionStop
)

// String returns the action name used in logs.
func (a Action) String() string {
	switch a {
	case ActionStop:
		return "stop"
	case ActionLogAndContinue:
		return "log_and_continue"
	}
	return "unknown"
}

// Policy classifies a failed superblock result into an Action. Policies
// must be pure: same result, same action, no side effects. They run on
// worker goroutines.
type Policy func(Result) Action

// DefaultPolicy stops the run for instrumentation faults, where the
// counter machinery itself is broken and nothing further can be trusted,
// and continues with taint for ordinary workload failures.
func DefaultPolicy(r Result) Action {
	if errors.IsKind(r.Err, errors.KindInstrumentation) {
		return ActionStop
	}
	return ActionLogAndContinue
}

// StopAlways aborts on any failure. Hard jidoka: the line always stops.
func StopAlways(Result) Action {
	return ActionStop
}

// ContinueAlways never aborts; every failure taints and moves on.
func ContinueAlways(Result) Action {
	return ActionLogAndContinue
}

// TaintedBlocks tracks blocks whose counts are no longer trustworthy.
// Safe for concurrent use by worker goroutines.
type TaintedBlocks struct {
	set mapset.Set[wasmcoverage.BlockID]
}

// NewTaintedBlocks creates an empty tainted set.
func NewTaintedBlocks() *TaintedBlocks {
	return &TaintedBlocks{set: mapset.NewSet[wasmcoverage.BlockID]()}
}

// Add marks every block of a failed superblock as tainted.
func (t *TaintedBlocks) Add(blocks ...wasmcoverage.BlockID) {
	for _, b := range blocks {
		t.set.Add(b)
	}
}

// Contains reports whether block has been tainted.
func (t *TaintedBlocks) Contains(block wasmcoverage.BlockID) bool {
	return t.set.Contains(block)
}

// Len returns the number of tainted blocks.
func (t *TaintedBlocks) Len() int {
	return t.set.Cardinality()
}

// Slice returns the tainted blocks in unspecified order.
func (t *TaintedBlocks) Slice() []wasmcoverage.BlockID {
	return t.set.ToSlice()
}
