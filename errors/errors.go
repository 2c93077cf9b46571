package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the coverage pipeline the error occurred
type Phase string

const (
	PhaseObserve  Phase = "observe"  // reading runtime memory
	PhaseCollect  Phase = "collect"  // counter recording
	PhaseSchedule Phase = "schedule" // superblock scheduling
	PhaseMerge    Phase = "merge"    // local-to-global counter merge
	PhaseReport   Phase = "report"   // report assembly
	PhaseStore    Phase = "store"    // run archive persistence
	PhaseConfig   Phase = "config"   // configuration loading
	PhaseFormat   Phase = "format"   // report rendering
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds     Kind = "out_of_bounds"
	KindTruncated       Kind = "truncated"
	KindInstrumentation Kind = "instrumentation"
	KindWorkload        Kind = "workload"
	KindAborted         Kind = "aborted"
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindIO              Kind = "io"
)

// Error is the structured error type used throughout the coverage core
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	Superblock uint32
	HasSB      bool
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HasSB {
		fmt.Fprintf(&b, " superblock %d", e.Superblock)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err (or anything it wraps) is a coverage error of
// the given kind, regardless of phase.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Superblock records the superblock the error belongs to
func (b *Builder) Superblock(id uint32) *Builder {
	b.err.Superblock = id
	b.err.HasSB = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Aborted creates the fatal-abort error produced when the jidoka policy
// stops a run. Callers detect it with errors.Is against ErrAborted.
func Aborted(superblock uint32, cause error) *Error {
	return &Error{
		Phase:      PhaseSchedule,
		Kind:       KindAborted,
		Superblock: superblock,
		HasSB:      true,
		Cause:      cause,
		Detail:     "run stopped by violation policy",
	}
}

// ErrAborted is the sentinel for errors.Is checks against fatal run aborts.
var ErrAborted = &Error{Phase: PhaseSchedule, Kind: KindAborted}

// Instrumentation creates an instrumentation-fault error. The default jidoka
// policy treats these as fatal.
func Instrumentation(superblock uint32, detail string) *Error {
	return &Error{
		Phase:      PhaseCollect,
		Kind:       KindInstrumentation,
		Superblock: superblock,
		HasSB:      true,
		Detail:     detail,
	}
}

// Workload creates a workload-under-test failure error. The default jidoka
// policy logs these and continues with the affected blocks tainted.
func Workload(superblock uint32, cause error) *Error {
	return &Error{
		Phase:      PhaseSchedule,
		Kind:       KindWorkload,
		Superblock: superblock,
		HasSB:      true,
		Cause:      cause,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// NotFound creates a not found error
func NotFound(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// IO creates an i/o error wrapping the underlying cause
func IO(phase Phase, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindIO,
		Cause: cause,
	}
}
