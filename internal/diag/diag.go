// Package diag provides the backend's diagnostic sink: a thin wrapper over an
// io.Writer, written to directly rather than through a logging framework (spec.md
// section 7's diagnostics are messages to "the driver's error sink", and the teacher
// this backend is modeled on carries no logging dependency in its own core either).
package diag

import (
	"fmt"
	"io"
)

// Sink collects diagnostics produced while lowering a function. A nil Sink silently
// drops everything, so callers that don't care about diagnostics can pass nil.
type Sink struct {
	w        io.Writer
	warnings int
}

// NewSink wraps w. If w is nil, the returned Sink discards all writes.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Warnf reports a non-fatal diagnostic: an unsupported opcode, a fallback code path
// being taken, malformed IL being defensively skipped, etc.
func (s *Sink) Warnf(format string, args ...any) {
	if s == nil {
		return
	}
	s.warnings++
	if s.w == nil {
		return
	}
	fmt.Fprintf(s.w, "warning: "+format+"\n", args...)
}

// Warnings returns the number of warnings reported so far.
func (s *Sink) Warnings() int {
	if s == nil {
		return 0
	}
	return s.warnings
}

// Fatal reports an unrecoverable invariant violation and panics, matching the
// teacher's own "panic(fmt.Errorf(\"BUG: ...\"))" convention for invariant failures
// (see machine.go, machine_pro_epi_logue.go in the teacher). The driver is expected
// to recover() at its outermost boundary if it wants to survive a single function's
// failure (spec.md section 5's "fail-stop" model).
func Fatal(format string, args ...any) {
	panic(fmt.Errorf("BUG: "+format, args...))
}
