// Package driverutil collects the small pieces of process-wide state and
// top-level error handling an embedding driver needs that don't belong to any
// single function's lowering: the trap-label counter and a panic-to-error
// boundary for fatal invariant violations (spec.md section 5, section 9's
// "thread-local trap counter" note).
package driverutil

import (
	"fmt"
	"sync/atomic"
)

// trapLabelCounter is the one piece of process-wide mutable state this backend
// carries (spec.md section 5): each function lowering owns its own MFunction,
// maps, and scratch counters, but trap-block labels are minted from a single
// shared counter so functions compiled concurrently by an outer driver never
// collide. Go has no real thread-local storage; an atomic counter gives the
// same guarantee (unique names, no lock) across goroutines instead of threads.
var trapLabelCounter atomic.Uint64

// NextTrapLabel returns a fresh, process-wide unique local label for a
// generated trap block, e.g. ".Ltrap_bounds_3". kind names the trap site
// (bounds, div0, cast) purely for readability in the emitted assembly.
func NextTrapLabel(kind string) string {
	n := trapLabelCounter.Add(1) - 1
	return fmt.Sprintf(".Ltrap_%s_%d", kind, n)
}
