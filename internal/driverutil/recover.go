package driverutil

import "fmt"

// Recover runs fn and converts any panic it raises into an error, matching this
// backend's fail-stop model (spec.md section 5): fatal invariant violations
// (diag.Fatal) panic rather than threading an error return through every
// lowering call, and the driver is expected to recover at its outermost
// boundary so one function's bug doesn't take the whole process down.
func Recover(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	fn()
	return nil
}
