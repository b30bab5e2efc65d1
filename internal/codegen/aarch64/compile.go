package aarch64

import (
	"io"

	"github.com/viperlang/viper-aarch64/internal/diag"
	"github.com/viperlang/viper-aarch64/internal/il"
)

// CompileFunction runs the full pipeline over fn: lowering, linear-scan register
// allocation, frame finalization, peephole cleanup, and textual assembly emission
// (spec.md section 4's overall pipeline), in that order: frame finalization runs
// after register allocation so the callee-saved registers it used are known. sink
// may be nil to discard diagnostics.
func CompileFunction(fn *il.Function, target *Target, sink *diag.Sink, w io.Writer) error {
	lw := NewLowerer(target)
	mf, ctx, err := lw.LowerFunction(fn, sink)
	if err != nil {
		return err
	}

	crossGPR, crossFPR := ctx.CrossBlockVRegSets()
	ra := NewRegAllocLinear(target, ctx.Frame, crossGPR, crossFPR)
	ra.Run(mf)

	mf.Frame = ctx.Frame.Finalize()

	Peephole(mf, DefaultPeepholeConfig())

	return EmitFunction(w, mf)
}

// CompileModule runs CompileFunction over every function in fns in order, writing
// each function's assembly to w. It stops at the first function that fails to
// lower (spec.md section 7: malformed IL aborts the containing function's
// compilation, not the rest of the module, but this driver compiles ahead of time
// rather than incrementally and so has nothing useful to emit for the functions
// after a fatal failure).
func CompileModule(fns []*il.Function, target *Target, sink *diag.Sink, w io.Writer) error {
	for _, fn := range fns {
		if err := CompileFunction(fn, target, sink, w); err != nil {
			return err
		}
	}
	return nil
}
