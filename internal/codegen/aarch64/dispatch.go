package aarch64

import (
	"fmt"

	"github.com/viperlang/viper-aarch64/internal/diag"
	"github.com/viperlang/viper-aarch64/internal/il"
)

// LowerResult classifies the outcome of lowering a single IL instruction (spec.md
// section 9's re-architecture note: callers need to distinguish "lowered fine" from
// "recognized but deliberately unsupported" from "the pipeline itself is broken").
type LowerResult byte

const (
	// Handled means the instruction was lowered and its MInstrs appended to the
	// current block.
	Handled LowerResult = iota
	// Unhandled means the opcode is recognized but this backend declines to lower
	// it (the structured-error family). The lowerer emits nothing and records a
	// diagnostic; the caller decides whether that's fatal for the whole function.
	Unhandled
	// Fatal means the IL was malformed in a way OpcodeDispatch cannot route around
	// (e.g. a terminator with the wrong argument shape). Lowering of the
	// containing function aborts.
	Fatal
)

// Lowerer drives FrameBuilder, LivenessAnalysis, InstrLowering, TerminatorLowering
// and the fast paths over one il.Function, producing an MFunction ready for
// RegAllocLinear (spec.md section 4, overall pipeline).
type Lowerer struct {
	target *Target
}

func NewLowerer(target *Target) *Lowerer {
	return &Lowerer{target: target}
}

// LowerFunction lowers fn to machine IR. It returns an error only for malformed
// IL the dispatcher cannot route around; unsupported structured-error opcodes are
// reported through sink and otherwise skipped, matching spec.md section 7's
// "malformed and unsupported IL are diagnosed, not silently miscompiled, but do not
// necessarily abort the whole compilation" stance. sink may be nil.
//
// The returned LoweringContext's FrameBuilder is deliberately left unfinalized:
// RegAllocLinear still needs to allocate spill slots and record which
// callee-saved registers were touched before the frame's final size is known
// (spec.md section 4.7 runs strictly after section 4.3's lowering). Callers
// should run RegAllocLinear and only then call ctx.Frame.Finalize().
func (lw *Lowerer) LowerFunction(fn *il.Function, sink *diag.Sink) (*MFunction, *LoweringContext, error) {
	ctx := NewLoweringContext(fn, lw.target, sink)

	mf := &MFunction{Name: fn.Name}
	blocks := make(map[string]*MBasicBlock, len(fn.Blks))
	for _, b := range fn.Blks {
		mb := &MBasicBlock{Label: b.Label}
		blocks[b.Label] = mb
		mf.Blocks = append(mf.Blocks, mb)
	}

	for bi, b := range fn.Blks {
		mb := blocks[b.Label]
		ctx.SetBlock(mb)

		if bi == 0 {
			lowerEntryArgs(ctx, b)
		}

		instrs := b.Instrs
		if len(instrs) == 0 {
			continue
		}
		term := instrs[len(instrs)-1]
		body := instrs[:len(instrs)-1]
		if !term.Op.IsTerminator() {
			body = instrs
			term = nil
		}

		for _, ins := range body {
			if ins.Op.IsTerminator() {
				return nil, nil, fmt.Errorf("block %q: terminator %s found before end of block", b.Label, ins.Op)
			}
			res := OpcodeDispatch(ctx, ins)
			switch res {
			case Fatal:
				return nil, nil, fmt.Errorf("block %q: failed to lower %s", b.Label, ins.Op)
			case Unhandled:
				ctx.Diag.Warnf("block %q: opcode %s not supported, skipped", b.Label, ins.Op)
			}
		}

		if term != nil {
			res := lowerTerminator(ctx, term, fn, b)
			if res == Fatal {
				return nil, nil, fmt.Errorf("block %q: failed to lower terminator %s", b.Label, term.Op)
			}
		}
	}

	mf.Blocks = append(mf.Blocks, ctx.ExtraBlocks()...)
	return mf, ctx, nil
}

// OpcodeDispatch routes a single non-terminator IL instruction to the appropriate
// lowering handler, returning whether it was lowered, declined, or malformed
// (spec.md section 4.3).
func OpcodeDispatch(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	if ins.Op.IsStructuredError() {
		return Unhandled
	}
	return lowerInstruction(ctx, ins)
}
