package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// lowerTerminator is TerminatorLowering: Ret/Br/CBr/Trap/TrapFromErr (spec.md
// section 4.4). Structured-error terminators (resume/trap-kind opcodes) never
// reach here; OpcodeDispatch routes them to Unhandled before a block's last
// instruction is even inspected as a terminator, since those opcodes are not
// themselves classified as terminators (see il.Opcode.IsTerminator).
func lowerTerminator(ctx *LoweringContext, term *il.Instruction, fn *il.Function, block *il.Block) LowerResult {
	switch term.Op {
	case il.OpcodeRet:
		return lowerReturn(ctx, term)
	case il.OpcodeBr:
		return lowerBr(ctx, term, fn)
	case il.OpcodeCBr:
		return lowerCBr(ctx, term, fn)
	case il.OpcodeTrap:
		return lowerTrap(ctx, term)
	case il.OpcodeTrapFromErr:
		return lowerTrapFromErr(ctx, term)
	default:
		return Fatal
	}
}

// emitEdgeCopies lowers the branch-argument list for one successor: a parallel
// copy of each argument value into the vreg assigned to the corresponding block
// parameter. This backend does not split critical edges, so a CBr whose two
// successors both have arguments must be lowered carefully by the caller; see
// lowerCBr.
func emitEdgeCopies(ctx *LoweringContext, fn *il.Function, targetLabel string, args []il.Value) {
	target := fn.BlockByLabel(targetLabel)
	if target == nil {
		diagFatal(ctx, "branch to unknown label %q", targetLabel)
		return
	}
	for i, p := range target.Params {
		if i >= len(args) {
			diagFatal(ctx, "branch to %q missing argument for param %d", targetLabel, i)
			continue
		}
		class := RegClassFor(p.Type)
		src := materializeValue(ctx, args[i], p.Type)
		dst := ctx.VRegFor(p.ID, class)
		if class == RegClassFPR {
			ctx.Emit(NewMInstr(FMovRR, OpReg(dst), OpReg(src)))
		} else {
			ctx.Emit(NewMInstr(MovRR, OpReg(dst), OpReg(src)))
		}
	}
}

func lowerBr(ctx *LoweringContext, term *il.Instruction, fn *il.Function) LowerResult {
	if len(term.Labels) < 1 {
		return Fatal
	}
	var args []il.Value
	if len(term.BrArgs) > 0 {
		args = term.BrArgs[0]
	}
	emitEdgeCopies(ctx, fn, term.Labels[0], args)
	ctx.Emit(NewMInstr(Br, OpLabel(term.Labels[0])))
	return Handled
}

// lowerCBr lowers a conditional branch. When a successor carries branch arguments,
// its parallel copies cannot simply follow a Cbz in the current block (control
// would have already left for the other successor by then), so that successor is
// routed through a synthetic trampoline block that holds the copies and an
// unconditional branch to the real target.
func lowerCBr(ctx *LoweringContext, term *il.Instruction, fn *il.Function) LowerResult {
	if len(term.Labels) < 2 || len(term.Args) < 1 {
		return Fatal
	}
	trueLabel, falseLabel := term.Labels[0], term.Labels[1]
	var trueArgs, falseArgs []il.Value
	if len(term.BrArgs) > 0 {
		trueArgs = term.BrArgs[0]
	}
	if len(term.BrArgs) > 1 {
		falseArgs = term.BrArgs[1]
	}

	cond := materializeValue(ctx, term.Arg(0), il.TypeI1)

	falseTarget := falseLabel
	if len(falseArgs) > 0 {
		falseTarget = emitTrampoline(ctx, fn, falseLabel, falseArgs)
	}
	trueTarget := trueLabel
	if len(trueArgs) > 0 {
		trueTarget = emitTrampoline(ctx, fn, trueLabel, trueArgs)
	}

	ctx.Emit(NewMInstr(Cbz, OpReg(cond), OpLabel(falseTarget)))
	ctx.Emit(NewMInstr(Br, OpLabel(trueTarget)))
	return Handled
}

// emitTrampoline builds a synthetic block performing targetLabel's edge copies
// then branching to it, returning the trampoline's own label.
func emitTrampoline(ctx *LoweringContext, fn *il.Function, targetLabel string, args []il.Value) string {
	saved := ctx.cur
	tramp := ctx.NewTrampoline()
	ctx.SetBlock(tramp)
	ctx.inTrampoline = true
	emitEdgeCopies(ctx, fn, targetLabel, args)
	ctx.Emit(NewMInstr(Br, OpLabel(targetLabel)))
	ctx.inTrampoline = false
	ctx.SetBlock(saved)
	return tramp.Label
}

// lowerTrap lowers an unconditional Trap: just a call to the shared rt_trap
// runtime symbol (spec.md section 4.4).
func lowerTrap(ctx *LoweringContext, term *il.Instruction) LowerResult {
	_ = term
	ctx.Emit(NewMInstr(Bl, OpLabel("rt_trap")))
	return Handled
}

// lowerTrapFromErr lowers TrapFromErr [code]: the error code is moved into x0
// before calling the same rt_trap symbol every other trap site uses (spec.md
// section 4.4 — there is no separate "trap from error" runtime entry point).
func lowerTrapFromErr(ctx *LoweringContext, term *il.Instruction) LowerResult {
	if len(term.Args) > 0 {
		code := term.Arg(0)
		if code.IsConstInt() {
			ctx.Emit(NewMInstr(MovRI, OpReg(ctx.Target.IntReturnReg()), OpImm(code.Int64())))
		} else {
			src := materializeValue(ctx, code, il.TypeI64)
			ctx.Emit(NewMInstr(MovRR, OpReg(ctx.Target.IntReturnReg()), OpReg(src)))
		}
	}
	ctx.Emit(NewMInstr(Bl, OpLabel("rt_trap")))
	return Handled
}
