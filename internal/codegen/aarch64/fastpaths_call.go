package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// lowerCallInstr lowers Call and CallIndirect (spec.md section 4.5). Arguments are
// marshalled into the AAPCS64 integer and floating-point argument register files
// independently (each has its own 0..7 counter); a call passing more than 8 values
// in a single class spills the surplus to the outgoing stack area below the frame,
// sized to a 16-byte-aligned multiple of 8 bytes per surplus argument. Three
// special cases apply to a call's result: a boolean (I1) result is masked to its
// low bit since AAPCS64 only guarantees the low 8 bits of w0 are meaningful; a
// string (Str) result is immediately retained to counter-balance the unref some
// string-producing runtime functions perform internally; and a call to
// rt_arr_obj_get specifically has its result spilled and reloaded, creating a
// barrier that keeps the allocator from holding it live across a later call.
func lowerCallInstr(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	var args []il.Value
	calleeArgIdx := 0
	if ins.Op == il.OpcodeCallIndirect {
		calleeArgIdx = 1
	}
	if len(ins.Args) < calleeArgIdx {
		return Fatal
	}
	args = ins.Args[calleeArgIdx:]

	isFloatArg := make([]bool, len(args))
	intCount, fpCount, stackSlots := 0, 0, 0
	for i, a := range args {
		// The IL doesn't carry a per-argument type tag separate from the value
		// itself; ConstFloat/temp-of-float-type route to the FPR file, everything
		// else to the GPR file.
		isFloat := a.Kind() == il.ValueKindConstFloat
		if a.Kind() == il.ValueKindTemp {
			// Best effort: a temp argument's class was already fixed when it was
			// defined, so look up its existing vreg class rather than guessing.
			if r, ok := ctx.tempVReg[a.Temp()]; ok {
				isFloat = r.Class() == RegClassFPR
			}
		}
		isFloatArg[i] = isFloat
		if isFloat {
			if fpCount < 8 {
				fpCount++
			} else {
				stackSlots++
			}
		} else {
			if intCount < 8 {
				intCount++
			} else {
				stackSlots++
			}
		}
	}

	var stackBytes int64
	if stackSlots > 0 {
		stackBytes = alignUp(int64(stackSlots)*8, 16)
		ctx.Emit(NewMInstr(SubSpImm, OpImm(stackBytes)))
	}

	intIdx, fpIdx, stackOff := 0, 0, int64(0)
	for i, a := range args {
		if isFloatArg[i] {
			src := materializeValue(ctx, a, il.TypeF64)
			if fpIdx < 8 {
				ctx.Emit(NewMInstr(FMovRR, OpReg(ctx.Target.F64Arg(fpIdx)), OpReg(src)))
				fpIdx++
			} else {
				ctx.Emit(NewMInstr(StrFprSpImm, OpReg(src), OpImm(stackOff)))
				stackOff += 8
			}
		} else {
			src := materializeValue(ctx, a, il.TypeI64)
			if intIdx < 8 {
				ctx.Emit(NewMInstr(MovRR, OpReg(ctx.Target.IntArg(intIdx)), OpReg(src)))
				intIdx++
			} else {
				ctx.Emit(NewMInstr(StrRegSpImm, OpReg(src), OpImm(stackOff)))
				stackOff += 8
			}
		}
	}

	if ins.Op == il.OpcodeCallIndirect {
		fnPtr := materializeValue(ctx, ins.Arg(0), il.TypePtr)
		ctx.Emit(NewMInstr(Blr, OpReg(fnPtr)))
	} else {
		ctx.Emit(NewMInstr(Bl, OpLabel(ins.Callee)))
	}

	if stackSlots > 0 {
		ctx.Emit(NewMInstr(AddSpImm, OpImm(stackBytes)))
	}

	if ins.HasResult {
		class := RegClassFor(ins.Type)
		dst := ctx.VRegFor(ins.Result, class)
		if class == RegClassFPR {
			ctx.Emit(NewMInstr(FMovRR, OpReg(dst), OpReg(ctx.Target.F64ReturnReg())))
		} else {
			ctx.Emit(NewMInstr(MovRR, OpReg(dst), OpReg(ctx.Target.IntReturnReg())))
		}

		switch {
		case ins.Type == il.TypeI1:
			one := mustMaterializeConst(ctx, 1)
			ctx.Emit(NewMInstr(AndRRR, OpReg(dst), OpReg(dst), OpReg(one)))
		case ins.Type == il.TypeStr:
			ctx.Emit(NewMInstr(MovRR, OpReg(ctx.Target.IntReturnReg()), OpReg(dst)))
			ctx.Emit(NewMInstr(Bl, OpLabel("rt_str_retain_maybe")))
		}

		if ins.Op == il.OpcodeCall && ins.Callee == "rt_arr_obj_get" {
			off := ctx.Frame.EnsureSpill(dst.ID())
			ctx.Emit(NewMInstr(StrRegFpImm, OpReg(dst), OpImm(off)))
			reloaded := ctx.FreshVReg(RegClassGPR)
			ctx.Emit(NewMInstr(LdrRegFpImm, OpReg(reloaded), OpImm(off)))
			ctx.tempVReg[ins.Result] = reloaded
		}
	}
	return Handled
}

// incomingStackArgBase is the frame-pointer offset of the first stack-passed
// parameter: the caller's outgoing stack area sits directly above the saved
// frame-pointer/link-register pair this backend's prologue pushes.
const incomingStackArgBase = 16

// lowerEntryArgs marshals the entry block's parameters in from the AAPCS64
// argument registers, mirroring lowerCallInstr's marshalling on the caller side
// (spec.md section 4.2, entry argument marshalling). Each param's incoming
// register is picked by its position within its own class's counter, exactly as
// a caller filled them in; a function with more than 8 parameters in one class
// reads the surplus from the caller's outgoing stack area instead.
func lowerEntryArgs(ctx *LoweringContext, entry *il.Block) {
	intIdx, fpIdx, stackIdx := 0, 0, 0
	for _, p := range entry.Params {
		class := RegClassFor(p.Type)
		dst := ctx.VRegFor(p.ID, class)
		if class == RegClassFPR {
			if fpIdx < 8 {
				ctx.Emit(NewMInstr(FMovRR, OpReg(dst), OpReg(ctx.Target.F64Arg(fpIdx))))
				fpIdx++
			} else {
				ctx.Emit(NewMInstr(LdrFprFpImm, OpReg(dst), OpImm(incomingStackArgBase+int64(stackIdx)*8)))
				stackIdx++
			}
		} else {
			if intIdx < 8 {
				ctx.Emit(NewMInstr(MovRR, OpReg(dst), OpReg(ctx.Target.IntArg(intIdx))))
				intIdx++
			} else {
				ctx.Emit(NewMInstr(LdrRegFpImm, OpReg(dst), OpImm(incomingStackArgBase+int64(stackIdx)*8)))
				stackIdx++
			}
		}
	}
}
