package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// lowerMemory lowers Alloca/GEP/Load/Store/IdxChk (spec.md section 4.3's memory
// rows, section 4.6's memory fast path).
func lowerMemory(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	switch ins.Op {
	case il.OpcodeAlloca:
		return lowerAlloca(ctx, ins)
	case il.OpcodeGEP:
		return lowerGEP(ctx, ins)
	case il.OpcodeLoad:
		return lowerLoad(ctx, ins)
	case il.OpcodeStore:
		return lowerStore(ctx, ins)
	case il.OpcodeIdxChk:
		return lowerIdxChk(ctx, ins)
	default:
		return Fatal
	}
}

// lowerAlloca reserves frame space and produces a frame-pointer-relative address
// (spec.md section 4.1). Args are [size, align] as constant integers.
func lowerAlloca(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	if !ins.HasResult || len(ins.Args) < 2 {
		return Fatal
	}
	size := ins.Arg(0).Int64()
	align := ins.Arg(1).Int64()
	offset := ctx.Frame.AddLocal(uint32(ins.Result), size, align)
	ctx.allocaTemps[ins.Result] = true

	dst := ctx.VRegFor(ins.Result, RegClassGPR)
	ctx.Emit(NewMInstr(AddFpImm, OpReg(dst), OpImm(offset)))
	return Handled
}

// lowerGEP computes base + index*elemSize. When index is a compile-time constant
// the resulting offset is folded into gepFold instead of being materialized into a
// register immediately, letting the subsequent Load/Store pick it up directly.
func lowerGEP(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	if !ins.HasResult || len(ins.Args) < 3 {
		return Fatal
	}
	baseReg := materializeValue(ctx, ins.Arg(0), il.TypePtr)
	idx := ins.Arg(1)
	elemSize := ins.Arg(2).Int64()

	if idx.IsConstInt() {
		off := idx.Int64() * elemSize
		if isImm12(off) {
			ctx.gepFold[ins.Result] = gepFoldInfo{base: baseReg, offset: off}
			// Still materialize a plain pointer-valued vreg for callers that treat
			// this GEP's result as an ordinary pointer (e.g. passed to a call).
			dst := ctx.VRegFor(ins.Result, RegClassGPR)
			ctx.Emit(NewMInstr(AddRI, OpReg(dst), OpReg(baseReg), OpImm(off)))
			return Handled
		}
	}

	idxReg := materializeValue(ctx, idx, il.TypeI64)
	scaled := ctx.FreshVReg(RegClassGPR)
	elemSizeReg := mustMaterializeConst(ctx, elemSize)
	ctx.Emit(NewMInstr(MulRRR, OpReg(scaled), OpReg(idxReg), OpReg(elemSizeReg)))

	dst := ctx.VRegFor(ins.Result, RegClassGPR)
	ctx.Emit(NewMInstr(AddRRR, OpReg(dst), OpReg(baseReg), OpReg(scaled)))
	return Handled
}

// lowerLoad lowers Load, using the folded GEP offset when available.
func lowerLoad(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	if !ins.HasResult {
		return Fatal
	}
	base, off := resolveAddress(ctx, ins.Arg(0))

	class := RegClassFor(ins.Type)
	dst := ctx.VRegFor(ins.Result, class)
	if class == RegClassFPR {
		ctx.Emit(NewMInstr(LdrFprBaseImm, OpReg(dst), OpReg(base), OpImm(off)))
	} else {
		ctx.Emit(NewMInstr(LdrRegBaseImm, OpReg(dst), OpReg(base), OpImm(off)))
	}
	return Handled
}

// lowerStore lowers Store: Args are [pointer, value]. String-typed stores are
// reference-counted: a fresh alloca slot has no prior value to release, so it only
// retains the new one; any other pointer might be overwriting a live string, so its
// old value is loaded, released, and only then is the new one retained (spec.md
// section 4.3's Store row).
func lowerStore(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	if len(ins.Args) < 2 {
		return Fatal
	}
	base, off := resolveAddress(ctx, ins.Arg(0))
	isAlloca := ins.Arg(0).Kind() == il.ValueKindTemp && ctx.allocaTemps[ins.Arg(0).Temp()]

	valType := ins.Type
	if valType == il.TypeStr && !isAlloca {
		old := ctx.FreshVReg(RegClassGPR)
		ctx.Emit(NewMInstr(LdrRegBaseImm, OpReg(old), OpReg(base), OpImm(off)))
		ctx.Emit(NewMInstr(MovRR, OpReg(ctx.Target.IntReturnReg()), OpReg(old)))
		ctx.Emit(NewMInstr(Bl, OpLabel("rt_str_release_maybe")))
	}

	val := materializeValue(ctx, ins.Arg(1), valType)
	if RegClassFor(valType) == RegClassFPR {
		ctx.Emit(NewMInstr(StrFprBaseImm, OpReg(val), OpReg(base), OpImm(off)))
	} else {
		ctx.Emit(NewMInstr(StrRegBaseImm, OpReg(val), OpReg(base), OpImm(off)))
	}

	if valType == il.TypeStr {
		ctx.Emit(NewMInstr(MovRR, OpReg(ctx.Target.IntReturnReg()), OpReg(val)))
		ctx.Emit(NewMInstr(Bl, OpLabel("rt_str_retain_maybe")))
	}
	return Handled
}

// resolveAddress returns the (base register, immediate offset) pair for a pointer
// value, using the folded GEP offset if ptr is a GEP result with a constant
// index, or (register, 0) otherwise.
func resolveAddress(ctx *LoweringContext, ptr il.Value) (Reg, int64) {
	if ptr.Kind() == il.ValueKindTemp {
		if info, ok := ctx.gepFold[ptr.Temp()]; ok {
			return info.base, info.offset
		}
	}
	return materializeValue(ctx, ptr, il.TypePtr), 0
}

// lowerIdxChk lowers a bounds check: Args are [idx, lo, hi]. Result is idx itself.
// When lo is the constant 0 a single unsigned comparison against hi covers both
// bounds at once (a negative idx wraps to a huge unsigned value); otherwise two
// separate signed compares are needed against lo and hi.
func lowerIdxChk(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	if !ins.HasResult || len(ins.Args) < 3 {
		return Fatal
	}
	idx := materializeValue(ctx, ins.Arg(0), il.TypeI64)
	lo := ins.Arg(1)
	hi := materializeValue(ctx, ins.Arg(2), il.TypeI64)

	label := ctx.NewTrapBlock("bounds")
	if lo.IsConstInt() && lo.Int64() == 0 {
		ctx.Emit(NewMInstr(CmpRR, OpReg(idx), OpReg(hi)))
		ctx.Emit(NewMInstr(BCond, OpCond(CondHS), OpLabel(label)))
	} else {
		loReg := materializeValue(ctx, lo, il.TypeI64)
		ctx.Emit(NewMInstr(CmpRR, OpReg(idx), OpReg(loReg)))
		ctx.Emit(NewMInstr(BCond, OpCond(CondLT), OpLabel(label)))
		ctx.Emit(NewMInstr(CmpRR, OpReg(idx), OpReg(hi)))
		ctx.Emit(NewMInstr(BCond, OpCond(CondGE), OpLabel(label)))
	}

	dst := ctx.VRegFor(ins.Result, RegClassGPR)
	ctx.Emit(NewMInstr(MovRR, OpReg(dst), OpReg(idx)))
	return Handled
}
