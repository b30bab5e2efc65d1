package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// lowerArithmetic lowers Add/Sub/Mul/And/Or/Xor and their overflow-checked
// variants. The RI fast path (spec.md section 4.6) fires when one operand is a
// compile-time constant that fits the AArch64 12-bit immediate encoding, saving a
// MovRI plus register materialization.
func lowerArithmetic(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	rrr, ok := aluRRR[ins.Op]
	if !ok {
		return Fatal
	}
	if !ins.HasResult {
		return Fatal
	}
	dst := ctx.VRegFor(ins.Result, RegClassGPR)

	if ri, ok := aluRI[ins.Op]; ok {
		if imm, lhs, ok := pickImmediateOperand(ins, aluCommutative[ins.Op]); ok {
			src := materializeValue(ctx, lhs, il.TypeI64)
			ctx.Emit(NewMInstr(ri, OpReg(dst), OpReg(src), OpImm(imm)))
			return Handled
		}
	}

	lhs := materializeValue(ctx, ins.Arg(0), il.TypeI64)
	rhs := materializeValue(ctx, ins.Arg(1), il.TypeI64)
	ctx.Emit(NewMInstr(rrr, OpReg(dst), OpReg(lhs), OpReg(rhs)))
	return Handled
}

// pickImmediateOperand inspects a two-operand instruction for a constant operand
// that fits isImm12, returning the immediate value and the other (register-valued)
// operand. When the opcode is not commutative, only Args[1] is eligible.
func pickImmediateOperand(ins *il.Instruction, commutative bool) (imm int64, other il.Value, ok bool) {
	a0, a1 := ins.Arg(0), ins.Arg(1)
	if a1.IsConstInt() && isImm12(a1.Int64()) {
		return a1.Int64(), a0, true
	}
	if commutative && a0.IsConstInt() && isImm12(a0.Int64()) {
		return a0.Int64(), a1, true
	}
	return 0, il.Value{}, false
}

// lowerShift lowers Shl/LShr/AShr. A compile-time-constant shift amount (the
// overwhelmingly common case for Viper's lowered shift expressions) is folded into
// an immediate: LslRI/LsrRI/AsrRI dst, src, #amt. Otherwise the amount is
// materialized into a register and the same op is emitted with that register as
// operand 2, which the emitter prints as LSLV/LSRV/ASRV.
func lowerShift(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	op, ok := shiftRI[ins.Op]
	if !ok {
		return Fatal
	}
	if !ins.HasResult {
		return Fatal
	}
	dst := ctx.VRegFor(ins.Result, RegClassGPR)
	src := materializeValue(ctx, ins.Arg(0), il.TypeI64)

	amt := ins.Arg(1)
	if amt.IsConstInt() {
		ctx.Emit(NewMInstr(op, OpReg(dst), OpReg(src), OpImm(amt.Int64())))
		return Handled
	}

	amtReg := materializeValue(ctx, amt, il.TypeI64)
	ctx.Emit(NewMInstr(op, OpReg(dst), OpReg(src), OpReg(amtReg)))
	return Handled
}

// lowerDivRem lowers the four division opcode families and their Chk0 siblings
// plus SRem/URem, synthesized as div followed by MSubRRRR (spec.md section 4.3,
// "Division/remainder" row). The Chk0 variants additionally guard against a zero
// divisor: CmpRI rhs, 0; BCond eq to a trap block calling rt_trap.
func lowerDivRem(ctx *LoweringContext, ins *il.Instruction) LowerResult {
	op, ok := divRRR[ins.Op]
	if !ok {
		return Fatal
	}
	if !ins.HasResult {
		return Fatal
	}
	lhs := materializeValue(ctx, ins.Arg(0), il.TypeI64)
	rhs := materializeValue(ctx, ins.Arg(1), il.TypeI64)

	if isDivZeroCheckedOpcode(ins.Op) {
		ctx.Emit(NewMInstr(CmpRI, OpReg(rhs), OpImm(0)))
		label := ctx.NewTrapBlock("div0")
		ctx.Emit(NewMInstr(BCond, OpCond(CondEQ), OpLabel(label)))
	}

	if !isRemOpcode(ins.Op) {
		dst := ctx.VRegFor(ins.Result, RegClassGPR)
		ctx.Emit(NewMInstr(op, OpReg(dst), OpReg(lhs), OpReg(rhs)))
		return Handled
	}

	quotient := ctx.FreshVReg(RegClassGPR)
	ctx.Emit(NewMInstr(op, OpReg(quotient), OpReg(lhs), OpReg(rhs)))
	dst := ctx.VRegFor(ins.Result, RegClassGPR)
	ctx.Emit(NewMInstr(MSubRRRR, OpReg(dst), OpReg(quotient), OpReg(rhs), OpReg(lhs)))
	return Handled
}
