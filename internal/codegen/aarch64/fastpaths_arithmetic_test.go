package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viperlang/viper-aarch64/internal/il"
)

func newCtxWithBlock() (*LoweringContext, *MBasicBlock) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	b := &MBasicBlock{Label: "entry"}
	ctx.SetBlock(b)
	return ctx, b
}

func TestLowerArithmetic_ImmediateFastPath(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeAdd, 0, il.TypeI64, il.Temp(1), il.ConstInt(4))
	res := lowerArithmetic(ctx, ins)
	require.Equal(t, Handled, res)
	require.Equal(t, AddRI, b.Instrs[len(b.Instrs)-1].Op)
}

func TestLowerArithmetic_CommutativeSwapsConstantToRHS(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeAdd, 0, il.TypeI64, il.ConstInt(4), il.Temp(1))
	res := lowerArithmetic(ctx, ins)
	require.Equal(t, Handled, res)
	require.Equal(t, AddRI, b.Instrs[len(b.Instrs)-1].Op)
}

func TestLowerArithmetic_SubNotCommutative(t *testing.T) {
	ctx, b := newCtxWithBlock()
	// constant on the LHS of a non-commutative Sub must not use the RI fast path.
	ins := il.NewInstrResult(il.OpcodeSub, 0, il.TypeI64, il.ConstInt(4), il.Temp(1))
	res := lowerArithmetic(ctx, ins)
	require.Equal(t, Handled, res)
	require.Equal(t, SubRRR, b.Instrs[len(b.Instrs)-1].Op)
}

func TestLowerArithmetic_FallsBackToRRR(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeAdd, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	res := lowerArithmetic(ctx, ins)
	require.Equal(t, Handled, res)
	require.Equal(t, AddRRR, b.Instrs[len(b.Instrs)-1].Op)
}

func TestLowerShift_ConstantAmountUsesRIForm(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeShl, 0, il.TypeI64, il.Temp(1), il.ConstInt(3))
	res := lowerShift(ctx, ins)
	require.Equal(t, Handled, res)
	last := b.Instrs[len(b.Instrs)-1]
	require.Equal(t, LslRI, last.Op)
	require.Equal(t, OperandKindImm, last.Operands[2].Kind())
}

func TestLowerShift_VariableAmountMaterializesRegister(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeShl, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	res := lowerShift(ctx, ins)
	require.Equal(t, Handled, res)
	last := b.Instrs[len(b.Instrs)-1]
	require.Equal(t, LslRI, last.Op)
	require.Equal(t, OperandKindReg, last.Operands[2].Kind())
}

func TestLowerDivRem_DivEmitsSingleInstr(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeSDiv, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	res := lowerDivRem(ctx, ins)
	require.Equal(t, Handled, res)
	require.Equal(t, SDivRRR, b.Instrs[len(b.Instrs)-1].Op)
}

func TestLowerDivRem_RemEmitsDivThenMSub(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeSRem, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	res := lowerDivRem(ctx, ins)
	require.Equal(t, Handled, res)
	require.Len(t, b.Instrs, 2)
	require.Equal(t, SDivRRR, b.Instrs[0].Op)
	require.Equal(t, MSubRRRR, b.Instrs[1].Op)
}

func TestLowerDivRem_Chk0EmitsZeroCheckTrap(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeSDivChk0, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	res := lowerDivRem(ctx, ins)
	require.Equal(t, Handled, res)

	require.Equal(t, CmpRI, b.Instrs[0].Op)
	require.Equal(t, int64(0), b.Instrs[0].Operands[1].Imm())
	require.Equal(t, BCond, b.Instrs[1].Op)
	require.Equal(t, CondEQ, b.Instrs[1].Operands[0].Cond())
	require.Equal(t, SDivRRR, b.Instrs[2].Op)

	require.Len(t, ctx.ExtraBlocks(), 1)
	trap := ctx.ExtraBlocks()[0]
	require.Equal(t, b.Instrs[1].Operands[1].Label(), trap.Label)
	require.Equal(t, "rt_trap", trap.Instrs[0].Operands[0].Label())
}

func TestLowerDivRem_URemChk0EmitsZeroCheckThenDivThenMSub(t *testing.T) {
	ctx, b := newCtxWithBlock()
	ins := il.NewInstrResult(il.OpcodeURemChk0, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	res := lowerDivRem(ctx, ins)
	require.Equal(t, Handled, res)

	var kinds []MOp
	for _, i := range b.Instrs {
		kinds = append(kinds, i.Op)
	}
	require.Equal(t, []MOp{CmpRI, BCond, UDivRRR, MSubRRRR}, kinds)
}

func TestPickImmediateOperand_NoImmediateOperand(t *testing.T) {
	ins := il.NewInstrResult(il.OpcodeAdd, 0, il.TypeI64, il.Temp(1), il.Temp(2))
	_, _, ok := pickImmediateOperand(ins, true)
	require.False(t, ok)
}
