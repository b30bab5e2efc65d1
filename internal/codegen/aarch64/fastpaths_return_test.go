package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viperlang/viper-aarch64/internal/il"
)

func TestLowerReturn_VoidJustEmitsRet(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	b := &MBasicBlock{Label: "entry"}
	ctx.SetBlock(b)
	res := lowerReturn(ctx, il.NewInstr(il.OpcodeRet))
	require.Equal(t, Handled, res)
	require.Len(t, b.Instrs, 1)
	require.Equal(t, Ret, b.Instrs[0].Op)
}

func TestLowerReturn_IntegerValueMovesIntoX0(t *testing.T) {
	fn := &il.Function{Name: "f", Sig: il.Signature{HasRet: true, RetType: il.TypeI64}, Blks: []*il.Block{{Label: "entry"}}}
	ctx := NewLoweringContext(fn, NewTargetAArch64Darwin(), nil)
	b := &MBasicBlock{Label: "entry"}
	ctx.SetBlock(b)

	res := lowerReturn(ctx, il.NewInstr(il.OpcodeRet, il.ConstInt(7)))
	require.Equal(t, Handled, res)
	require.Equal(t, MovRR, b.Instrs[1].Op)
	require.Equal(t, GPR(0), b.Instrs[1].Operands[0].Reg())
	require.Equal(t, Ret, b.Instrs[2].Op)
}

func TestLowerReturn_VoidFromMainMovesZeroIntoX0(t *testing.T) {
	fn := &il.Function{Name: "main", Blks: []*il.Block{{Label: "entry"}}}
	ctx := NewLoweringContext(fn, NewTargetAArch64Darwin(), nil)
	b := &MBasicBlock{Label: "entry"}
	ctx.SetBlock(b)

	res := lowerReturn(ctx, il.NewInstr(il.OpcodeRet))
	require.Equal(t, Handled, res)
	require.Len(t, b.Instrs, 2)
	require.Equal(t, MovRI, b.Instrs[0].Op)
	require.Equal(t, GPR(0), b.Instrs[0].Operands[0].Reg())
	require.Equal(t, int64(0), b.Instrs[0].Operands[1].Imm())
	require.Equal(t, Ret, b.Instrs[1].Op)
}

func TestLowerReturn_FloatValueMovesIntoV0(t *testing.T) {
	fn := &il.Function{Name: "f", Sig: il.Signature{HasRet: true, RetType: il.TypeF64}, Blks: []*il.Block{{Label: "entry"}}}
	ctx := NewLoweringContext(fn, NewTargetAArch64Darwin(), nil)
	b := &MBasicBlock{Label: "entry"}
	ctx.SetBlock(b)

	res := lowerReturn(ctx, il.NewInstr(il.OpcodeRet, il.ConstFloat64(1.0)))
	require.Equal(t, Handled, res)
	require.Equal(t, FMovRR, b.Instrs[1].Op)
	require.Equal(t, FPR(0), b.Instrs[1].Operands[0].Reg())
}
