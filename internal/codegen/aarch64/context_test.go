package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/viperlang/viper-aarch64/internal/il"
)

func testFunction() *il.Function {
	return &il.Function{
		Name: "f",
		Blks: []*il.Block{{Label: "entry", Instrs: []*il.Instruction{il.NewInstr(il.OpcodeRet)}}},
	}
}

func TestLoweringContext_VRegFor_Stable(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	r1 := ctx.VRegFor(3, RegClassGPR)
	r2 := ctx.VRegFor(3, RegClassGPR)
	require.Equal(t, r1, r2)

	r3 := ctx.VRegFor(4, RegClassGPR)
	require.NotEqual(t, r1, r3)
}

func TestLoweringContext_FreshVReg_NeverCollidesWithTempVRegs(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	r1 := ctx.VRegFor(0, RegClassGPR)
	r2 := ctx.FreshVReg(RegClassGPR)
	require.NotEqual(t, r1.ID(), r2.ID())
}

func TestLoweringContext_EmitWithoutBlockPanics(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	require.Panics(t, func() { ctx.Emit(NewMInstr(Ret)) })
}

func TestLoweringContext_Emit(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	b := &MBasicBlock{Label: "entry"}
	ctx.SetBlock(b)
	ctx.Emit(NewMInstr(Ret))
	require.Len(t, b.Instrs, 1)
}

func TestRegClassFor(t *testing.T) {
	require.Equal(t, RegClassGPR, RegClassFor(il.TypeI64))
	require.Equal(t, RegClassFPR, RegClassFor(il.TypeF32))
}

func TestLoweringContext_NewTrapBlock_RegistersACallToRtTrap(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	label := ctx.NewTrapBlock("bounds")

	require.Len(t, ctx.ExtraBlocks(), 1)
	trap := ctx.ExtraBlocks()[0]
	require.Equal(t, label, trap.Label)
	require.Len(t, trap.Instrs, 1)
	require.Equal(t, Bl, trap.Instrs[0].Op)
	require.Equal(t, "rt_trap", trap.Instrs[0].Operands[0].Label())
}

func TestLoweringContext_NewTrapBlock_DistinctLabelsPerCall(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	a := ctx.NewTrapBlock("div0")
	b := ctx.NewTrapBlock("div0")
	require.NotEqual(t, a, b)
	require.Len(t, ctx.ExtraBlocks(), 2)
}

func TestLoweringContext_VRegFor_MarksForcedCrossBlockInsideTrampoline(t *testing.T) {
	ctx := NewLoweringContext(testFunction(), NewTargetAArch64Darwin(), nil)
	ctx.VRegFor(7, RegClassGPR)
	gpr, _ := ctx.CrossBlockVRegSets()
	require.False(t, gpr[0])

	ctx.inTrampoline = true
	ctx.VRegFor(8, RegClassGPR)
	ctx.inTrampoline = false

	gpr, _ = ctx.CrossBlockVRegSets()
	require.True(t, ctx.forcedCrossBlock[8])
	_ = gpr
}
