package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeephole_RemovesIdentityMove(t *testing.T) {
	r := GPR(2)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(MovRR, OpReg(r), OpReg(r)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Blocks: []*MBasicBlock{b}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 1, stats.IdentityMovesRemoved)
	require.Len(t, b.Instrs, 1)
	require.Equal(t, Ret, b.Instrs[0].Op)
}

func TestPeephole_StrengthReducesAddZero(t *testing.T) {
	dst, src := GPR(1), GPR(2)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(AddRI, OpReg(dst), OpReg(src), OpImm(0)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Blocks: []*MBasicBlock{b}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 1, stats.StrengthReduced)
	require.Equal(t, MovRR, b.Instrs[0].Op)
}

func TestPeephole_CmpZeroToTst(t *testing.T) {
	r := GPR(3)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(CmpRI, OpReg(r), OpImm(0)),
		NewMInstr(Cset, OpReg(GPR(4)), OpCond(CondEQ)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Blocks: []*MBasicBlock{b}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 1, stats.CmpToTstRewrites)
	require.Equal(t, TstRR, b.Instrs[0].Op)
}

func TestPeephole_DeadCodeEliminatesUnusedVRegDef(t *testing.T) {
	dead := VReg(9, RegClassGPR)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(AddRRR, OpReg(dead), OpReg(GPR(1)), OpReg(GPR(2))),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Blocks: []*MBasicBlock{b}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 1, stats.DeadInstrsRemoved)
	require.Len(t, b.Instrs, 1)
}

func TestPeephole_KeepsLoadEvenIfUnused(t *testing.T) {
	dead := VReg(9, RegClassGPR)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(LdrRegFpImm, OpReg(dead), OpImm(8)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Blocks: []*MBasicBlock{b}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 0, stats.DeadInstrsRemoved)
	require.Len(t, b.Instrs, 2)
}

func TestPeephole_EliminatesBranchToNextBlock(t *testing.T) {
	entry := &MBasicBlock{Label: "entry", Instrs: []*MInstr{NewMInstr(Br, OpLabel("next"))}}
	next := &MBasicBlock{Label: "next", Instrs: []*MInstr{NewMInstr(Ret)}}
	mf := &MFunction{Blocks: []*MBasicBlock{entry, next}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 1, stats.BranchesToNextRemoved)
	require.Empty(t, entry.Instrs)
}

func TestPeephole_ReordersColdTrapBlocksToEnd(t *testing.T) {
	entry := &MBasicBlock{Label: "entry", Instrs: []*MInstr{NewMInstr(Cbz, OpReg(GPR(0)), OpLabel("trap"))}}
	trap := &MBasicBlock{Label: "trap", Instrs: []*MInstr{NewMInstr(Bl, OpLabel("rt_trap"))}}
	exit := &MBasicBlock{Label: "exit", Instrs: []*MInstr{NewMInstr(Ret)}}
	mf := &MFunction{Blocks: []*MBasicBlock{entry, trap, exit}}

	stats := Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, 1, stats.ColdBlocksMoved)
	require.Equal(t, "entry", mf.Blocks[0].Label)
	require.Equal(t, "trap", mf.Blocks[len(mf.Blocks)-1].Label)
}

func TestPeephole_NeverMovesEntryBlockEvenIfColdShaped(t *testing.T) {
	entry := &MBasicBlock{Label: "entry", Instrs: []*MInstr{NewMInstr(Bl, OpLabel("rt_trap"))}}
	mf := &MFunction{Blocks: []*MBasicBlock{entry}}

	Peephole(mf, DefaultPeepholeConfig())
	require.Equal(t, "entry", mf.Blocks[0].Label)
}
