package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegAllocLinear_AssignsDistinctPhysicalRegistersBlockLocal(t *testing.T) {
	target := NewTargetAArch64Darwin()
	fb := NewFrameBuilder(target)

	v1, v2, v3 := VReg(0, RegClassGPR), VReg(1, RegClassGPR), VReg(2, RegClassGPR)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(MovRI, OpReg(v1), OpImm(1)),
		NewMInstr(MovRI, OpReg(v2), OpImm(2)),
		NewMInstr(AddRRR, OpReg(v3), OpReg(v1), OpReg(v2)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Name: "f", Blocks: []*MBasicBlock{b}}

	ra := NewRegAllocLinear(target, fb, map[uint16]bool{}, map[uint16]bool{})
	ra.Run(mf)

	for _, ins := range mf.Blocks[0].Instrs {
		for _, op := range ins.Operands {
			if op.Kind() == OperandKindReg {
				require.True(t, op.Reg().IsPhys())
			}
		}
	}
}

func TestRegAllocLinear_CrossBlockValueIsSpilledAndReloaded(t *testing.T) {
	target := NewTargetAArch64Darwin()
	fb := NewFrameBuilder(target)

	v1 := VReg(0, RegClassGPR)
	b1 := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(MovRI, OpReg(v1), OpImm(41)),
		NewMInstr(Br, OpLabel("next")),
	}}
	b2 := &MBasicBlock{Label: "next", Instrs: []*MInstr{
		NewMInstr(MovRR, OpReg(GPR(0)), OpReg(v1)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Name: "f", Blocks: []*MBasicBlock{b1, b2}}

	ra := NewRegAllocLinear(target, fb, map[uint16]bool{0: true}, map[uint16]bool{})
	ra.Run(mf)

	var sawStore, sawLoad bool
	for _, ins := range b1.Instrs {
		if ins.Op == StrRegFpImm {
			sawStore = true
		}
	}
	for _, ins := range b2.Instrs {
		if ins.Op == LdrRegFpImm {
			sawLoad = true
		}
	}
	require.True(t, sawStore, "cross-block def must be stored to its spill slot")
	require.True(t, sawLoad, "cross-block use must reload from its spill slot")

	off, ok := fb.spillOffsets[0]
	require.True(t, ok)
	require.NotZero(t, off)
}

func TestRegAllocLinear_CallSiteReleasesActiveRegisters(t *testing.T) {
	target := NewTargetAArch64Darwin()
	fb := NewFrameBuilder(target)

	v1, v2 := VReg(0, RegClassGPR), VReg(1, RegClassGPR)
	b := &MBasicBlock{Label: "entry", Instrs: []*MInstr{
		NewMInstr(MovRI, OpReg(v1), OpImm(1)),
		NewMInstr(Bl, OpLabel("helper")),
		NewMInstr(MovRI, OpReg(v2), OpImm(2)),
		NewMInstr(Ret),
	}}
	mf := &MFunction{Name: "f", Blocks: []*MBasicBlock{b}}

	ra := NewRegAllocLinear(target, fb, map[uint16]bool{}, map[uint16]bool{})
	require.NotPanics(t, func() { ra.Run(mf) })
}

func TestRegAllocLinear_RecordsCalleeSavedRegistersOnFrame(t *testing.T) {
	target := NewTargetAArch64Darwin()
	fb := NewFrameBuilder(target)

	pool := target.CalleeSavedGPR()
	var instrs []*MInstr
	for i := 0; i < len(target.CallerSavedGPR())+1; i++ {
		v := VReg(uint16(i), RegClassGPR)
		instrs = append(instrs, NewMInstr(MovRI, OpReg(v), OpImm(int64(i))))
	}
	instrs = append(instrs, NewMInstr(Ret))
	mf := &MFunction{Name: "f", Blocks: []*MBasicBlock{{Label: "entry", Instrs: instrs}}}

	ra := NewRegAllocLinear(target, fb, map[uint16]bool{}, map[uint16]bool{})
	ra.Run(mf)

	require.NotEmpty(t, mf.SavedGPRs, "exhausting the caller-saved pool must spill into callee-saved registers")
	require.NotEmpty(t, pool)
}
