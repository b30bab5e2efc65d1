package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameBuilder_AddLocal_StableOffset(t *testing.T) {
	fb := NewFrameBuilder(NewTargetAArch64Darwin())
	off1 := fb.AddLocal(1, 8, 8)
	off2 := fb.AddLocal(1, 8, 8)
	require.Equal(t, off1, off2)

	off3 := fb.AddLocal(2, 4, 4)
	require.NotEqual(t, off1, off3)
}

func TestFrameBuilder_EnsureSpill_StableAcrossCalls(t *testing.T) {
	fb := NewFrameBuilder(NewTargetAArch64Darwin())
	first := fb.EnsureSpill(7)
	second := fb.EnsureSpill(7)
	require.Equal(t, first, second)

	other := fb.EnsureSpill(9)
	require.NotEqual(t, first, other)
}

func TestFrameBuilder_Finalize_AlignsTo16(t *testing.T) {
	fb := NewFrameBuilder(NewTargetAArch64Darwin())
	fb.AddLocal(1, 8, 8)
	fb.EnsureSpill(1)
	fb.SetMaxOutgoingBytes(8)
	fb.SetCalleeSaved([]Reg{GPR(19)}, nil)

	plan := fb.Finalize()
	require.Zero(t, plan.Size()%16)
	require.Equal(t, int64(8), plan.OutgoingBytes())
	require.Len(t, plan.CalleeSavedGPR(), 1)
}

func TestFrameBuilder_Finalize_Idempotent(t *testing.T) {
	fb := NewFrameBuilder(NewTargetAArch64Darwin())
	fb.AddLocal(1, 8, 8)
	p1 := fb.Finalize()
	p2 := fb.Finalize()
	require.Same(t, p1, p2)
}

func TestAlignUp(t *testing.T) {
	require.Equal(t, int64(16), alignUp(1, 16))
	require.Equal(t, int64(16), alignUp(16, 16))
	require.Equal(t, int64(32), alignUp(17, 16))
	require.Equal(t, int64(5), alignUp(5, 1))
}
