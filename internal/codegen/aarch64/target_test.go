package aarch64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTarget_Invariants(t *testing.T) {
	tgt := NewTargetAArch64Darwin()

	// (i) caller-saved and callee-saved GPR sets are disjoint.
	callee := map[uint16]bool{}
	for _, r := range tgt.CalleeSavedGPR() {
		callee[r.ID()] = true
	}
	for _, r := range tgt.CallerSavedGPR() {
		require.False(t, callee[r.ID()], "register x%d in both caller- and callee-saved GPR sets", r.ID())
	}

	// (ii) V8..V15 are exclusively in the callee-saved FPR list.
	calleeFPR := map[uint16]bool{}
	for _, r := range tgt.CalleeSavedFPR() {
		calleeFPR[r.ID()] = true
	}
	for id := uint16(8); id <= 15; id++ {
		require.True(t, calleeFPR[id], "v%d must be callee-saved", id)
	}
	for _, r := range tgt.CallerSavedFPR() {
		require.False(t, r.ID() >= 8 && r.ID() <= 15, "v%d leaked into caller-saved FPR list", r.ID())
	}

	// (iii) argument registers are a prefix of the caller-saved lists.
	for i := 0; i < 8; i++ {
		require.Equal(t, tgt.IntArg(i), tgt.CallerSavedGPR()[i])
		require.Equal(t, tgt.F64Arg(i), tgt.CallerSavedFPR()[i])
	}

	// (iv) the global scratch GPR never appears in either GPR pool.
	for _, r := range append(append([]Reg{}, tgt.CallerSavedGPR()...), tgt.CalleeSavedGPR()...) {
		require.NotEqual(t, tgt.Scratch().ID(), r.ID())
	}

	require.Equal(t, int64(16), tgt.StackAlign())
}
