package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// LivenessAnalysis is a cheap, block-granularity liveness pass run ahead of
// lowering (spec.md section 4.2). It does not compute precise per-instruction live
// ranges (RegAllocLinear derives those itself from the MIR); its only job is to tell
// the lowerer which IL temps are ever referenced outside the block that defines
// them, so cross-block values can be given a stable spill slot up front instead of
// being re-derived from SSA phi bookkeeping during lowering.
type LivenessAnalysis struct {
	tempDefBlock map[il.TempID]int

	// crossBlock holds every temp referenced by at least one block other than the
	// one that defines it. A block parameter counts as defined by the block that
	// declares it, not by the predecessors whose branch arguments feed it.
	crossBlock map[il.TempID]bool
}

// AnalyzeFunction runs liveness over fn and returns the result.
func AnalyzeFunction(fn *il.Function) *LivenessAnalysis {
	la := &LivenessAnalysis{
		tempDefBlock: make(map[il.TempID]int),
		crossBlock:   make(map[il.TempID]bool),
	}

	for bi, b := range fn.Blks {
		for _, p := range b.Params {
			la.tempDefBlock[p.ID] = bi
		}
		for _, ins := range b.Instrs {
			if ins.HasResult {
				la.tempDefBlock[ins.Result] = bi
			}
		}
	}

	for bi, b := range fn.Blks {
		for _, ins := range b.Instrs {
			for _, a := range ins.Args {
				la.markUse(a, bi)
			}
			for _, args := range ins.BrArgs {
				for _, a := range args {
					la.markUse(a, bi)
				}
			}
		}
	}

	return la
}

func (la *LivenessAnalysis) markUse(v il.Value, useBlock int) {
	if v.Kind() != il.ValueKindTemp {
		return
	}
	t := v.Temp()
	defBlock, ok := la.tempDefBlock[t]
	if !ok {
		// Malformed IL (spec.md section 7): a temp used before any recorded
		// definition. Treated as cross-block so it gets a conservative spill slot
		// rather than silently miscompiling.
		la.crossBlock[t] = true
		return
	}
	if defBlock != useBlock {
		la.crossBlock[t] = true
	}
}

// CrossesBlock reports whether t is referenced from a block other than the one
// that defines it.
func (la *LivenessAnalysis) CrossesBlock(t il.TempID) bool {
	return la.crossBlock[t]
}

// DefBlock returns the index of the block that defines t.
func (la *LivenessAnalysis) DefBlock(t il.TempID) (int, bool) {
	bi, ok := la.tempDefBlock[t]
	return bi, ok
}

// CrossBlockSpillOffset is a convenience composed from LivenessAnalysis and a
// FrameBuilder: it ensures a spill slot exists for t's assigned vreg iff t crosses
// a block boundary, returning (offset, true), or (0, false) when t is block-local
// and can stay in a register for its whole lifetime.
func (la *LivenessAnalysis) CrossBlockSpillOffset(fb *FrameBuilder, t il.TempID, vregID uint16) (int64, bool) {
	if !la.CrossesBlock(t) {
		return 0, false
	}
	return fb.EnsureSpill(vregID), true
}
