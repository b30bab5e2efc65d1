package aarch64

// PeepholeConfig tunes which Peephole phases run (spec.md section 4.8).
// EnableCopyPropagation is hard-pinned false: spec.md section 9 leaves copy
// propagation as an explicit open question, and SPEC_FULL.md section F resolves
// it by keeping it disabled, matching the pre-existing MovRR chains this
// backend's lowerer already keeps minimal on its own.
type PeepholeConfig struct {
	EnableCopyPropagation bool
}

// DefaultPeepholeConfig returns the configuration this backend always runs with.
func DefaultPeepholeConfig() PeepholeConfig {
	return PeepholeConfig{EnableCopyPropagation: false}
}

// PeepholeStats counts how many times each rewrite phase fired, useful for tests
// and for a driver's -v output.
type PeepholeStats struct {
	IdentityMovesRemoved int
	StrengthReduced      int
	CmpToTstRewrites     int
	DeadInstrsRemoved    int
	BranchesToNextRemoved int
	ColdBlocksMoved       int
}

// Peephole runs the fixed phase pipeline over mf in place (spec.md section 4.8):
// identity-move removal, copy propagation (disabled), strength reduction,
// cmp-to-tst rewriting, dead-code elimination, branch-to-next elimination, and
// cold-block reordering.
func Peephole(mf *MFunction, cfg PeepholeConfig) PeepholeStats {
	var stats PeepholeStats

	for _, b := range mf.Blocks {
		b.Instrs, stats.IdentityMovesRemoved = removeIdentityMoves(b.Instrs, stats.IdentityMovesRemoved)
	}

	if cfg.EnableCopyPropagation {
		// Deliberately unimplemented: see PeepholeConfig's doc comment.
	}

	for _, b := range mf.Blocks {
		b.Instrs, stats.StrengthReduced = strengthReduce(b.Instrs, stats.StrengthReduced)
	}

	for _, b := range mf.Blocks {
		b.Instrs, stats.CmpToTstRewrites = cmpToTst(b.Instrs, stats.CmpToTstRewrites)
	}

	for _, b := range mf.Blocks {
		b.Instrs, stats.DeadInstrsRemoved = deadCodeEliminate(b.Instrs, stats.DeadInstrsRemoved)
	}

	eliminateBranchToNext(mf, &stats)
	reorderColdBlocks(mf, &stats)

	return stats
}

// removeIdentityMoves drops MovRR/FMovRR instructions whose source and
// destination are the same physical register, which RegAllocLinear can produce
// when a use and a def of the same vreg land in the same physical register.
func removeIdentityMoves(instrs []*MInstr, count int) ([]*MInstr, int) {
	out := instrs[:0:0]
	for _, ins := range instrs {
		if (ins.Op == MovRR || ins.Op == FMovRR) && len(ins.Operands) == 2 {
			dst, src := ins.Operands[0], ins.Operands[1]
			if dst.Kind() == OperandKindReg && src.Kind() == OperandKindReg && dst.Reg() == src.Reg() {
				count++
				continue
			}
		}
		out = append(out, ins)
	}
	return out, count
}

// strengthReduce rewrites AddRI/SubRI by zero into a plain move. MulRRR is left
// as it is: no multiply is rewritten into a shift. It never invents a new register.
func strengthReduce(instrs []*MInstr, count int) ([]*MInstr, int) {
	out := make([]*MInstr, 0, len(instrs))
	for _, ins := range instrs {
		if (ins.Op == AddRI || ins.Op == SubRI) && len(ins.Operands) == 3 {
			imm := ins.Operands[2]
			if imm.Kind() == OperandKindImm && imm.Imm() == 0 {
				count++
				out = append(out, NewMInstr(MovRR, ins.Operands[0], ins.Operands[1]))
				continue
			}
		}
		out = append(out, ins)
	}
	return out, count
}

// cmpToTst rewrites "CmpRI reg, #0" into "TstRR reg, reg", which is flags-
// equivalent for the eq/ne conditions this backend ever derives from a zero
// comparison and avoids materializing the immediate.
func cmpToTst(instrs []*MInstr, count int) ([]*MInstr, int) {
	out := make([]*MInstr, 0, len(instrs))
	for _, ins := range instrs {
		if ins.Op == CmpRI && len(ins.Operands) == 2 {
			reg, imm := ins.Operands[0], ins.Operands[1]
			if imm.Kind() == OperandKindImm && imm.Imm() == 0 {
				count++
				out = append(out, NewMInstr(TstRR, reg, reg))
				continue
			}
		}
		out = append(out, ins)
	}
	return out, count
}

// deadCodeEliminate drops a defining instruction whose destination register is
// never read again in the block and which has no side effect. Per spec.md
// section 9's conservative model (kept as-is per SPEC_FULL.md section F), any
// load instruction is treated as side-effecting and never removed even if its
// result goes unused, since this backend does not attempt to prove a load is
// effect-free.
func deadCodeEliminate(instrs []*MInstr, count int) ([]*MInstr, int) {
	out := make([]*MInstr, 0, len(instrs))
	for i, ins := range instrs {
		if isSideEffecting(ins) {
			out = append(out, ins)
			continue
		}
		idx, roles := ins.RegOperandIndices()
		defIdx := -1
		for k, role := range roles {
			if role == RoleDef {
				defIdx = idx[k]
				break
			}
		}
		if defIdx < 0 {
			out = append(out, ins)
			continue
		}
		dstReg := ins.Operands[defIdx].Reg()
		if dstReg.IsPhys() {
			// Physical-register definitions (argument marshalling, return value
			// moves) are never considered dead; their "use" is implicit in the
			// calling convention, not visible as a later operand reference.
			out = append(out, ins)
			continue
		}
		if usedLaterInBlock(instrs[i+1:], dstReg.ID()) {
			out = append(out, ins)
			continue
		}
		count++
	}
	return out, count
}

func usedLaterInBlock(rest []*MInstr, vregID uint16) bool {
	for _, ins := range rest {
		for _, op := range ins.Operands {
			if op.Kind() == OperandKindReg && !op.Reg().IsPhys() && op.Reg().ID() == vregID {
				return true
			}
		}
	}
	return false
}

func isSideEffecting(ins *MInstr) bool {
	switch ins.Op {
	case StrRegFpImm, StrRegBaseImm, StrFprFpImm, StrFprBaseImm, StrRegSpImm, StrFprSpImm,
		LdrRegFpImm, LdrRegBaseImm, LdrFprFpImm, LdrFprBaseImm,
		Bl, Blr, Ret, Br, BCond, Cbz:
		return true
	default:
		return false
	}
}

// eliminateBranchToNext removes an unconditional Br whose target is the label of
// the block immediately following it in mf.Blocks' layout order.
func eliminateBranchToNext(mf *MFunction, stats *PeepholeStats) {
	for i, b := range mf.Blocks {
		if i+1 >= len(mf.Blocks) || len(b.Instrs) == 0 {
			continue
		}
		last := b.Instrs[len(b.Instrs)-1]
		if last.Op != Br || len(last.Operands) != 1 {
			continue
		}
		if last.Operands[0].Kind() == OperandKindLabel && last.Operands[0].Label() == mf.Blocks[i+1].Label {
			b.Instrs = b.Instrs[:len(b.Instrs)-1]
			stats.BranchesToNextRemoved++
		}
	}
}

// reorderColdBlocks moves every block whose sole instruction is a call to rt_trap
// (spec.md section 4.4's Trap/TrapFromErr lowering) to the end of the function,
// keeping the hot path contiguous and improving instruction-cache locality for the
// common case where traps are rare.
func reorderColdBlocks(mf *MFunction, stats *PeepholeStats) {
	var hot, cold []*MBasicBlock
	for i, b := range mf.Blocks {
		if i == 0 {
			// Never move the entry block.
			hot = append(hot, b)
			continue
		}
		if isColdTrapBlock(b) {
			cold = append(cold, b)
			stats.ColdBlocksMoved++
			continue
		}
		hot = append(hot, b)
	}
	if len(cold) == 0 {
		return
	}
	mf.Blocks = append(hot, cold...)
}

func isColdTrapBlock(b *MBasicBlock) bool {
	if len(b.Instrs) != 1 {
		return false
	}
	last := b.Instrs[len(b.Instrs)-1]
	return last.Op == Bl && len(last.Operands) == 1 && last.Operands[0].Kind() == OperandKindLabel &&
		last.Operands[0].Label() == "rt_trap"
}
