package aarch64

// RegAllocLinear assigns physical registers to the virtual registers a Lowerer
// produced, walking each block's instruction stream once (spec.md section 4.7).
// It is not a global interval-graph allocator: cross-block virtual registers are
// always kept in a stable spill slot, loaded into a physical register just before
// each use and stored back just after each def, while block-local virtual
// registers are assigned out of a small free-register pool with furthest-next-use
// eviction when the pool is exhausted. Call sites spill every block-local value
// currently held in a caller-saved physical register, since AAPCS64 gives the
// callee free rein over the caller-saved file.
type RegAllocLinear struct {
	target *Target
	frame  *FrameBuilder

	crossBlockGPR map[uint16]bool
	crossBlockFPR map[uint16]bool
}

// NewRegAllocLinear builds an allocator for one function. crossBlockGPR/FPR
// identify, by vreg id, every virtual register whose defining IL temp was found
// to cross a block boundary during liveness analysis.
func NewRegAllocLinear(target *Target, frame *FrameBuilder, crossBlockGPR, crossBlockFPR map[uint16]bool) *RegAllocLinear {
	return &RegAllocLinear{
		target:        target,
		frame:         frame,
		crossBlockGPR: crossBlockGPR,
		crossBlockFPR: crossBlockFPR,
	}
}

// regState tracks one class's allocation bookkeeping while walking a block.
type regState struct {
	free   regSet
	active map[uint16]uint16 // vreg id -> assigned physical register id
	owner  map[uint16]uint16 // physical register id -> vreg id currently holding it
}

func newRegState(pool []Reg) *regState {
	var s regSet
	for _, r := range pool {
		s = s.add(r.ID())
	}
	return &regState{free: s, active: map[uint16]uint16{}, owner: map[uint16]uint16{}}
}

func (st *regState) releaseAll() {
	for vreg, phys := range st.active {
		delete(st.active, vreg)
		delete(st.owner, phys)
		st.free = st.free.add(phys)
	}
}

// Run allocates registers for every block of mf, rewriting each MInstr's virtual
// register operands to physical registers and inserting spill/reload load/store
// instructions around cross-block values, replacing each block's instruction
// slice with the rewritten one.
func (ra *RegAllocLinear) Run(mf *MFunction) {
	gprPool := append(append([]Reg{}, ra.target.CallerSavedGPR()...), ra.target.CalleeSavedGPR()...)
	fprPool := append(append([]Reg{}, ra.target.CallerSavedFPR()...), ra.target.CalleeSavedFPR()...)

	usedCalleeGPR := map[uint16]bool{}
	usedCalleeFPR := map[uint16]bool{}

	for _, b := range mf.Blocks {
		gpr := newRegState(gprPool)
		fpr := newRegState(fprPool)

		var out []*MInstr
		for ii, ins := range b.Instrs {
			if ins.IsCall() {
				gpr.releaseAll()
				fpr.releaseAll()
			}

			idx, roles := ins.RegOperandIndices()
			var pre, post []*MInstr

			for k, opIdx := range idx {
				r := ins.Operands[opIdx].Reg()
				if r.IsPhys() {
					continue
				}
				st, cross, pool := ra.stateFor(r, gpr, fpr, gprPool, fprPool)
				rest := b.Instrs[ii+1:]

				switch roles[k] {
				case RoleUse:
					phys, load := ra.ensureLoaded(rest, st, r, cross, pool)
					if load != nil {
						pre = append(pre, load)
					}
					ins.Operands[opIdx] = OpReg(physRegOf(r, phys))
					ra.noteCalleeUse(phys, r.Class(), usedCalleeGPR, usedCalleeFPR)

				case RoleDef:
					phys := ra.allocate(rest, st, r, pool)
					ins.Operands[opIdx] = OpReg(physRegOf(r, phys))
					ra.noteCalleeUse(phys, r.Class(), usedCalleeGPR, usedCalleeFPR)
					if cross {
						off := ra.frame.EnsureSpill(r.ID())
						post = append(post, storeInstr(r.Class(), physRegOf(r, phys), off))
					}
				}
			}

			out = append(out, pre...)
			out = append(out, ins)
			out = append(out, post...)
		}
		b.Instrs = out
	}

	mf.SavedGPRs = toRegList(usedCalleeGPR, RegClassGPR)
	mf.SavedFPRs = toRegList(usedCalleeFPR, RegClassFPR)
	ra.frame.SetCalleeSaved(mf.SavedGPRs, mf.SavedFPRs)
}

func (ra *RegAllocLinear) noteCalleeUse(phys uint16, class RegClass, usedGPR, usedFPR map[uint16]bool) {
	if ra.target.IsCalleeSaved(PReg(phys, class)) {
		if class == RegClassFPR {
			usedFPR[phys] = true
		} else {
			usedGPR[phys] = true
		}
	}
}

func physRegOf(v Reg, phys uint16) Reg { return PReg(phys, v.Class()) }

func (ra *RegAllocLinear) stateFor(r Reg, gpr, fpr *regState, gprPool, fprPool []Reg) (*regState, bool, []Reg) {
	if r.Class() == RegClassFPR {
		return fpr, ra.crossBlockFPR[r.ID()], fprPool
	}
	return gpr, ra.crossBlockGPR[r.ID()], gprPool
}

// ensureLoaded returns the physical register holding r's value for a use. If r
// isn't already active in this block, a fresh physical register is picked and,
// for cross-block vregs, a load instruction from its spill slot is returned to be
// inserted ahead of the using instruction.
func (ra *RegAllocLinear) ensureLoaded(rest []*MInstr, st *regState, r Reg, cross bool, pool []Reg) (uint16, *MInstr) {
	if p, ok := st.active[r.ID()]; ok {
		return p, nil
	}
	p := ra.pickPhysical(rest, st, pool)
	st.active[r.ID()] = p
	st.owner[p] = r.ID()
	if !cross {
		// A block-local vreg used before any def in this block is malformed IL;
		// defensively treat it as already holding whatever garbage is in the
		// chosen register rather than crashing the allocator.
		return p, nil
	}
	// EnsureSpill hands out the same slot the defining store uses, even when the
	// defining block comes later in layout order (e.g. a CBr trampoline).
	off := ra.frame.EnsureSpill(r.ID())
	return p, loadInstr(r.Class(), physRegOf(r, p), off)
}

// allocate returns the physical register a definition should target, evicting a
// victim by furthest-next-use if the free pool is exhausted.
func (ra *RegAllocLinear) allocate(rest []*MInstr, st *regState, r Reg, pool []Reg) uint16 {
	p := ra.pickPhysical(rest, st, pool)
	st.active[r.ID()] = p
	st.owner[p] = r.ID()
	return p
}

// pickPhysical returns a free physical register id, evicting the active vreg used
// furthest in the future (or never again) if none are free.
func (ra *RegAllocLinear) pickPhysical(rest []*MInstr, st *regState, pool []Reg) uint16 {
	if id, free, ok := st.free.take(); ok {
		st.free = free
		return id
	}

	var victimVReg uint16
	victimDist := -1
	for vreg := range st.active {
		dist := nextUseDistance(rest, vreg)
		if dist > victimDist {
			victimDist = dist
			victimVReg = vreg
		}
	}
	victimPhys := st.active[victimVReg]
	delete(st.active, victimVReg)
	delete(st.owner, victimPhys)
	return victimPhys
}

// nextUseDistance returns how many instructions ahead vregID is next referenced
// in rest, or len(rest)+1 if it never is (a safe, cheap eviction).
func nextUseDistance(rest []*MInstr, vregID uint16) int {
	for i, ins := range rest {
		for _, op := range ins.Operands {
			if op.Kind() == OperandKindReg && !op.Reg().IsPhys() && op.Reg().ID() == vregID {
				return i
			}
		}
	}
	return len(rest) + 1
}

func loadInstr(class RegClass, dst Reg, fpOffset int64) *MInstr {
	if class == RegClassFPR {
		return NewMInstr(LdrFprFpImm, OpReg(dst), OpImm(fpOffset))
	}
	return NewMInstr(LdrRegFpImm, OpReg(dst), OpImm(fpOffset))
}

func storeInstr(class RegClass, src Reg, fpOffset int64) *MInstr {
	if class == RegClassFPR {
		return NewMInstr(StrFprFpImm, OpReg(src), OpImm(fpOffset))
	}
	return NewMInstr(StrRegFpImm, OpReg(src), OpImm(fpOffset))
}

func toRegList(set map[uint16]bool, class RegClass) []Reg {
	var out []Reg
	for id := range set {
		out = append(out, PReg(id, class))
	}
	return out
}
