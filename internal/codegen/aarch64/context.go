package aarch64

import (
	"github.com/viperlang/viper-aarch64/internal/diag"
	"github.com/viperlang/viper-aarch64/internal/driverutil"
	"github.com/viperlang/viper-aarch64/internal/il"
)

// LoweringContext bundles everything InstrLowering, TerminatorLowering, and the
// fast-path helpers need while walking one function: the target descriptor, the
// frame under construction, the liveness result, the temp -> vreg map, and the
// diagnostic sink (spec.md section 9's note that the backend's internal state
// should be gathered behind a single context object rather than threaded as five
// separate parameters, grounded on the original implementation's LoweringContext.hpp
// split).
type LoweringContext struct {
	Target   *Target
	Frame    *FrameBuilder
	Liveness *LivenessAnalysis
	Diag     *diag.Sink

	fn *il.Function

	tempVReg map[il.TempID]Reg
	nextVReg uint16

	// gepFold records, for a GEP result whose index was a compile-time constant,
	// the base register and total byte offset so Load/Store lowering can fold the
	// address computation into the instruction's own immediate-offset form
	// instead of materializing a separate pointer register (spec.md section 4.6's
	// memory fast path).
	gepFold map[il.TempID]gepFoldInfo

	// allocaTemps records which IL temps are the address result of an Alloca, so
	// Store lowering can tell a fresh stack slot (no old string value to release)
	// from an arbitrary pointer (spec.md section 4.3's Store row).
	allocaTemps map[il.TempID]bool

	cur *MBasicBlock

	// extraBlocks holds synthetic trampoline blocks created by NewTrampoline (used
	// by CBr lowering to place per-edge parallel copies without splitting the
	// caller's own block in place). LowerFunction appends these to the function's
	// block list once the main walk finishes.
	extraBlocks []*MBasicBlock
	nextTramp   int

	// inTrampoline is true while emitting into a synthetic trampoline block.
	// forcedCrossBlock records every IL temp referenced while inTrampoline was set:
	// LivenessAnalysis only reasons about the original IL block structure, so it has
	// no way to know a temp's use has landed in a physically distinct MIR block from
	// its defining one. Without this, RegAllocLinear's per-MIR-block reset would
	// treat such a temp as block-local and read whatever garbage occupies its
	// physical register in the trampoline instead of reloading it.
	inTrampoline     bool
	forcedCrossBlock map[il.TempID]bool
}

type gepFoldInfo struct {
	base   Reg
	offset int64
}

// NewLoweringContext prepares a context for lowering fn.
func NewLoweringContext(fn *il.Function, target *Target, sink *diag.Sink) *LoweringContext {
	return &LoweringContext{
		Target:   target,
		Frame:    NewFrameBuilder(target),
		Liveness: AnalyzeFunction(fn),
		Diag:     sink,
		fn:       fn,
		tempVReg:         make(map[il.TempID]Reg),
		gepFold:          make(map[il.TempID]gepFoldInfo),
		allocaTemps:      make(map[il.TempID]bool),
		forcedCrossBlock: make(map[il.TempID]bool),
	}
}

// VRegFor returns the virtual register assigned to an IL temp, of the given
// register class, allocating a fresh one the first time it's requested.
func (c *LoweringContext) VRegFor(t il.TempID, class RegClass) Reg {
	if c.inTrampoline {
		c.forcedCrossBlock[t] = true
	}
	if r, ok := c.tempVReg[t]; ok {
		return r
	}
	r := VReg(c.nextVReg, class)
	c.nextVReg++
	c.tempVReg[t] = r
	return r
}

// FreshVReg allocates a new virtual register not associated with any IL temp, for
// lowerer-internal intermediates (e.g. a Zext1 mask constant, a call's marshalled
// argument copy).
func (c *LoweringContext) FreshVReg(class RegClass) Reg {
	r := VReg(c.nextVReg, class)
	c.nextVReg++
	return r
}

// RegClassFor returns the register class a value of the given IL type lives in.
func RegClassFor(t il.Type) RegClass {
	if t.IsFloat() {
		return RegClassFPR
	}
	return RegClassGPR
}

// SetBlock points subsequent Emit calls at b.
func (c *LoweringContext) SetBlock(b *MBasicBlock) { c.cur = b }

// Emit appends instr to the block set by SetBlock.
func (c *LoweringContext) Emit(instr *MInstr) {
	if c.cur == nil {
		diag.Fatal("Emit called with no current block set")
	}
	c.cur.Append(instr)
}

// Function returns the IL function being lowered.
func (c *LoweringContext) Function() *il.Function { return c.fn }

// NewTrampoline creates a fresh synthetic block with a unique label, registers it
// for later inclusion in the function's block list, and returns it without making
// it the current block (callers append instructions to it directly).
func (c *LoweringContext) NewTrampoline() *MBasicBlock {
	label := trampolineLabel(c.nextTramp)
	c.nextTramp++
	b := &MBasicBlock{Label: label}
	c.extraBlocks = append(c.extraBlocks, b)
	return b
}

func trampolineLabel(n int) string {
	digits := "0123456789"
	if n == 0 {
		return ".Ledge0"
	}
	s := ""
	for n > 0 {
		s = string(digits[n%10]) + s
		n /= 10
	}
	return ".Ledge" + s
}

// ExtraBlocks returns the trampoline and trap blocks created so far.
func (c *LoweringContext) ExtraBlocks() []*MBasicBlock { return c.extraBlocks }

// NewTrapBlock creates and registers a block that unconditionally calls
// rt_trap, the runtime symbol spec.md section 6 names for every checked-trap
// site (*Chk*, IdxChk), and returns its label for the caller to branch to
// (spec.md section 7: "emit an explicit check sequence and a branch to a
// generated block that calls rt_trap"). kind names the trap site (bounds,
// div0, cast) and is threaded through driverutil's process-wide trap-label
// counter, which is what spec.md section 5's "thread-local trapLabelCounter"
// note keeps unique across functions an outer driver compiles concurrently.
func (c *LoweringContext) NewTrapBlock(kind string) string {
	label := driverutil.NextTrapLabel(kind)
	b := &MBasicBlock{Label: label, Instrs: []*MInstr{NewMInstr(Bl, OpLabel("rt_trap"))}}
	c.extraBlocks = append(c.extraBlocks, b)
	return label
}

// CrossBlockVRegSets reports, for every virtual register minted from an IL temp,
// whether LivenessAnalysis found that temp referenced outside its defining block or
// the temp was touched while lowering a CBr trampoline (forcedCrossBlock).
// Virtual registers minted by FreshVReg (with no backing IL temp) are never
// cross-block: they're always consumed within the same instruction sequence that
// produced them.
func (c *LoweringContext) CrossBlockVRegSets() (gpr, fpr map[uint16]bool) {
	gpr = make(map[uint16]bool)
	fpr = make(map[uint16]bool)
	for temp, r := range c.tempVReg {
		if !c.Liveness.CrossesBlock(temp) && !c.forcedCrossBlock[temp] {
			continue
		}
		if r.Class() == RegClassFPR {
			fpr[r.ID()] = true
		} else {
			gpr[r.ID()] = true
		}
	}
	return gpr, fpr
}
