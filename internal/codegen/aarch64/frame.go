package aarch64

// FrameBuilder accumulates a function's stack-frame layout as the lowerer and
// register allocator discover locals, spill slots, and outgoing call argument
// bytes, then produces a single finalized FramePlan (spec.md section 4.1).
//
// Offsets are relative to the frame pointer (x29) and grow downward from it, in
// AAPCS64's usual "locals below FP, outgoing args at the bottom of the frame"
// shape. A slot's offset, once handed out, never changes for the lifetime of the
// builder — callers may cache it across multiple lowering passes.
type FrameBuilder struct {
	target *Target

	localOffsets map[uint32]int64
	nextLocal    int64

	spillOffsets map[uint16]int64
	nextSpill    int64

	maxOutgoing int64

	calleeGPR []Reg
	calleeFPR []Reg

	finalized bool
	plan      *FramePlan
}

func NewFrameBuilder(target *Target) *FrameBuilder {
	return &FrameBuilder{
		target:       target,
		localOffsets: make(map[uint32]int64),
		spillOffsets: make(map[uint16]int64),
	}
}

// AddLocal reserves size bytes (aligned to align) for a named IL local (an Alloca
// destination) and returns its frame-pointer-relative offset. Calling AddLocal
// again with the same id returns the previously assigned offset.
func (fb *FrameBuilder) AddLocal(id uint32, size, align int64) int64 {
	if off, ok := fb.localOffsets[id]; ok {
		return off
	}
	fb.nextLocal = alignUp(fb.nextLocal+size, align)
	off := -fb.nextLocal
	fb.localOffsets[id] = off
	return off
}

// EnsureSpill returns the stable spill-slot offset for vreg id, allocating one
// (8 bytes, naturally aligned) the first time it's requested (spec.md section 4.7,
// "a vreg spilled more than once keeps the same slot").
func (fb *FrameBuilder) EnsureSpill(vregID uint16) int64 {
	if off, ok := fb.spillOffsets[vregID]; ok {
		return off
	}
	fb.nextSpill = alignUp(fb.nextSpill+8, 8)
	off := -(fb.nextLocal + fb.nextSpill)
	fb.spillOffsets[vregID] = off
	return off
}

// SetMaxOutgoingBytes records the largest outgoing-argument area any call site in
// this function needs below the frame (spec.md section 4.5's stack-passed argument
// handling). Calls with smaller needs do not shrink a previously recorded value.
func (fb *FrameBuilder) SetMaxOutgoingBytes(n int64) {
	if n > fb.maxOutgoing {
		fb.maxOutgoing = n
	}
}

// SetCalleeSaved records which callee-saved physical registers RegAllocLinear
// actually wrote in this function, so the prologue/epilogue only save/restore
// what's used (spec.md section 4.1, "minimal callee-saved footprint").
func (fb *FrameBuilder) SetCalleeSaved(gpr, fpr []Reg) {
	fb.calleeGPR = gpr
	fb.calleeFPR = fpr
}

// Finalize computes the total frame size (aligned to the target's stack
// alignment, including the fixed x29/x30 save slot and callee-saved register
// save area) and freezes the builder into a FramePlan. Finalize is idempotent:
// calling it more than once returns the same plan.
func (fb *FrameBuilder) Finalize() *FramePlan {
	if fb.finalized {
		return fb.plan
	}
	fb.finalized = true

	savedRegBytes := int64(8 * (len(fb.calleeGPR) + len(fb.calleeFPR)))
	fpLrBytes := int64(16) // x29/x30 save pair.

	localsAndSpills := fb.nextLocal + fb.nextSpill
	total := alignUp(localsAndSpills+savedRegBytes+fpLrBytes+fb.maxOutgoing, fb.target.StackAlign())

	fb.plan = &FramePlan{
		size:          total,
		localOffsets:  fb.localOffsets,
		spillOffsets:  fb.spillOffsets,
		outgoingBytes: fb.maxOutgoing,
		calleeGPR:     fb.calleeGPR,
		calleeFPR:     fb.calleeFPR,
	}
	return fb.plan
}

// FramePlan is the frozen, read-only stack layout for one function (spec.md
// section 4.1), consumed by the lowerer's memory fast paths and by AsmEmitter's
// prologue/epilogue.
type FramePlan struct {
	size          int64
	localOffsets  map[uint32]int64
	spillOffsets  map[uint16]int64
	outgoingBytes int64
	calleeGPR     []Reg
	calleeFPR     []Reg
}

func (p *FramePlan) Size() int64 { return p.size }

func (p *FramePlan) LocalOffset(id uint32) (int64, bool) {
	off, ok := p.localOffsets[id]
	return off, ok
}

func (p *FramePlan) SpillOffset(vregID uint16) (int64, bool) {
	off, ok := p.spillOffsets[vregID]
	return off, ok
}

func (p *FramePlan) OutgoingBytes() int64 { return p.outgoingBytes }

func (p *FramePlan) CalleeSavedGPR() []Reg { return p.calleeGPR }
func (p *FramePlan) CalleeSavedFPR() []Reg { return p.calleeFPR }

func alignUp(v, align int64) int64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
