package aarch64

// Target is a process-wide immutable record describing one target flavour (spec.md
// section 3.1). It is built once via NewTargetAArch64Darwin and shared read-only by
// every concurrently-compiled function (spec.md section 5).
type Target struct {
	name string

	callerSavedGPR []Reg
	calleeSavedGPR []Reg
	callerSavedFPR []Reg
	calleeSavedFPR []Reg

	intArgOrder   [8]Reg
	f64ArgOrder   [8]Reg
	intReturnReg  Reg
	f64ReturnReg  Reg

	stackAlign int64
	scratch    Reg
}

// NewTargetAArch64Darwin builds the Darwin/macOS AAPCS64 target descriptor (spec.md
// section 3.1; this is the only target flavour this module implements — other
// targets are explicit non-goals, spec.md section 1).
func NewTargetAArch64Darwin() *Target {
	intArgs := [8]Reg{GPR(0), GPR(1), GPR(2), GPR(3), GPR(4), GPR(5), GPR(6), GPR(7)}
	f64Args := [8]Reg{FPR(0), FPR(1), FPR(2), FPR(3), FPR(4), FPR(5), FPR(6), FPR(7)}

	// Caller-saved GPR list: argument registers first (invariant iii), then the
	// remaining caller-saved temporaries x9..x15. x16/x17 are AAPCS64 intra-procedure
	// scratch registers; x17 is this backend's reserved global scratch GPR
	// (invariant iv) and so is excluded from both pools entirely.
	callerGPR := []Reg{
		GPR(0), GPR(1), GPR(2), GPR(3), GPR(4), GPR(5), GPR(6), GPR(7),
		GPR(9), GPR(10), GPR(11), GPR(12), GPR(13), GPR(14), GPR(15),
	}
	// Callee-saved GPRs, x19..x28 (x29/x30 are the frame pointer/link register and
	// are handled by the prologue/epilogue directly, never allocated).
	calleeGPR := []Reg{
		GPR(19), GPR(20), GPR(21), GPR(22), GPR(23),
		GPR(24), GPR(25), GPR(26), GPR(27), GPR(28),
	}
	// Caller-saved FPRs: v0..v7 (argument registers) then v16..v31.
	callerFPR := []Reg{
		FPR(0), FPR(1), FPR(2), FPR(3), FPR(4), FPR(5), FPR(6), FPR(7),
		FPR(16), FPR(17), FPR(18), FPR(19), FPR(20), FPR(21), FPR(22), FPR(23),
		FPR(24), FPR(25), FPR(26), FPR(27), FPR(28), FPR(29), FPR(30), FPR(31),
	}
	// Callee-saved FPRs: exclusively v8..v15 (invariant ii).
	calleeFPR := []Reg{
		FPR(8), FPR(9), FPR(10), FPR(11), FPR(12), FPR(13), FPR(14), FPR(15),
	}

	return &Target{
		name:           "aarch64-apple-darwin",
		callerSavedGPR: callerGPR,
		calleeSavedGPR: calleeGPR,
		callerSavedFPR: callerFPR,
		calleeSavedFPR: calleeFPR,
		intArgOrder:    intArgs,
		f64ArgOrder:    f64Args,
		intReturnReg:   GPR(0),
		f64ReturnReg:   FPR(0),
		stackAlign:     16,
		scratch:        RegScratch,
	}
}

func (t *Target) Name() string { return t.name }

func (t *Target) CallerSavedGPR() []Reg { return t.callerSavedGPR }
func (t *Target) CalleeSavedGPR() []Reg { return t.calleeSavedGPR }
func (t *Target) CallerSavedFPR() []Reg { return t.callerSavedFPR }
func (t *Target) CalleeSavedFPR() []Reg { return t.calleeSavedFPR }

func (t *Target) IntArg(i int) Reg { return t.intArgOrder[i] }
func (t *Target) F64Arg(i int) Reg { return t.f64ArgOrder[i] }

func (t *Target) IntReturnReg() Reg { return t.intReturnReg }
func (t *Target) F64ReturnReg() Reg { return t.f64ReturnReg }

func (t *Target) StackAlign() int64 { return t.stackAlign }

func (t *Target) Scratch() Reg { return t.scratch }

// IsCalleeSaved reports whether r (a physical register) is in the callee-saved set
// for its class.
func (t *Target) IsCalleeSaved(r Reg) bool {
	list := t.calleeSavedGPR
	if r.Class() == RegClassFPR {
		list = t.calleeSavedFPR
	}
	for _, c := range list {
		if c.ID() == r.ID() {
			return true
		}
	}
	return false
}
