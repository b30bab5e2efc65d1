package aarch64

import "fmt"

// MOp is the opcode tag of a machine instruction (spec.md section 3.3).
type MOp int

const (
	MOpInvalid MOp = iota

	MovRR
	MovRI

	AddRRR
	SubRRR
	MulRRR
	SDivRRR
	UDivRRR
	AndRRR
	OrrRRR
	EorRRR
	MSubRRRR // dst = op3 - op1*op2

	AddRI
	SubRI
	LslRI
	LsrRI
	AsrRI

	CmpRR
	CmpRI
	TstRR
	Cset
	Cbz

	FMovRR
	FMovRI
	FMovGR // bit-cast GPR -> FPR
	FAddRRR
	FSubRRR
	FMulRRR
	FDivRRR
	FCmpRR
	FRintN

	SCvtF
	UCvtF
	FCvtZS
	FCvtZU

	LdrRegFpImm
	StrRegFpImm
	LdrRegBaseImm
	StrRegBaseImm
	LdrFprFpImm
	StrFprFpImm
	LdrFprBaseImm
	StrFprBaseImm
	StrRegSpImm
	StrFprSpImm
	AddFpImm

	Br
	BCond
	Bl
	Blr
	Ret

	SubSpImm
	AddSpImm

	AdrPage
	AddPageOff
)

// OperandKind tags the variant held by an Operand (spec.md section 3.3).
type OperandKind byte

const (
	OperandKindReg OperandKind = iota
	OperandKindImm
	OperandKindCond
	OperandKindLabel
)

// Operand is a single MInstr operand.
type Operand struct {
	kind  OperandKind
	reg   Reg
	imm   int64
	cond  Cond
	label string
}

func OpReg(r Reg) Operand          { return Operand{kind: OperandKindReg, reg: r} }
func OpImm(v int64) Operand        { return Operand{kind: OperandKindImm, imm: v} }
func OpCond(c Cond) Operand        { return Operand{kind: OperandKindCond, cond: c} }
func OpLabel(label string) Operand { return Operand{kind: OperandKindLabel, label: label} }

func (o Operand) Kind() OperandKind { return o.kind }
func (o Operand) Reg() Reg          { return o.reg }
func (o Operand) Imm() int64        { return o.imm }
func (o Operand) Cond() Cond        { return o.cond }
func (o Operand) Label() string     { return o.label }

func (o Operand) String() string {
	switch o.kind {
	case OperandKindReg:
		return o.reg.String()
	case OperandKindImm:
		return fmt.Sprintf("#%d", o.imm)
	case OperandKindCond:
		return o.cond.String()
	case OperandKindLabel:
		return o.label
	default:
		return "<invalid>"
	}
}

// OperandRole classifies how an instruction uses an operand slot, consumed by
// RegAllocLinear (spec.md section 4.7: "per-instruction operand roles derive from an
// opcode-keyed table").
type OperandRole byte

const (
	RoleNone OperandRole = iota
	RoleUse
	RoleDef
)

// operandRoles gives, for each MOp, the role of each register operand position in
// the order produced by the lowerer. Non-register operands (immediates, conditions,
// labels) are simply skipped by callers walking Operands alongside this table.
//
// All RRR/RI arithmetic forms here are lowered in plain 3-address shape: a freshly
// materialized destination vreg, followed by its use operand(s). This backend never
// emits the "shared dst/src slot" 2-operand in-place encoding spec.md alludes to as
// an alternative shape — the simpler, always-distinct-operand shape is semantically
// equivalent for register allocation purposes (coalescing to the same physical
// register remains possible after allocation; it just isn't forced at the MIR level).
var operandRoles = map[MOp][]OperandRole{
	MovRR:         {RoleDef, RoleUse},
	MovRI:         {RoleDef},
	AddRRR:        {RoleDef, RoleUse, RoleUse},
	SubRRR:        {RoleDef, RoleUse, RoleUse},
	MulRRR:        {RoleDef, RoleUse, RoleUse},
	SDivRRR:       {RoleDef, RoleUse, RoleUse},
	UDivRRR:       {RoleDef, RoleUse, RoleUse},
	AndRRR:        {RoleDef, RoleUse, RoleUse},
	OrrRRR:        {RoleDef, RoleUse, RoleUse},
	EorRRR:        {RoleDef, RoleUse, RoleUse},
	MSubRRRR:      {RoleDef, RoleUse, RoleUse, RoleUse},
	AddRI:         {RoleDef, RoleUse},
	SubRI:         {RoleDef, RoleUse},
	LslRI:         {RoleDef, RoleUse, RoleUse},
	LsrRI:         {RoleDef, RoleUse, RoleUse},
	AsrRI:         {RoleDef, RoleUse, RoleUse},
	CmpRR:         {RoleUse, RoleUse},
	CmpRI:         {RoleUse},
	TstRR:         {RoleUse, RoleUse},
	Cset:          {RoleDef},
	Cbz:           {RoleUse},
	FMovRR:        {RoleDef, RoleUse},
	FMovRI:        {RoleDef},
	FMovGR:        {RoleDef, RoleUse},
	FAddRRR:       {RoleDef, RoleUse, RoleUse},
	FSubRRR:       {RoleDef, RoleUse, RoleUse},
	FMulRRR:       {RoleDef, RoleUse, RoleUse},
	FDivRRR:       {RoleDef, RoleUse, RoleUse},
	FCmpRR:        {RoleUse, RoleUse},
	FRintN:        {RoleDef, RoleUse},
	SCvtF:         {RoleDef, RoleUse},
	UCvtF:         {RoleDef, RoleUse},
	FCvtZS:        {RoleDef, RoleUse},
	FCvtZU:        {RoleDef, RoleUse},
	LdrRegFpImm:   {RoleDef},
	StrRegFpImm:   {RoleUse},
	LdrRegBaseImm: {RoleDef, RoleUse},
	StrRegBaseImm: {RoleUse, RoleUse},
	LdrFprFpImm:   {RoleDef},
	StrFprFpImm:   {RoleUse},
	LdrFprBaseImm: {RoleDef, RoleUse},
	StrFprBaseImm: {RoleUse, RoleUse},
	StrRegSpImm:   {RoleUse},
	StrFprSpImm:   {RoleUse},
	AddFpImm:      {RoleDef},
	Br:            {},
	BCond:         {},
	Bl:            {},
	Blr:           {RoleUse},
	Ret:           {},
	SubSpImm:      {},
	AddSpImm:      {},
	AdrPage:       {RoleDef},
	AddPageOff:    {RoleDef, RoleUse},
}

// MInstr is a single machine instruction: an opcode tag and an ordered operand list
// (spec.md section 3.3). Operands are never structurally modified after emission
// except by peephole rewrites and the register allocator's materialization step.
type MInstr struct {
	Op       MOp
	Operands []Operand
}

func NewMInstr(op MOp, operands ...Operand) *MInstr {
	return &MInstr{Op: op, Operands: operands}
}

// RegOperandIndices returns, for each Operands[i] that is a register, its role
// (skipping non-register operands such as immediates or labels that share a slot
// with a register operand in some forms, e.g. CmpRI).
func (m *MInstr) RegOperandIndices() (idx []int, roles []OperandRole) {
	want := operandRoles[m.Op]
	for i, o := range m.Operands {
		if o.Kind() != OperandKindReg {
			continue
		}
		var role OperandRole
		if i < len(want) {
			role = want[i]
		}
		idx = append(idx, i)
		roles = append(roles, role)
	}
	return idx, roles
}

// IsCall reports whether this instruction is a call site requiring caller-saved
// register spilling in RegAllocLinear (spec.md section 4.7 "Call handling").
func (m *MInstr) IsCall() bool { return m.Op == Bl || m.Op == Blr }

// IsTerminatorLike reports whether m is a control-transfer or trap-adjacent
// instruction that Peephole's DCE phase must always retain (spec.md section 4.8,
// phase 4).
func (m *MInstr) IsTerminatorLike() bool {
	switch m.Op {
	case Br, BCond, Bl, Blr, Ret, Cbz:
		return true
	default:
		return false
	}
}

func (m *MInstr) String() string {
	s := mopNames[m.Op]
	for i, o := range m.Operands {
		if i == 0 {
			s += " " + o.String()
		} else {
			s += ", " + o.String()
		}
	}
	return s
}

var mopNames = map[MOp]string{
	MovRR: "mov", MovRI: "mov",
	AddRRR: "add", SubRRR: "sub", MulRRR: "mul", SDivRRR: "sdiv", UDivRRR: "udiv",
	AndRRR: "and", OrrRRR: "orr", EorRRR: "eor", MSubRRRR: "msub",
	AddRI: "add", SubRI: "sub", LslRI: "lsl", LsrRI: "lsr", AsrRI: "asr",
	CmpRR: "cmp", CmpRI: "cmp", TstRR: "tst", Cset: "cset", Cbz: "cbz",
	FMovRR: "fmov", FMovRI: "fmov", FMovGR: "fmov",
	FAddRRR: "fadd", FSubRRR: "fsub", FMulRRR: "fmul", FDivRRR: "fdiv",
	FCmpRR: "fcmp", FRintN: "frintn",
	SCvtF: "scvtf", UCvtF: "ucvtf", FCvtZS: "fcvtzs", FCvtZU: "fcvtzu",
	LdrRegFpImm: "ldr", StrRegFpImm: "str", LdrRegBaseImm: "ldr", StrRegBaseImm: "str",
	LdrFprFpImm: "ldr", StrFprFpImm: "str", LdrFprBaseImm: "ldr", StrFprBaseImm: "str",
	StrRegSpImm: "str", StrFprSpImm: "str", AddFpImm: "add",
	Br: "b", BCond: "b", Bl: "bl", Blr: "blr", Ret: "ret",
	SubSpImm: "sub", AddSpImm: "add",
	AdrPage: "adrp", AddPageOff: "add",
}

// MBasicBlock is an ordered sequence of MInstrs with a unique label (spec.md section
// 3.3).
type MBasicBlock struct {
	Label  string
	Instrs []*MInstr
}

func (b *MBasicBlock) Append(i *MInstr) { b.Instrs = append(b.Instrs, i) }

// MFunction is an ordered sequence of MBasicBlocks (spec.md section 3.3), plus the
// bookkeeping RegAllocLinear and AsmEmitter need once allocation finishes.
type MFunction struct {
	Name   string
	Blocks []*MBasicBlock

	Frame *FramePlan

	// SavedGPRs, SavedFPRs are the callee-saved physical registers actually written
	// in the final MIR, recorded by RegAllocLinear (spec.md section 4.7).
	SavedGPRs []Reg
	SavedFPRs []Reg
}

func (f *MFunction) BlockByLabel(label string) *MBasicBlock {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}
