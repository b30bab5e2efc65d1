package aarch64

// Cond is an AArch64 condition-code flag, matching the architecture's own encoding
// order (ARM DDI0596, "Condition codes").
type Cond byte

const (
	CondEQ Cond = iota // equal
	CondNE             // not equal
	CondHS             // unsigned higher or same (carry set)
	CondLO             // unsigned lower (carry clear)
	CondMI             // minus / negative
	CondPL             // plus / positive or zero
	CondVS             // overflow set
	CondVC             // overflow clear
	CondHI             // unsigned higher
	CondLS             // unsigned lower or same
	CondGE             // signed greater than or equal
	CondLT             // signed less than
	CondGT             // signed greater than
	CondLE             // signed less than or equal
	CondAL             // always
)

func (c Cond) String() string {
	switch c {
	case CondEQ:
		return "eq"
	case CondNE:
		return "ne"
	case CondHS:
		return "hs"
	case CondLO:
		return "lo"
	case CondMI:
		return "mi"
	case CondPL:
		return "pl"
	case CondVS:
		return "vs"
	case CondVC:
		return "vc"
	case CondHI:
		return "hi"
	case CondLS:
		return "ls"
	case CondGE:
		return "ge"
	case CondLT:
		return "lt"
	case CondGT:
		return "gt"
	case CondLE:
		return "le"
	default:
		return "al"
	}
}

// Invert returns the logically-negated condition, used when a fast path swaps the
// taken/fallthrough branch targets.
func (c Cond) Invert() Cond {
	switch c {
	case CondEQ:
		return CondNE
	case CondNE:
		return CondEQ
	case CondHS:
		return CondLO
	case CondLO:
		return CondHS
	case CondMI:
		return CondPL
	case CondPL:
		return CondMI
	case CondVS:
		return CondVC
	case CondVC:
		return CondVS
	case CondHI:
		return CondLS
	case CondLS:
		return CondHI
	case CondGE:
		return CondLT
	case CondLT:
		return CondGE
	case CondGT:
		return CondLE
	case CondLE:
		return CondGT
	default:
		return CondAL
	}
}

// icmpCondTable maps the signed/unsigned integer-compare opcodes of spec.md section
// 4.3's "Integer compares" row to their AArch64 condition code, following the table
// the spec asks for ("cc is the table-driven AArch64 condition code").
var icmpCondTable = map[cmpKind]Cond{
	cmpICmpEq: CondEQ,
	cmpICmpNe: CondNE,
	cmpSCmpLT: CondLT,
	cmpSCmpLE: CondLE,
	cmpSCmpGT: CondGT,
	cmpSCmpGE: CondGE,
	cmpUCmpLT: CondLO,
	cmpUCmpLE: CondLS,
	cmpUCmpGT: CondHI,
	cmpUCmpGE: CondHS,
}

// fcmpCondTable maps the FP-compare opcodes of spec.md section 4.3's "FP compares"
// row to their condition code: eq, ne, mi (<), ls (<=), gt, ge, vc (ordered), vs
// (unordered).
var fcmpCondTable = map[cmpKind]Cond{
	cmpFCmpEq:  CondEQ,
	cmpFCmpNe:  CondNE,
	cmpFCmpLt:  CondMI,
	cmpFCmpLe:  CondLS,
	cmpFCmpGt:  CondGT,
	cmpFCmpGe:  CondGE,
	cmpFCmpOrd: CondVC,
	cmpFCmpUno: CondVS,
}

// cmpKind identifies which compare opcode produced a Cmp-then-Cset sequence, used
// only to key the two tables above.
type cmpKind byte

const (
	cmpICmpEq cmpKind = iota
	cmpICmpNe
	cmpSCmpLT
	cmpSCmpLE
	cmpSCmpGT
	cmpSCmpGE
	cmpUCmpLT
	cmpUCmpLE
	cmpUCmpGT
	cmpUCmpGE
	cmpFCmpEq
	cmpFCmpNe
	cmpFCmpLt
	cmpFCmpLe
	cmpFCmpGt
	cmpFCmpGe
	cmpFCmpOrd
	cmpFCmpUno
)
