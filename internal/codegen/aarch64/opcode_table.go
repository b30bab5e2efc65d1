package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// aluRRR maps an IL binary-arithmetic opcode to its AArch64 register-register-
// register form (spec.md section 4.3's opcode-mapping table, supplementing the
// original C++ backend's OpcodeMappings.hpp, which this table is grounded on
// directly: a flat opcode -> machine-op association rather than a switch).
var aluRRR = map[il.Opcode]MOp{
	il.OpcodeAdd:     AddRRR,
	il.OpcodeAddChkS: AddRRR,
	il.OpcodeAddChkU: AddRRR,
	il.OpcodeSub:     SubRRR,
	il.OpcodeSubChkS: SubRRR,
	il.OpcodeSubChkU: SubRRR,
	il.OpcodeMul:     MulRRR,
	il.OpcodeMulChkS: MulRRR,
	il.OpcodeMulChkU: MulRRR,
	il.OpcodeAnd:     AndRRR,
	il.OpcodeOr:      OrrRRR,
	il.OpcodeXor:     EorRRR,
}

// aluRI is the immediate-operand counterpart of aluRRR, used by the arithmetic fast
// path when one operand is a compile-time constant that fits the AArch64 12-bit
// (optionally shifted) immediate encoding (spec.md section 4.6).
var aluRI = map[il.Opcode]MOp{
	il.OpcodeAdd:     AddRI,
	il.OpcodeAddChkS: AddRI,
	il.OpcodeAddChkU: AddRI,
	il.OpcodeSub:     SubRI,
	il.OpcodeSubChkS: SubRI,
	il.OpcodeSubChkU: SubRI,
}

// aluCommutative reports whether the opcode's fast path may swap operands to put
// the constant on the right-hand side. Sub is not commutative; And/Or/Xor/Add are.
var aluCommutative = map[il.Opcode]bool{
	il.OpcodeAdd: true, il.OpcodeAddChkS: true, il.OpcodeAddChkU: true,
	il.OpcodeAnd: true, il.OpcodeOr: true, il.OpcodeXor: true, il.OpcodeMul: true,
	il.OpcodeMulChkS: true, il.OpcodeMulChkU: true,
}

// shiftRI maps IL shift opcodes to their shift machine op. For a variable shift
// amount (non-constant Args[1]) the lowerer materializes the amount into a register
// and emits the same op with that register in place of the immediate; the emitter
// prints that form as LSLV/LSRV/ASRV.
var shiftRI = map[il.Opcode]MOp{
	il.OpcodeShl:  LslRI,
	il.OpcodeLShr: LsrRI,
	il.OpcodeAShr: AsrRI,
}

// divRRR maps the four division opcode families to their machine form. Remainder
// opcodes (SRem/URem) are synthesized as div followed by MSubRRRR (dst = dividend -
// quotient*divisor), mirroring AArch64's lack of a dedicated remainder instruction.
var divRRR = map[il.Opcode]MOp{
	il.OpcodeSDiv:     SDivRRR,
	il.OpcodeSDivChk0: SDivRRR,
	il.OpcodeUDiv:     UDivRRR,
	il.OpcodeUDivChk0: UDivRRR,
	il.OpcodeSRem:     SDivRRR,
	il.OpcodeSRemChk0: SDivRRR,
	il.OpcodeURem:     UDivRRR,
	il.OpcodeURemChk0: UDivRRR,
}

// isRemOpcode reports whether op needs the post-division MSubRRRR step.
func isRemOpcode(op il.Opcode) bool {
	switch op {
	case il.OpcodeSRem, il.OpcodeSRemChk0, il.OpcodeURem, il.OpcodeURemChk0:
		return true
	default:
		return false
	}
}

// isDivZeroCheckedOpcode reports whether op is one of the four "Chk0" division or
// remainder opcodes that require a zero-divisor trap sequence before dividing.
func isDivZeroCheckedOpcode(op il.Opcode) bool {
	switch op {
	case il.OpcodeSDivChk0, il.OpcodeUDivChk0, il.OpcodeSRemChk0, il.OpcodeURemChk0:
		return true
	default:
		return false
	}
}

// fAluRRR maps IL float arithmetic opcodes to their machine form.
var fAluRRR = map[il.Opcode]MOp{
	il.OpcodeFAdd: FAddRRR,
	il.OpcodeFSub: FSubRRR,
	il.OpcodeFMul: FMulRRR,
	il.OpcodeFDiv: FDivRRR,
}

// icmpKind maps an IL integer-compare opcode to the cmpKind used to key
// icmpCondTable.
var icmpKind = map[il.Opcode]cmpKind{
	il.OpcodeICmpEq: cmpICmpEq,
	il.OpcodeICmpNe: cmpICmpNe,
	il.OpcodeSCmpLT: cmpSCmpLT,
	il.OpcodeSCmpLE: cmpSCmpLE,
	il.OpcodeSCmpGT: cmpSCmpGT,
	il.OpcodeSCmpGE: cmpSCmpGE,
	il.OpcodeUCmpLT: cmpUCmpLT,
	il.OpcodeUCmpLE: cmpUCmpLE,
	il.OpcodeUCmpGT: cmpUCmpGT,
	il.OpcodeUCmpGE: cmpUCmpGE,
}

// fcmpKind maps an IL FP-compare opcode to the cmpKind used to key fcmpCondTable.
var fcmpKind = map[il.Opcode]cmpKind{
	il.OpcodeFCmpEq:  cmpFCmpEq,
	il.OpcodeFCmpNe:  cmpFCmpNe,
	il.OpcodeFCmpLt:  cmpFCmpLt,
	il.OpcodeFCmpLe:  cmpFCmpLe,
	il.OpcodeFCmpGt:  cmpFCmpGt,
	il.OpcodeFCmpGe:  cmpFCmpGe,
	il.OpcodeFCmpOrd: cmpFCmpOrd,
	il.OpcodeFCmpUno: cmpFCmpUno,
}

// condFor resolves the AArch64 condition code for any compare opcode (integer or
// float), returning ok=false for an opcode that isn't a compare.
func condFor(op il.Opcode) (Cond, bool) {
	if k, ok := icmpKind[op]; ok {
		return icmpCondTable[k], true
	}
	if k, ok := fcmpKind[op]; ok {
		return fcmpCondTable[k], true
	}
	return CondAL, false
}

// isImm12 reports whether v fits the AArch64 12-bit (optionally LSL #12) immediate
// encoding used by ADD/SUB/CMP-immediate forms (spec.md section 4.6's arithmetic
// fast path).
func isImm12(v int64) bool {
	if v < 0 {
		return false
	}
	return v <= 0xfff || (v&0xfff == 0 && v>>12 <= 0xfff)
}
