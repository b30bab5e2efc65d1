package il

// Opcode enumerates every IL instruction the backend must recognize, including the
// structured-error opcodes it explicitly declines to lower (see OpcodeDispatch).
type Opcode uint32

const (
	OpcodeInvalid Opcode = iota

	// Integer arithmetic, signed/unsigned-overflow-checked variants lower identically
	// to their non-checking siblings (no hardware overflow check is emitted).
	OpcodeAdd
	OpcodeAddChkS
	OpcodeAddChkU
	OpcodeSub
	OpcodeSubChkS
	OpcodeSubChkU
	OpcodeMul
	OpcodeMulChkS
	OpcodeMulChkU
	OpcodeAnd
	OpcodeOr
	OpcodeXor

	OpcodeShl
	OpcodeLShr
	OpcodeAShr

	OpcodeSDiv
	OpcodeSDivChk0
	OpcodeUDiv
	OpcodeUDivChk0
	OpcodeSRem
	OpcodeSRemChk0
	OpcodeURem
	OpcodeURemChk0

	OpcodeICmpEq
	OpcodeICmpNe
	OpcodeSCmpLT
	OpcodeSCmpLE
	OpcodeSCmpGT
	OpcodeSCmpGE
	OpcodeUCmpLT
	OpcodeUCmpLE
	OpcodeUCmpGT
	OpcodeUCmpGE

	OpcodeFAdd
	OpcodeFSub
	OpcodeFMul
	OpcodeFDiv

	OpcodeFCmpEq
	OpcodeFCmpNe
	OpcodeFCmpLt
	OpcodeFCmpLe
	OpcodeFCmpGt
	OpcodeFCmpGe
	OpcodeFCmpOrd
	OpcodeFCmpUno

	OpcodeCastSiToFp
	OpcodeCastUiToFp
	OpcodeCastFpToSiRteChk
	OpcodeCastFpToUiRteChk
	OpcodeCastSiNarrowChk
	OpcodeCastUiNarrowChk

	OpcodeZext1
	OpcodeTrunc1

	OpcodeConstStr
	OpcodeAddrOf
	OpcodeGAddr
	OpcodeConstNull

	OpcodeAlloca
	OpcodeGEP
	OpcodeLoad
	OpcodeStore
	OpcodeIdxChk

	OpcodeCall
	OpcodeCallIndirect

	// Terminators.
	OpcodeRet
	OpcodeBr
	OpcodeCBr
	OpcodeTrap
	OpcodeTrapFromErr

	// Structured-error opcodes: recognized but not lowered (spec.md section 4.3's
	// last row / section 7). OpcodeDispatch reports these as Unhandled.
	OpcodeTrapKind
	OpcodeEhPush
	OpcodeEhPop
	OpcodeResumeSame
	OpcodeResumeNext
	OpcodeResumeLabel
	OpcodeErrGetCode
	OpcodeErrGetPayload
)

var opcodeNames = map[Opcode]string{
	OpcodeInvalid:          "invalid",
	OpcodeAdd:              "add",
	OpcodeAddChkS:          "add.chk.s",
	OpcodeAddChkU:          "add.chk.u",
	OpcodeSub:              "sub",
	OpcodeSubChkS:          "sub.chk.s",
	OpcodeSubChkU:          "sub.chk.u",
	OpcodeMul:              "mul",
	OpcodeMulChkS:          "mul.chk.s",
	OpcodeMulChkU:          "mul.chk.u",
	OpcodeAnd:              "and",
	OpcodeOr:               "or",
	OpcodeXor:              "xor",
	OpcodeShl:              "shl",
	OpcodeLShr:             "lshr",
	OpcodeAShr:             "ashr",
	OpcodeSDiv:             "sdiv",
	OpcodeSDivChk0:         "sdiv.chk0",
	OpcodeUDiv:             "udiv",
	OpcodeUDivChk0:         "udiv.chk0",
	OpcodeSRem:             "srem",
	OpcodeSRemChk0:         "srem.chk0",
	OpcodeURem:             "urem",
	OpcodeURemChk0:         "urem.chk0",
	OpcodeICmpEq:           "icmp.eq",
	OpcodeICmpNe:           "icmp.ne",
	OpcodeSCmpLT:           "scmp.lt",
	OpcodeSCmpLE:           "scmp.le",
	OpcodeSCmpGT:           "scmp.gt",
	OpcodeSCmpGE:           "scmp.ge",
	OpcodeUCmpLT:           "ucmp.lt",
	OpcodeUCmpLE:           "ucmp.le",
	OpcodeUCmpGT:           "ucmp.gt",
	OpcodeUCmpGE:           "ucmp.ge",
	OpcodeFAdd:             "fadd",
	OpcodeFSub:             "fsub",
	OpcodeFMul:             "fmul",
	OpcodeFDiv:             "fdiv",
	OpcodeFCmpEq:           "fcmp.eq",
	OpcodeFCmpNe:           "fcmp.ne",
	OpcodeFCmpLt:           "fcmp.lt",
	OpcodeFCmpLe:           "fcmp.le",
	OpcodeFCmpGt:           "fcmp.gt",
	OpcodeFCmpGe:           "fcmp.ge",
	OpcodeFCmpOrd:          "fcmp.ord",
	OpcodeFCmpUno:          "fcmp.uno",
	OpcodeCastSiToFp:       "cast.si_to_fp",
	OpcodeCastUiToFp:       "cast.ui_to_fp",
	OpcodeCastFpToSiRteChk: "cast.fp_to_si.rte_chk",
	OpcodeCastFpToUiRteChk: "cast.fp_to_ui.rte_chk",
	OpcodeCastSiNarrowChk:  "cast.si_narrow.chk",
	OpcodeCastUiNarrowChk:  "cast.ui_narrow.chk",
	OpcodeZext1:            "zext1",
	OpcodeTrunc1:           "trunc1",
	OpcodeConstStr:         "const.str",
	OpcodeAddrOf:           "addr.of",
	OpcodeGAddr:            "gaddr",
	OpcodeConstNull:        "const.null",
	OpcodeAlloca:           "alloca",
	OpcodeGEP:              "gep",
	OpcodeLoad:             "load",
	OpcodeStore:            "store",
	OpcodeIdxChk:           "idx.chk",
	OpcodeCall:             "call",
	OpcodeCallIndirect:     "call.indirect",
	OpcodeRet:              "ret",
	OpcodeBr:               "br",
	OpcodeCBr:              "cbr",
	OpcodeTrap:             "trap",
	OpcodeTrapFromErr:      "trap.from_err",
	OpcodeTrapKind:         "trap.kind",
	OpcodeEhPush:           "eh.push",
	OpcodeEhPop:            "eh.pop",
	OpcodeResumeSame:       "resume.same",
	OpcodeResumeNext:       "resume.next",
	OpcodeResumeLabel:      "resume.label",
	OpcodeErrGetCode:       "err.get_code",
	OpcodeErrGetPayload:    "err.get_payload",
}

func (o Opcode) String() string {
	if s, ok := opcodeNames[o]; ok {
		return s
	}
	return "unknown"
}

var opcodeByName map[string]Opcode

func init() {
	opcodeByName = make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		opcodeByName[name] = op
	}
}

// ParseOpcode looks up an Opcode by its textual name (the same spelling String()
// returns), for decoding IL serialized as text/JSON. Reports false for an unknown name.
func ParseOpcode(name string) (Opcode, bool) {
	op, ok := opcodeByName[name]
	return op, ok
}

// IsTerminator reports whether o ends a block.
func (o Opcode) IsTerminator() bool {
	switch o {
	case OpcodeRet, OpcodeBr, OpcodeCBr, OpcodeTrap, OpcodeTrapFromErr:
		return true
	default:
		return false
	}
}

// IsStructuredError reports whether o belongs to the structured-error family this
// backend does not support lowering (spec.md section 4.3 / section 7).
func (o Opcode) IsStructuredError() bool {
	switch o {
	case OpcodeTrapKind, OpcodeEhPush, OpcodeEhPop, OpcodeResumeSame, OpcodeResumeNext,
		OpcodeResumeLabel, OpcodeErrGetCode, OpcodeErrGetPayload:
		return true
	default:
		return false
	}
}
