package il

// Instruction is a single IL instruction. Fields are interpreted according to Opcode,
// mirroring the "flattened struct, meaning depends on opcode" shape the rest of this
// pipeline (MIR) also follows.
type Instruction struct {
	Op Opcode

	// Result is the temp id this instruction defines, if any. Valid unless the
	// opcode is void-returning (Store, terminators, ...).
	HasResult bool
	Result    TempID
	Type      Type

	// Args are the ordered operands to this instruction.
	Args []Value

	// Callee is set for Call/CallIndirect: the callee symbol for Call, and the
	// function-pointer operand is instead carried as Args[0] for CallIndirect.
	Callee string

	// IdxChk bounds: lo, hi are carried in Args[1], Args[2] (Args[0] is idx).

	// Successors and per-successor branch-argument lists, used by CBr/Br terminators.
	// Labels[0] is the unconditional target for Br, or the true-target for CBr;
	// Labels[1] is the false-target for CBr.
	Labels     []string
	BrArgs     [][]Value
}

// NewInstr builds a non-terminator or terminator instruction with no result.
func NewInstr(op Opcode, args ...Value) *Instruction {
	return &Instruction{Op: op, Args: args}
}

// NewInstrResult builds an instruction producing a result of the given type.
func NewInstrResult(op Opcode, result TempID, typ Type, args ...Value) *Instruction {
	return &Instruction{Op: op, HasResult: true, Result: result, Type: typ, Args: args}
}

// Arg returns the i-th operand, or the zero Value if out of range (malformed IL,
// spec.md section 7 "Malformed IL" — callers must treat the zero Value defensively).
func (i *Instruction) Arg(n int) Value {
	if n < 0 || n >= len(i.Args) {
		return Value{}
	}
	return i.Args[n]
}
