package aarch64

import (
	"fmt"
	"io"
)

// EmitFunction is AsmEmitter: it prints mf as Darwin-flavoured AArch64 textual
// assembly (spec.md section 4.9). mf.Frame must already be finalized (RegAllocLinear
// has run and Frame.Finalize was called).
func EmitFunction(w io.Writer, mf *MFunction) error {
	if mf.Frame == nil {
		return fmt.Errorf("EmitFunction: %s has no finalized frame", mf.Name)
	}

	sym := "_" + mf.Name
	fmt.Fprintf(w, "\t.globl %s\n", sym)
	fmt.Fprintf(w, "\t.p2align 2\n")
	fmt.Fprintf(w, "%s:\n", sym)

	emitPrologue(w, mf)

	for i, b := range mf.Blocks {
		if i > 0 {
			fmt.Fprintf(w, "%s:\n", localLabel(mf.Name, b.Label))
		}
		for _, ins := range b.Instrs {
			if ins.Op == Ret {
				emitEpilogue(w, mf)
				continue
			}
			fmt.Fprintf(w, "\t%s\n", formatInstr(mf, ins))
		}
	}
	return nil
}

func localLabel(fn, label string) string {
	return fmt.Sprintf("L%s_%s", fn, label)
}

// emitPrologue writes the standard frame-pointer-chained prologue: reserve the
// frame, save x29/x30, establish the new frame pointer, then save whatever
// callee-saved registers RegAllocLinear actually used (spec.md section 4.1).
func emitPrologue(w io.Writer, mf *MFunction) {
	size := mf.Frame.Size()
	fmt.Fprintf(w, "\tsub sp, sp, #%d\n", size)
	fmt.Fprintf(w, "\tstp x29, x30, [sp, #%d]\n", size-16)
	fmt.Fprintf(w, "\tadd x29, sp, #%d\n", size-16)

	off := size - 16
	for _, r := range mf.Frame.CalleeSavedGPR() {
		off -= 8
		fmt.Fprintf(w, "\tstr %s, [sp, #%d]\n", r.String(), off)
	}
	for _, r := range mf.Frame.CalleeSavedFPR() {
		off -= 8
		fmt.Fprintf(w, "\tstr %s, [sp, #%d]\n", r.String(), off)
	}
}

// emitEpilogue mirrors emitPrologue in reverse, then prints ret.
func emitEpilogue(w io.Writer, mf *MFunction) {
	size := mf.Frame.Size()
	off := size - 16
	for _, r := range mf.Frame.CalleeSavedGPR() {
		off -= 8
		fmt.Fprintf(w, "\tldr %s, [sp, #%d]\n", r.String(), off)
	}
	for _, r := range mf.Frame.CalleeSavedFPR() {
		off -= 8
		fmt.Fprintf(w, "\tldr %s, [sp, #%d]\n", r.String(), off)
	}

	fmt.Fprintf(w, "\tldp x29, x30, [sp, #%d]\n", size-16)
	fmt.Fprintf(w, "\tadd sp, sp, #%d\n", size)
	fmt.Fprintf(w, "\tret\n")
}

// formatInstr renders one MInstr as a single line of AArch64 assembly text.
func formatInstr(mf *MFunction, ins *MInstr) string {
	switch ins.Op {
	case MovRI:
		return formatMovImm(ins.Operands[0].Reg(), ins.Operands[1].Imm(), false)
	case FMovRI:
		return fmt.Sprintf("fmov %s, #0x%x", ins.Operands[0].Reg(), uint64(ins.Operands[1].Imm()))
	case MovRR:
		return fmt.Sprintf("mov %s, %s", ins.Operands[0].Reg(), ins.Operands[1].Reg())
	case FMovRR, FMovGR:
		return fmt.Sprintf("fmov %s, %s", ins.Operands[0].Reg(), ins.Operands[1].Reg())

	case AddRRR, SubRRR, MulRRR, SDivRRR, UDivRRR, AndRRR, OrrRRR, EorRRR:
		return fmt.Sprintf("%s %s, %s, %s", mopNames[ins.Op], ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Reg())
	case MSubRRRR:
		return fmt.Sprintf("msub %s, %s, %s, %s", ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Reg(), ins.Operands[3].Reg())
	case AddRI, SubRI:
		return fmt.Sprintf("%s %s, %s, #%d", mopNames[ins.Op], ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Imm())
	case LslRI, LsrRI, AsrRI:
		return formatShift(ins)

	case CmpRR, TstRR:
		return fmt.Sprintf("%s %s, %s", mopNames[ins.Op], ins.Operands[0].Reg(), ins.Operands[1].Reg())
	case CmpRI:
		return fmt.Sprintf("cmp %s, #%d", ins.Operands[0].Reg(), ins.Operands[1].Imm())
	case Cset:
		return fmt.Sprintf("cset %s, %s", ins.Operands[0].Reg(), ins.Operands[1].Cond())
	case Cbz:
		return fmt.Sprintf("cbz %s, %s", ins.Operands[0].Reg(), resolveLabel(mf, ins.Operands[1].Label()))
	case BCond:
		return fmt.Sprintf("b.%s %s", ins.Operands[0].Cond(), resolveLabel(mf, ins.Operands[1].Label()))

	case FAddRRR, FSubRRR, FMulRRR, FDivRRR:
		return fmt.Sprintf("%s %s, %s, %s", mopNames[ins.Op], ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Reg())
	case FCmpRR:
		return fmt.Sprintf("fcmp %s, %s", ins.Operands[0].Reg(), ins.Operands[1].Reg())
	case FRintN, SCvtF, UCvtF, FCvtZS, FCvtZU:
		return fmt.Sprintf("%s %s, %s", mopNames[ins.Op], ins.Operands[0].Reg(), ins.Operands[1].Reg())

	case LdrRegFpImm, LdrFprFpImm:
		return fmt.Sprintf("ldr %s, [x29, #%d]", ins.Operands[0].Reg(), ins.Operands[1].Imm())
	case StrRegFpImm, StrFprFpImm:
		return fmt.Sprintf("str %s, [x29, #%d]", ins.Operands[0].Reg(), ins.Operands[1].Imm())
	case LdrRegBaseImm, LdrFprBaseImm:
		return fmt.Sprintf("ldr %s, [%s, #%d]", ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Imm())
	case StrRegBaseImm, StrFprBaseImm:
		return fmt.Sprintf("str %s, [%s, #%d]", ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Imm())
	case StrRegSpImm, StrFprSpImm:
		return fmt.Sprintf("str %s, [sp, #%d]", ins.Operands[0].Reg(), ins.Operands[1].Imm())
	case AddFpImm:
		return fmt.Sprintf("add %s, x29, #%d", ins.Operands[0].Reg(), ins.Operands[1].Imm())

	case AdrPage:
		return fmt.Sprintf("adrp %s, %s@PAGE", ins.Operands[0].Reg(), ins.Operands[1].Label())
	case AddPageOff:
		return fmt.Sprintf("add %s, %s, %s@PAGEOFF", ins.Operands[0].Reg(), ins.Operands[1].Reg(), ins.Operands[2].Label())

	case Br:
		return fmt.Sprintf("b %s", resolveLabel(mf, ins.Operands[0].Label()))
	case Bl:
		return fmt.Sprintf("bl %s", ins.Operands[0].Label())
	case Blr:
		return fmt.Sprintf("blr %s", ins.Operands[0].Reg())
	case SubSpImm:
		return fmt.Sprintf("sub sp, sp, #%d", ins.Operands[0].Imm())
	case AddSpImm:
		return fmt.Sprintf("add sp, sp, #%d", ins.Operands[0].Imm())

	default:
		return fmt.Sprintf("; unrepresentable instruction %s", ins)
	}
}

func formatShift(ins *MInstr) string {
	name := mopNames[ins.Op]
	amt := ins.Operands[2]
	if amt.Kind() == OperandKindImm {
		return fmt.Sprintf("%s %s, %s, #%d", name, ins.Operands[0].Reg(), ins.Operands[1].Reg(), amt.Imm())
	}
	return fmt.Sprintf("%sv %s, %s, %s", name, ins.Operands[0].Reg(), ins.Operands[1].Reg(), amt.Reg())
}

func resolveLabel(mf *MFunction, label string) string {
	if mf.BlockByLabel(label) != nil {
		return localLabel(mf.Name, label)
	}
	return label
}

// formatMovImm expands a 64-bit (or 32-bit, when is32 is set) integer immediate
// into a MOVZ followed by up to three MOVK instructions, one per non-zero 16-bit
// chunk, matching how a real assembler's movz/movk pseudo-expansion works
// (spec.md section 4.9, "wide-immediate handling").
func formatMovImm(dst Reg, imm int64, is32 bool) string {
	u := uint64(imm)
	chunks := 4
	if is32 {
		chunks = 2
	}

	first := true
	out := ""
	for i := 0; i < chunks; i++ {
		shift := uint(i * 16)
		chunk := (u >> shift) & 0xffff
		if chunk == 0 {
			continue
		}
		op := "movk"
		if first {
			op = "movz"
			first = false
		}
		if out != "" {
			out += "\n\t"
		}
		out += fmt.Sprintf("%s %s, #0x%x, lsl #%d", op, dst, chunk, shift)
	}
	if out == "" {
		out = fmt.Sprintf("movz %s, #0", dst)
	}
	return out
}
