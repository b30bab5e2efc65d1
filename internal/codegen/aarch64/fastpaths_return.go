package aarch64

import "github.com/viperlang/viper-aarch64/internal/il"

// lowerReturn lowers Ret (spec.md section 4.4). A void return has no operand; a
// value-returning function moves its operand into x0 or v0 per the target's
// return-register convention before emitting Ret. A void return from a function
// named "main" is special-cased to leave a process exit status of 0 in x0. Kept as
// its own file, echoing the original implementation's separate return fast-path
// translation unit.
func lowerReturn(ctx *LoweringContext, term *il.Instruction) LowerResult {
	if len(term.Args) > 0 {
		v := term.Arg(0)
		retType := il.TypeI64
		if ctx.Function().Sig.HasRet {
			retType = ctx.Function().Sig.RetType
		}
		src := materializeValue(ctx, v, retType)
		if RegClassFor(retType) == RegClassFPR {
			ctx.Emit(NewMInstr(FMovRR, OpReg(ctx.Target.F64ReturnReg()), OpReg(src)))
		} else {
			ctx.Emit(NewMInstr(MovRR, OpReg(ctx.Target.IntReturnReg()), OpReg(src)))
		}
	} else if ctx.Function().Name == "main" {
		ctx.Emit(NewMInstr(MovRI, OpReg(ctx.Target.IntReturnReg()), OpImm(0)))
	}
	ctx.Emit(NewMInstr(Ret))
	return Handled
}
