package aarch64

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/viperlang/viper-aarch64/internal/il"
)

// addTwo builds "func addTwo(a i64, b i64) i64 { return a + b }" directly as IL.
func addTwo() *il.Function {
	entry := &il.Block{
		Label:  "entry",
		Params: []il.Param{{ID: 0, Type: il.TypeI64}, {ID: 1, Type: il.TypeI64}},
		Instrs: []*il.Instruction{
			il.NewInstrResult(il.OpcodeAdd, 2, il.TypeI64, il.Temp(0), il.Temp(1)),
			il.NewInstr(il.OpcodeRet, il.Temp(2)),
		},
	}
	return &il.Function{
		Name: "addTwo",
		Sig:  il.Signature{Params: []il.Type{il.TypeI64, il.TypeI64}, HasRet: true, RetType: il.TypeI64},
		Blks: []*il.Block{entry},
	}
}

func TestCompileFunction_AddTwo(t *testing.T) {
	target := NewTargetAArch64Darwin()
	var sb strings.Builder
	err := CompileFunction(addTwo(), target, nil, &sb)
	require.NoError(t, err)

	out := sb.String()
	require.Contains(t, out, "_addTwo:")
	require.Contains(t, out, "add ")
	require.Contains(t, out, "ret")
}

// branchWithParam builds a function with a conditional branch where both
// successors carry a block parameter, exercising the CBr trampoline path and
// liveness-driven spilling end to end.
func branchWithParam() *il.Function {
	entry := &il.Block{
		Label: "entry",
		Params: []il.Param{
			{ID: 0, Type: il.TypeI64},
		},
		Instrs: []*il.Instruction{
			il.NewInstrResult(il.OpcodeICmpEq, 1, il.TypeI1, il.Temp(0), il.ConstInt(0)),
			{
				Op:     il.OpcodeCBr,
				Args:   []il.Value{il.Temp(1)},
				Labels: []string{"then", "else"},
				BrArgs: [][]il.Value{{il.Temp(0)}, {il.Temp(0)}},
			},
		},
	}
	then := &il.Block{
		Label:  "then",
		Params: []il.Param{{ID: 2, Type: il.TypeI64}},
		Instrs: []*il.Instruction{
			il.NewInstr(il.OpcodeRet, il.Temp(2)),
		},
	}
	els := &il.Block{
		Label:  "else",
		Params: []il.Param{{ID: 3, Type: il.TypeI64}},
		Instrs: []*il.Instruction{
			il.NewInstr(il.OpcodeRet, il.Temp(3)),
		},
	}
	return &il.Function{
		Name: "branchWithParam",
		Sig:  il.Signature{Params: []il.Type{il.TypeI64}, HasRet: true, RetType: il.TypeI64},
		Blks: []*il.Block{entry, then, els},
	}
}

func TestCompileFunction_BranchWithBlockParams(t *testing.T) {
	target := NewTargetAArch64Darwin()
	var sb strings.Builder
	err := CompileFunction(branchWithParam(), target, nil, &sb)
	require.NoError(t, err)

	out := sb.String()
	require.Contains(t, out, "cbz")
	require.Contains(t, out, "Ledge0")
}

func TestCompileModule_StopsAtFirstError(t *testing.T) {
	// A terminator (Ret) appearing before the end of a block is malformed IL
	// OpcodeDispatch cannot route around.
	bad := &il.Function{Name: "bad", Blks: []*il.Block{{Label: "entry", Instrs: []*il.Instruction{
		il.NewInstr(il.OpcodeRet),
		il.NewInstrResult(il.OpcodeAdd, 0, il.TypeI64, il.ConstInt(1), il.ConstInt(2)),
	}}}}
	target := NewTargetAArch64Darwin()
	var sb strings.Builder
	err := CompileModule([]*il.Function{bad}, target, nil, &sb)
	require.Error(t, err)
}
