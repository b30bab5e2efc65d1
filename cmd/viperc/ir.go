package main

import (
	"encoding/json"
	"fmt"

	"github.com/viperlang/viper-aarch64/internal/il"
)

// wireValue is the JSON shape of an il.Value. Exactly one of its fields is set,
// selected by Kind.
type wireValue struct {
	Kind string `json:"kind"`

	Int    int64   `json:"int,omitempty"`
	Float  float64 `json:"float,omitempty"`
	F32    bool    `json:"f32,omitempty"`
	Symbol string  `json:"symbol,omitempty"`
	Temp   uint32  `json:"temp,omitempty"`
}

func (w wireValue) toValue() (il.Value, error) {
	switch w.Kind {
	case "const_int":
		return il.ConstInt(w.Int), nil
	case "const_float":
		if w.F32 {
			return il.ConstFloat32(float32(w.Float)), nil
		}
		return il.ConstFloat64(w.Float), nil
	case "const_null":
		return il.ConstNull(), nil
	case "global_addr":
		return il.GlobalAddr(w.Symbol), nil
	case "temp":
		return il.Temp(il.TempID(w.Temp)), nil
	default:
		return il.Value{}, fmt.Errorf("unknown value kind %q", w.Kind)
	}
}

type wireParam struct {
	ID   uint32 `json:"id"`
	Type string `json:"type"`
}

func (w wireParam) toParam() (il.Param, error) {
	t, ok := il.ParseType(w.Type)
	if !ok {
		return il.Param{}, fmt.Errorf("unknown type %q", w.Type)
	}
	return il.Param{ID: il.TempID(w.ID), Type: t}, nil
}

type wireInstruction struct {
	Op        string      `json:"op"`
	HasResult bool        `json:"has_result,omitempty"`
	Result    uint32      `json:"result,omitempty"`
	Type      string      `json:"type,omitempty"`
	Args      []wireValue `json:"args,omitempty"`
	Callee    string      `json:"callee,omitempty"`
	Labels    []string    `json:"labels,omitempty"`
	BrArgs    [][]wireValue `json:"br_args,omitempty"`
}

func (w wireInstruction) toInstruction() (*il.Instruction, error) {
	op, ok := il.ParseOpcode(w.Op)
	if !ok {
		return nil, fmt.Errorf("unknown opcode %q", w.Op)
	}
	var typ il.Type
	if w.Type != "" {
		t, ok := il.ParseType(w.Type)
		if !ok {
			return nil, fmt.Errorf("instruction %s: unknown type %q", w.Op, w.Type)
		}
		typ = t
	}
	args := make([]il.Value, len(w.Args))
	for i, a := range w.Args {
		v, err := a.toValue()
		if err != nil {
			return nil, fmt.Errorf("instruction %s: arg %d: %w", w.Op, i, err)
		}
		args[i] = v
	}
	var brArgs [][]il.Value
	if len(w.BrArgs) > 0 {
		brArgs = make([][]il.Value, len(w.BrArgs))
		for i, list := range w.BrArgs {
			vs := make([]il.Value, len(list))
			for j, a := range list {
				v, err := a.toValue()
				if err != nil {
					return nil, fmt.Errorf("instruction %s: br_args[%d][%d]: %w", w.Op, i, j, err)
				}
				vs[j] = v
			}
			brArgs[i] = vs
		}
	}
	return &il.Instruction{
		Op:        op,
		HasResult: w.HasResult,
		Result:    il.TempID(w.Result),
		Type:      typ,
		Args:      args,
		Callee:    w.Callee,
		Labels:    w.Labels,
		BrArgs:    brArgs,
	}, nil
}

type wireBlock struct {
	Label  string            `json:"label"`
	Params []wireParam       `json:"params,omitempty"`
	Instrs []wireInstruction `json:"instrs"`
}

func (w wireBlock) toBlock() (*il.Block, error) {
	params := make([]il.Param, len(w.Params))
	for i, p := range w.Params {
		pp, err := p.toParam()
		if err != nil {
			return nil, fmt.Errorf("block %s: param %d: %w", w.Label, i, err)
		}
		params[i] = pp
	}
	instrs := make([]*il.Instruction, len(w.Instrs))
	for i, in := range w.Instrs {
		ii, err := in.toInstruction()
		if err != nil {
			return nil, fmt.Errorf("block %s: instr %d: %w", w.Label, i, err)
		}
		instrs[i] = ii
	}
	return &il.Block{Label: w.Label, Params: params, Instrs: instrs}, nil
}

type wireFunction struct {
	Name   string      `json:"name"`
	Params []string    `json:"params,omitempty"`
	Ret    string      `json:"ret,omitempty"`
	Blocks []wireBlock `json:"blocks"`
}

// decodeFunction parses a JSON-encoded IL function (see decodeFunction's wire
// structs above for the expected shape) into an *il.Function ready for
// aarch64.CompileFunction. internal/il carries no parser of its own (it is
// purely an in-memory shape an upstream frontend populates), so this decoding
// lives here, at the one place in this repository that has to read IL from
// a file rather than construct it in Go.
func decodeFunction(data []byte) (*il.Function, error) {
	var wf wireFunction
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("decoding IL function: %w", err)
	}

	sig := il.Signature{Params: make([]il.Type, len(wf.Params))}
	for i, p := range wf.Params {
		t, ok := il.ParseType(p)
		if !ok {
			return nil, fmt.Errorf("function %s: unknown param type %q", wf.Name, p)
		}
		sig.Params[i] = t
	}
	if wf.Ret != "" {
		t, ok := il.ParseType(wf.Ret)
		if !ok {
			return nil, fmt.Errorf("function %s: unknown return type %q", wf.Name, wf.Ret)
		}
		sig.HasRet = true
		sig.RetType = t
	}

	blocks := make([]*il.Block, len(wf.Blocks))
	for i, wb := range wf.Blocks {
		b, err := wb.toBlock()
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", wf.Name, err)
		}
		blocks[i] = b
	}

	return &il.Function{Name: wf.Name, Sig: sig, Blks: blocks}, nil
}

// decodeModule parses either a single JSON-encoded function object or a JSON array
// of function objects, returning the functions in declaration order.
func decodeModule(data []byte) ([]*il.Function, error) {
	trimmed := bytesTrimLeadingSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding IL module: %w", err)
		}
		fns := make([]*il.Function, len(raw))
		for i, r := range raw {
			fn, err := decodeFunction(r)
			if err != nil {
				return nil, fmt.Errorf("function %d: %w", i, err)
			}
			fns[i] = fn
		}
		return fns, nil
	}
	fn, err := decodeFunction(data)
	if err != nil {
		return nil, err
	}
	return []*il.Function{fn}, nil
}

func bytesTrimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}
