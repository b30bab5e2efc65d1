package il

import "fmt"

// ValueKind tags the variant held by a Value.
type ValueKind byte

const (
	ValueKindInvalid ValueKind = iota
	ValueKindConstInt
	ValueKindConstFloat
	ValueKindConstNull
	ValueKindGlobalAddr
	ValueKindTemp
)

// TempID identifies an IL temporary: either a block parameter or an instruction result.
type TempID uint32

// Value is an IL operand: a tagged union over the five operand shapes the backend
// must materialize (spec.md section 6, "Input").
type Value struct {
	kind    ValueKind
	i64     int64
	f64     float64
	isF32   bool
	sym     string
	temp    TempID
}

func ConstInt(v int64) Value { return Value{kind: ValueKindConstInt, i64: v} }

func ConstFloat64(v float64) Value { return Value{kind: ValueKindConstFloat, f64: v} }

func ConstFloat32(v float32) Value { return Value{kind: ValueKindConstFloat, f64: float64(v), isF32: true} }

func ConstNull() Value { return Value{kind: ValueKindConstNull} }

func GlobalAddr(symbol string) Value { return Value{kind: ValueKindGlobalAddr, sym: symbol} }

func Temp(id TempID) Value { return Value{kind: ValueKindTemp, temp: id} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsConstInt() bool { return v.kind == ValueKindConstInt }

// Int64 returns the constant integer payload. Only valid when Kind() == ValueKindConstInt.
func (v Value) Int64() int64 { return v.i64 }

// Float64 returns the constant float payload (as float64 regardless of source width).
// Only valid when Kind() == ValueKindConstFloat.
func (v Value) Float64() float64 { return v.f64 }

// Is32 reports whether a ValueKindConstFloat was produced as a 32-bit literal.
func (v Value) Is32() bool { return v.isF32 }

// Symbol returns the global symbol name. Only valid when Kind() == ValueKindGlobalAddr.
func (v Value) Symbol() string { return v.sym }

// Temp returns the referenced temp id. Only valid when Kind() == ValueKindTemp.
func (v Value) Temp() TempID { return v.temp }

func (v Value) String() string {
	switch v.kind {
	case ValueKindConstInt:
		return fmt.Sprintf("%d", v.i64)
	case ValueKindConstFloat:
		return fmt.Sprintf("%g", v.f64)
	case ValueKindConstNull:
		return "null"
	case ValueKindGlobalAddr:
		return "@" + v.sym
	case ValueKindTemp:
		return fmt.Sprintf("%%%d", v.temp)
	default:
		return "<invalid>"
	}
}
