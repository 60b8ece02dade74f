package sk

import (
	"cmp"
	"math"
	"strconv"
	"strings"
)

type VKind int

const (
	VNull VKind = iota
	VBool
	VInt
	VLong
	VDouble
	VChar
	VString
	VArray
	VObject
	VFunc
	VNative
	VError
)

func (k VKind) String() string {
	switch k {
	case VNull:
		return "Null"
	case VBool:
		return "Bool"
	case VInt:
		return "Int"
	case VLong:
		return "Long"
	case VDouble:
		return "Double"
	case VChar:
		return "Char"
	case VString:
		return "String"
	case VArray:
		return "Array"
	case VObject:
		return "Object"
	case VFunc, VNative:
		return "Function"
	case VError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Value is the runtime value of every expression. Only the fields matching
// K are meaningful. Values are never mutated after construction.
type Value struct {
	K VKind

	B  bool
	I  int64 // Int, Long and the code point of a Char
	D  float64
	S  string
	A  []Value
	O  *Object
	F  *Func
	NF *Native
	E  *ErrorVal
}

type Object struct {
	Class  string
	Keys   []string
	Fields map[string]Value
}

func (o *Object) Get(name string) (Value, bool) {
	v, ok := o.Fields[name]
	return v, ok
}

type FnParam struct {
	Name    string
	Default *Value
	Spread  bool
}

type Func struct {
	Name   string
	Params []FnParam
	Body   *Scope
	Scope  ScopeID
	Pos    Pos
}

// Arity reports the accepted argument count range. Max is -1 when a spread
// parameter makes it unbounded.
func (f *Func) Arity() (min, max int) {
	for _, p := range f.Params {
		if p.Spread {
			return min, -1
		}
		if p.Default == nil {
			min++
		}
	}
	return min, len(f.Params)
}

type NativeFunc func(c *Ctx, pos Pos, args []Value) (Value, error)

type Native struct {
	Name string
	Min  int
	Max  int // -1 for variadic
	Fn   NativeFunc
}

type ErrorVal struct {
	Kind ErrKind
	Msg  string
	Span Span
}

func Null() Value              { return Value{K: VNull} }
func Bool(v bool) Value        { return Value{K: VBool, B: v} }
func Int(v int32) Value        { return Value{K: VInt, I: int64(v)} }
func Long(v int64) Value       { return Value{K: VLong, I: v} }
func Double(v float64) Value   { return Value{K: VDouble, D: v} }
func Char(v rune) Value        { return Value{K: VChar, I: int64(v)} }
func Str(v string) Value       { return Value{K: VString, S: v} }
func Array(v []Value) Value    { return Value{K: VArray, A: v} }
func Fn(v *Func) Value         { return Value{K: VFunc, F: v} }
func NativeFn(v *Native) Value { return Value{K: VNative, NF: v} }
func Err(v *ErrorVal) Value    { return Value{K: VError, E: v} }

// Obj builds an object keeping keys in the given order.
func Obj(class string, keys []string, fields map[string]Value) Value {
	return Value{K: VObject, O: &Object{Class: class, Keys: keys, Fields: fields}}
}

func (v Value) IsNumber() bool {
	return v.K == VInt || v.K == VLong || v.K == VDouble
}

func (v Value) TypeName() string {
	if v.K == VObject && v.O != nil && v.O.Class != "" {
		return v.O.Class
	}
	return v.K.String()
}

// Truthy is the boolean view used by logical operators: false, null, zero
// numbers and empty strings are false, every other value is true.
func (v Value) Truthy() bool {
	switch v.K {
	case VNull:
		return false
	case VBool:
		return v.B
	case VInt, VLong, VChar:
		return v.I != 0
	case VDouble:
		return v.D != 0
	case VString:
		return v.S != ""
	default:
		return true
	}
}

// String is the display form: strings and chars render bare.
func (v Value) String() string {
	switch v.K {
	case VString:
		return v.S
	case VChar:
		return string(rune(v.I))
	}
	return v.Repr()
}

// Repr is the unambiguous form used inside containers.
func (v Value) Repr() string {
	switch v.K {
	case VNull:
		return "null"
	case VBool:
		return strconv.FormatBool(v.B)
	case VInt, VLong:
		return strconv.FormatInt(v.I, 10)
	case VDouble:
		return FormatDouble(v.D)
	case VChar:
		return strconv.QuoteRune(rune(v.I))
	case VString:
		return strconv.Quote(v.S)
	case VArray:
		parts := make([]string, len(v.A))
		for i, it := range v.A {
			parts[i] = it.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case VObject:
		if v.O == nil {
			return "{}"
		}
		parts := make([]string, 0, len(v.O.Keys))
		for _, k := range v.O.Keys {
			parts = append(parts, k+": "+v.O.Fields[k].Repr())
		}
		return v.O.Class + "{" + strings.Join(parts, ", ") + "}"
	case VFunc:
		return "<fn " + v.F.Name + ">"
	case VNative:
		return "<native fn " + v.NF.Name + ">"
	case VError:
		return v.E.Kind.String() + ": " + v.E.Msg
	default:
		return "<?>"
	}
}

// FormatDouble renders whole doubles with a trailing ".0" so they stay
// distinguishable from ints.
func FormatDouble(d float64) string {
	switch {
	case math.IsNaN(d):
		return "NaN"
	case math.IsInf(d, 1):
		return "Infinity"
	case math.IsInf(d, -1):
		return "-Infinity"
	}
	if d == math.Trunc(d) && math.Abs(d) < 1e21 {
		return strconv.FormatFloat(d, 'f', -1, 64) + ".0"
	}
	return strconv.FormatFloat(d, 'g', -1, 64)
}

// Equal is structural equality. Numbers compare by value across kinds.
func Equal(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		c, _ := Compare(a, b)
		return c == 0 && !isNaN(a) && !isNaN(b)
	}
	if a.K != b.K {
		return false
	}
	switch a.K {
	case VNull:
		return true
	case VBool:
		return a.B == b.B
	case VChar:
		return a.I == b.I
	case VString:
		return a.S == b.S
	case VArray:
		if len(a.A) != len(b.A) {
			return false
		}
		for i := range a.A {
			if !Equal(a.A[i], b.A[i]) {
				return false
			}
		}
		return true
	case VObject:
		if a.O == b.O {
			return true
		}
		if a.O == nil || b.O == nil || a.O.Class != b.O.Class || len(a.O.Fields) != len(b.O.Fields) {
			return false
		}
		for k, av := range a.O.Fields {
			bv, ok := b.O.Fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case VFunc:
		return a.F == b.F
	case VNative:
		return a.NF == b.NF
	case VError:
		return a.E.Kind == b.E.Kind && a.E.Msg == b.E.Msg
	}
	return false
}

// Compare orders two values. ok is false when the pair has no ordering.
func Compare(a, b Value) (c int, ok bool) {
	if a.IsNumber() && b.IsNumber() {
		switch widen(a.K, b.K) {
		case VInt, VLong:
			return cmp.Compare(a.I, b.I), true
		default:
			return cmp.Compare(asFloat(a), asFloat(b)), true
		}
	}
	if a.K != b.K {
		return 0, false
	}
	switch a.K {
	case VString:
		return strings.Compare(a.S, b.S), true
	case VChar:
		return cmp.Compare(a.I, b.I), true
	case VBool:
		switch {
		case a.B == b.B:
			return 0, true
		case !a.B:
			return -1, true
		default:
			return 1, true
		}
	}
	return 0, false
}

func isNaN(v Value) bool {
	return v.K == VDouble && math.IsNaN(v.D)
}
