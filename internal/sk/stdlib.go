package sk

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Builtins returns the seed bindings of every global scope: the constants
// null, PI and E plus the native functions.
func Builtins() map[string]Value {
	out := map[string]Value{
		"null": Null(),
		"PI":   Double(math.Pi),
		"E":    Double(math.E),
	}
	for _, nf := range natives() {
		out[nf.Name] = NativeFn(nf)
	}
	return out
}

func natives() []*Native {
	conv := func(name string, to VKind) *Native {
		return &Native{Name: name, Min: 1, Max: 1, Fn: func(_ *Ctx, _ Pos, args []Value) (Value, error) {
			return Into(args[0], to)
		}}
	}
	return []*Native{
		{Name: "print", Min: 0, Max: -1, Fn: stdPrint},
		{Name: "len", Min: 1, Max: 1, Fn: stdLen},
		{Name: "type", Min: 1, Max: 1, Fn: stdType},
		{Name: "keys", Min: 1, Max: 1, Fn: stdKeys},
		{Name: "push", Min: 1, Max: -1, Fn: stdPush},
		{Name: "error", Min: 1, Max: 1, Fn: stdError},
		conv("str", VString),
		conv("int", VInt),
		conv("long", VLong),
		conv("double", VDouble),
		conv("char", VChar),
		conv("bool", VBool),
	}
}

func stdPrint(c *Ctx, _ Pos, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if _, err := fmt.Fprintln(c.Out, strings.Join(parts, " ")); err != nil {
		return Null(), err
	}
	return Null(), nil
}

func stdLen(_ *Ctx, _ Pos, args []Value) (Value, error) {
	v := args[0]
	switch v.K {
	case VString:
		return Int(int32(utf8.RuneCountInString(v.S))), nil
	case VArray:
		return Int(int32(len(v.A))), nil
	case VObject:
		return Int(int32(len(v.O.Keys))), nil
	}
	return Null(), opErr(ErrOperand, "len: unsupported type '%s'", v.TypeName())
}

func stdType(_ *Ctx, _ Pos, args []Value) (Value, error) {
	return Str(args[0].TypeName()), nil
}

func stdKeys(_ *Ctx, _ Pos, args []Value) (Value, error) {
	v := args[0]
	if v.K != VObject {
		return Null(), opErr(ErrOperand, "keys: expected 'Object', got '%s'", v.TypeName())
	}
	out := make([]Value, len(v.O.Keys))
	for i, k := range v.O.Keys {
		out[i] = Str(k)
	}
	return Array(out), nil
}

// stdPush returns a new array; arrays themselves are never mutated.
func stdPush(c *Ctx, _ Pos, args []Value) (Value, error) {
	v := args[0]
	if v.K != VArray {
		return Null(), opErr(ErrOperand, "push: expected 'Array', got '%s'", v.TypeName())
	}
	out := make([]Value, 0, len(v.A)+len(args)-1)
	out = append(out, v.A...)
	out = append(out, args[1:]...)
	if c.Lim.MaxList > 0 && len(out) > c.Lim.MaxList {
		return Null(), opErr(ErrExhausted, "array longer than %d elements", c.Lim.MaxList)
	}
	return Array(out), nil
}

func stdError(_ *Ctx, pos Pos, args []Value) (Value, error) {
	return Err(&ErrorVal{Kind: ErrUser, Msg: args[0].String(), Span: Span{Start: pos}}), nil
}
