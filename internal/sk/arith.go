package sk

import (
	"fmt"
	"math"
	"strings"
)

// DivisionPolicy selects how Double division and modulo by zero behave.
// Integer division by zero is always an arithmetic error.
type DivisionPolicy int

const (
	// DivIEEE lets Double division produce Inf or NaN.
	DivIEEE DivisionPolicy = iota
	// DivStrict makes any division by zero an arithmetic error.
	DivStrict
)

func (p DivisionPolicy) String() string {
	if p == DivStrict {
		return "strict"
	}
	return "ieee"
}

// opError is an operator failure without location; the interpreter attaches
// the span and traceback.
type opError struct {
	kind ErrKind
	msg  string
}

func (e *opError) Error() string { return e.msg }

func opErr(kind ErrKind, format string, args ...any) *opError {
	return &opError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func badLeft(op Kind, v Value) *opError {
	return opErr(ErrOperand, "invalid operand type '%s' used in '%s' expression", v.TypeName(), op)
}

func badRight(op Kind, v Value) *opError {
	return opErr(ErrOperand, "invalid operand type '%s' on right side of '%s' expression", v.TypeName(), op)
}

// widen resolves the result kind of a numeric pair: Int with Int stays Int,
// Long wins over Int, Double wins over everything.
func widen(a, b VKind) VKind {
	switch {
	case a == VDouble || b == VDouble:
		return VDouble
	case a == VLong || b == VLong:
		return VLong
	default:
		return VInt
	}
}

// Arith applies an arithmetic operator (+ - * / % **) to two values.
// maxStr bounds string repetition before the result is built; zero means
// only the platform limit applies.
func Arith(op Kind, l, r Value, div DivisionPolicy, maxStr int) (Value, error) {
	v, err := arith(op, l, r, div, maxStr)
	if err != nil {
		return Null(), err
	}
	return v, nil
}

func arith(op Kind, l, r Value, div DivisionPolicy, maxStr int) (Value, *opError) {
	switch op {
	case PLUS:
		switch {
		case l.IsNumber() && r.IsNumber():
			return numeric(op, l, r, div)
		case l.K == VString:
			return Str(l.S + r.String()), nil
		case l.IsNumber() && r.K == VString:
			return Str(l.String() + r.S), nil
		case l.IsNumber():
			return Null(), badRight(op, r)
		}
		return Str(l.String() + r.String()), nil
	case STAR:
		if l.K == VString {
			if !r.IsNumber() {
				return Null(), badRight(op, r)
			}
			n := r.I
			if r.K == VDouble {
				n = truncInt64(r.D)
			}
			return repeat(l.S, n, maxStr)
		}
		fallthrough
	case MINUS, SLASH, PERCENT, POW:
		if !l.IsNumber() {
			return Null(), badLeft(op, l)
		}
		if !r.IsNumber() {
			return Null(), badRight(op, r)
		}
		return numeric(op, l, r, div)
	}
	return Null(), opErr(ErrOperand, "unknown arithmetic operator '%s'", op)
}

func repeat(s string, n int64, maxStr int) (Value, *opError) {
	if n < 0 {
		return Null(), opErr(ErrOperand, "cannot repeat a string %d times", n)
	}
	if s == "" || n == 0 {
		return Str(""), nil
	}
	limit := maxStr
	if limit <= 0 {
		limit = math.MaxInt
	}
	if n > int64(limit/len(s)) {
		if maxStr > 0 {
			return Null(), opErr(ErrExhausted, "string longer than %d bytes", maxStr)
		}
		return Null(), opErr(ErrExhausted, "cannot repeat a string %d times", n)
	}
	return Str(strings.Repeat(s, int(n))), nil
}

func numeric(op Kind, l, r Value, div DivisionPolicy) (Value, *opError) {
	switch widen(l.K, r.K) {
	case VInt:
		a, b := int32(l.I), int32(r.I)
		switch op {
		case PLUS:
			return Int(a + b), nil
		case MINUS:
			return Int(a - b), nil
		case STAR:
			return Int(a * b), nil
		case SLASH:
			if b == 0 {
				return Null(), opErr(ErrArithmetic, "division by zero")
			}
			return Int(a / b), nil
		case PERCENT:
			if b == 0 {
				return Null(), opErr(ErrArithmetic, "modulo by zero")
			}
			return Int(a % b), nil
		case POW:
			return Int(int32(clamp(math.Pow(float64(a), float64(b)), math.MinInt32, math.MaxInt32))), nil
		}
	case VLong:
		a, b := l.I, r.I
		switch op {
		case PLUS:
			return Long(a + b), nil
		case MINUS:
			return Long(a - b), nil
		case STAR:
			return Long(a * b), nil
		case SLASH:
			if b == 0 {
				return Null(), opErr(ErrArithmetic, "division by zero")
			}
			return Long(a / b), nil
		case PERCENT:
			if b == 0 {
				return Null(), opErr(ErrArithmetic, "modulo by zero")
			}
			return Long(a % b), nil
		case POW:
			return Long(truncInt64(math.Pow(float64(a), float64(b)))), nil
		}
	default:
		a, b := asFloat(l), asFloat(r)
		switch op {
		case PLUS:
			return Double(a + b), nil
		case MINUS:
			return Double(a - b), nil
		case STAR:
			return Double(a * b), nil
		case SLASH:
			if b == 0 && div == DivStrict {
				return Null(), opErr(ErrArithmetic, "division by zero")
			}
			return Double(a / b), nil
		case PERCENT:
			if b == 0 && div == DivStrict {
				return Null(), opErr(ErrArithmetic, "modulo by zero")
			}
			return Double(math.Mod(a, b)), nil
		case POW:
			return Double(math.Pow(a, b)), nil
		}
	}
	return Null(), opErr(ErrOperand, "unknown arithmetic operator '%s'", op)
}

// Negate applies unary minus, parsing strings into numbers first.
func Negate(v Value) (Value, error) {
	n, err := unaryNumber(v)
	if err != nil {
		return Null(), err
	}
	switch n.K {
	case VInt:
		return Int(-int32(n.I)), nil
	case VLong:
		return Long(-n.I), nil
	default:
		return Double(-n.D), nil
	}
}

// unaryNumber is the operand rule of unary + and -: numbers pass through,
// strings are parsed, anything else fails as a coercion.
func unaryNumber(v Value) (Value, error) {
	switch v.K {
	case VInt, VLong, VDouble:
		return v, nil
	case VString:
		if n, ok := ParseNumber(v.S); ok {
			return n, nil
		}
		return Null(), &CoercionError{From: v.TypeName(), To: VInt, Why: fmt.Sprintf("%q is not a number", v.S)}
	}
	return Null(), &CoercionError{From: v.TypeName(), To: VInt}
}

func clamp(f, lo, hi float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < lo:
		return lo
	case f > hi:
		return hi
	}
	return f
}
