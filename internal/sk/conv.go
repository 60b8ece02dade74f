package sk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// CoercionError reports a (source, target) pair with no conversion rule or
// a value the rule rejects.
type CoercionError struct {
	From string
	To   VKind
	Why  string
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("invalid type coercion from type '%s' to '%s'", e.From, e.To)
	if e.Why != "" {
		msg += ": " + e.Why
	}
	return msg
}

// Into converts v to the target kind. It is defined for every pair and
// returns a *CoercionError where no rule applies.
func Into(v Value, to VKind) (Value, error) {
	if v.K == to || (to == VFunc && v.K == VNative) {
		return v, nil
	}
	fail := func(why string) (Value, error) {
		return Null(), &CoercionError{From: v.TypeName(), To: to, Why: why}
	}

	switch to {
	case VString:
		return Str(v.String()), nil
	case VBool:
		switch v.K {
		case VString:
			return Bool(strings.EqualFold(strings.TrimSpace(v.S), "true")), nil
		case VError:
			return fail("")
		}
		return Bool(v.Truthy()), nil
	case VInt, VLong, VDouble:
		n, ok := numericOf(v)
		if !ok {
			if v.K == VString {
				return fail(fmt.Sprintf("%q is not a number", v.S))
			}
			return fail("")
		}
		return narrow(n, to), nil
	case VChar:
		switch v.K {
		case VInt, VLong:
			if v.I < 0 || v.I > utf8.MaxRune {
				return fail("code point out of range")
			}
			return Char(rune(v.I)), nil
		case VString:
			if utf8.RuneCountInString(v.S) != 1 {
				return fail("string must hold exactly one character")
			}
			r, _ := utf8.DecodeRuneInString(v.S)
			return Char(r), nil
		}
		return fail("")
	case VArray:
		if v.K == VString {
			out := make([]Value, 0, len(v.S))
			for _, r := range v.S {
				out = append(out, Char(r))
			}
			return Array(out), nil
		}
		return fail("")
	}
	return fail("")
}

// numericOf views v as a number: numbers as is, chars by code point, bools
// as 0/1 and strings parsed.
func numericOf(v Value) (Value, bool) {
	switch v.K {
	case VInt, VLong, VDouble:
		return v, true
	case VChar:
		return Int(int32(v.I)), true
	case VBool:
		if v.B {
			return Int(1), true
		}
		return Int(0), true
	case VString:
		return ParseNumber(v.S)
	}
	return Null(), false
}

func narrow(n Value, to VKind) Value {
	switch to {
	case VInt:
		if n.K == VDouble {
			return Int(int32(truncInt64(n.D)))
		}
		return Int(int32(n.I))
	case VLong:
		if n.K == VDouble {
			return Long(truncInt64(n.D))
		}
		return Long(n.I)
	default:
		return Double(asFloat(n))
	}
}

// ParseNumber reads a numeric literal the way the lexer classifies them: a
// decimal point or exponent makes a Double, a trailing L makes a Long, and
// integers too wide for Int widen to Long.
func ParseNumber(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null(), false
	}
	if body, ok := strings.CutSuffix(s, "L"); ok {
		n, err := strconv.ParseInt(body, 10, 64)
		if err != nil {
			return Null(), false
		}
		return Long(n), true
	}
	if strings.ContainsAny(s, ".eE") || strings.EqualFold(s, "nan") || strings.Contains(strings.ToLower(s), "inf") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Null(), false
		}
		return Double(f), true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Null(), false
	}
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int(int32(n)), true
	}
	return Long(n), true
}

// truncInt64 truncates toward zero, saturating at the int64 range and
// mapping NaN to zero.
func truncInt64(d float64) int64 {
	switch {
	case math.IsNaN(d):
		return 0
	case d >= math.MaxInt64:
		return math.MaxInt64
	case d <= math.MinInt64:
		return math.MinInt64
	}
	return int64(d)
}

func asFloat(v Value) float64 {
	switch v.K {
	case VDouble:
		return v.D
	case VInt, VLong, VChar:
		return float64(v.I)
	}
	return 0
}
