package sk

import (
	"errors"
	"math"
	"testing"
)

func TestIntoMatrix(t *testing.T) {
	cases := []struct {
		in   Value
		to   VKind
		want string
	}{
		{Int(3), VString, `"3"`},
		{Int(3), VDouble, "3.0"},
		{Int(3), VLong, "3"},
		{Int(0), VBool, "false"},
		{Int(65), VChar, "'A'"},
		{Long(1 << 40), VInt, "0"},
		{Double(2.9), VInt, "2"},
		{Double(-2.9), VLong, "-2"},
		{Double(math.NaN()), VInt, "0"},
		{Char('A'), VInt, "65"},
		{Bool(true), VInt, "1"},
		{Bool(false), VDouble, "0.0"},
		{Str("42"), VInt, "42"},
		{Str("2.5"), VDouble, "2.5"},
		{Str("9L"), VLong, "9"},
		{Str("TRUE"), VBool, "true"},
		{Str("yes"), VBool, "false"},
		{Str("x"), VChar, "'x'"},
		{Str("ab"), VArray, "['a', 'b']"},
		{Null(), VString, `"null"`},
		{Null(), VBool, "false"},
		{Array([]Value{Int(1)}), VString, `"[1]"`},
		{Array(nil), VBool, "true"},
	}
	for _, tc := range cases {
		got, err := Into(tc.in, tc.to)
		if err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.in.Repr(), tc.to, err)
		}
		if got.K != tc.to || got.Repr() != tc.want {
			t.Fatalf("%s -> %s: expected %s, got %s %s", tc.in.Repr(), tc.to, tc.want, got.K, got.Repr())
		}
	}
}

func TestIntoUndefinedPairs(t *testing.T) {
	cases := []struct {
		in Value
		to VKind
	}{
		{Null(), VInt},
		{Str("abc"), VInt},
		{Str("ab"), VChar},
		{Int(-1), VChar},
		{Array(nil), VObject},
		{Obj("", nil, map[string]Value{}), VArray},
		{Int(1), VFunc},
		{Err(&ErrorVal{Kind: ErrUser, Msg: "x"}), VBool},
	}
	for _, tc := range cases {
		_, err := Into(tc.in, tc.to)
		var ce *CoercionError
		if !errors.As(err, &ce) {
			t.Fatalf("%s -> %s: expected coercion error, got %v", tc.in.Repr(), tc.to, err)
		}
		if ce.From != tc.in.TypeName() || ce.To != tc.to {
			t.Fatalf("unexpected error fields %+v", ce)
		}
	}
}

func TestIntoIdentity(t *testing.T) {
	fn := NativeFn(&Native{Name: "n"})
	for _, v := range []Value{Null(), Bool(true), Int(1), Long(2), Double(3), Char('c'), Str("s"), Array(nil), fn} {
		got, err := Into(v, v.K)
		if err != nil || !Equal(got, v) {
			t.Fatalf("identity conversion of %s failed: %v", v.Repr(), err)
		}
	}
	if got, err := Into(fn, VFunc); err != nil || got.K != VNative {
		t.Fatalf("expected natives to count as functions")
	}
}

func TestTruthy(t *testing.T) {
	falsy := []Value{Null(), Bool(false), Int(0), Long(0), Double(0), Str(""), Char(0)}
	for _, v := range falsy {
		if v.Truthy() {
			t.Fatalf("expected %s to be false-like", v.Repr())
		}
	}
	truthy := []Value{Bool(true), Int(-1), Double(0.1), Str("0"), Array(nil), Obj("", nil, map[string]Value{})}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Fatalf("expected %s to be true-like", v.Repr())
		}
	}
}

func TestEqualAndCompare(t *testing.T) {
	if !Equal(Int(1), Double(1)) || !Equal(Long(2), Int(2)) {
		t.Fatalf("expected numeric equality across kinds")
	}
	if Equal(Double(math.NaN()), Double(math.NaN())) {
		t.Fatalf("NaN must not equal itself")
	}
	if Equal(Str("1"), Int(1)) {
		t.Fatalf("string and int must differ")
	}
	a := Obj("", []string{"x", "y"}, map[string]Value{"x": Int(1), "y": Str("a")})
	b := Obj("", []string{"y", "x"}, map[string]Value{"y": Str("a"), "x": Int(1)})
	if !Equal(a, b) {
		t.Fatalf("expected key order not to matter")
	}
	if c, ok := Compare(Int(1), Long(2)); !ok || c != -1 {
		t.Fatalf("expected 1 < 2L")
	}
	if c, ok := Compare(Bool(true), Bool(false)); !ok || c != 1 {
		t.Fatalf("expected true > false")
	}
	if _, ok := Compare(Array(nil), Array(nil)); ok {
		t.Fatalf("arrays have no ordering")
	}
}

func TestTypeNames(t *testing.T) {
	cases := map[string]Value{
		"Null":     Null(),
		"Bool":     Bool(true),
		"Int":      Int(1),
		"Long":     Long(1),
		"Double":   Double(1),
		"Char":     Char('a'),
		"String":   Str(""),
		"Array":    Array(nil),
		"Object":   Obj("", nil, nil),
		"Point":    Obj("Point", nil, nil),
		"Function": NativeFn(&Native{Name: "f"}),
		"Error":    Err(&ErrorVal{}),
	}
	for want, v := range cases {
		if got := v.TypeName(); got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestFormatDouble(t *testing.T) {
	cases := map[float64]string{
		4:           "4.0",
		-0.5:        "-0.5",
		1e21:        "1e+21",
		1.0 / 3.0:   "0.3333333333333333",
		math.Inf(1): "Infinity",
	}
	for in, want := range cases {
		if got := FormatDouble(in); got != want {
			t.Fatalf("FormatDouble(%v): expected %s, got %s", in, want, got)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"12":         "12",
		" 7 ":        "7",
		"3000000000": "3000000000",
		"1.5":        "1.5",
		"2e3":        "2000.0",
		"5L":         "5",
	}
	for in, want := range cases {
		v, ok := ParseNumber(in)
		if !ok || v.Repr() != want {
			t.Fatalf("ParseNumber(%q): expected %s, got %s %v", in, want, v.Repr(), ok)
		}
	}
	if v, _ := ParseNumber("3000000000"); v.K != VLong {
		t.Fatalf("expected wide integers to parse as Long")
	}
	for _, bad := range []string{"", "abc", "1.2.3", "L"} {
		if _, ok := ParseNumber(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
