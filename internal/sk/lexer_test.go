package sk

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func lexKinds(t *testing.T, src string) []Kind {
	t.Helper()
	toks, err := Lex("test", src)
	if err != nil {
		t.Fatalf("lex %q: %v", src, err)
	}
	out := make([]Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.K
	}
	return out
}

func lexErr(t *testing.T, src string) *LexError {
	t.Helper()
	_, err := Lex("test", src)
	if err == nil {
		t.Fatalf("expected lex error for %q", src)
	}
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LexError, got %T", err)
	}
	return le
}

func TestLexerMaximalMunch(t *testing.T) {
	cases := map[string][]Kind{
		"+ += ++":       {PLUS, PLUS_ASSIGN, INC, EOF},
		"- -= -- ->":    {MINUS, MINUS_ASSIGN, DEC, ARROW, EOF},
		"* *= **":       {STAR, STAR_ASSIGN, POW, EOF},
		"/ /= // rest":  {SLASH, SLASH_ASSIGN, EOF},
		"= == ! !=":     {ASSIGN, EQ, NOT, NE, EOF},
		"< <= > >=":     {LT, LE, GT, GE, EOF},
		"& && | || ~":   {BIT_AND, AND, BIT_OR, OR, BIT_NOT, EOF},
		". ... : ; ,":   {DOT, SPREAD, COLON, SEMI, COMMA, EOF},
		"( ) [ ] { } %": {LPAREN, RPAREN, LBRACK, RBRACK, LBRACE, RBRACE, PERCENT, EOF},
	}
	for src, want := range cases {
		if got := lexKinds(t, src); !reflect.DeepEqual(got, want) {
			t.Fatalf("%q: expected %v, got %v", src, want, got)
		}
	}
}

func TestLexerTwoDotsIsError(t *testing.T) {
	le := lexErr(t, "a .. b")
	if le.Pos.Col != 3 {
		t.Fatalf("expected error at col 3, got %v", le.Pos)
	}
}

func TestLexerNumbers(t *testing.T) {
	toks, err := Lex("test", "12 3.5 7L 1.2.3 9.")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	want := []struct {
		k   Kind
		lit string
	}{
		{INT, "12"}, {DOUBLE, "3.5"}, {LONG, "7"}, {DOUBLE, "1.2"}, {DOT, "."}, {INT, "3"}, {DOUBLE, "9."}, {EOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}
	for i, w := range want {
		if toks[i].K != w.k || toks[i].Lit != w.lit {
			t.Fatalf("token %d: expected %s %q, got %s %q", i, w.k, w.lit, toks[i].K, toks[i].Lit)
		}
	}
}

func TestLexerWideIntBecomesLong(t *testing.T) {
	toks, err := Lex("test", "3000000000")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].K != LONG {
		t.Fatalf("expected long, got %s", toks[0].K)
	}
	lexErr(t, "1.5L")
}

func TestLexerIntegerRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, 7, 42, 65535, 2147483647, 2147483648, 9007199254740993} {
		src := strconv.FormatInt(n, 10)
		v := run(t, src)
		if v.String() != src {
			t.Fatalf("round trip of %s gave %s", src, v.String())
		}
	}
	if got := run(t, "4.0").String(); got != "4.0" {
		t.Fatalf("expected 4.0, got %s", got)
	}
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	toks, err := Lex("test", "var $x_1 = true; fn delete")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	want := []Tok{
		{K: KEYWORD, Lit: "var"},
		{K: IDENT, Lit: "$x_1"},
		{K: ASSIGN, Lit: "="},
		{K: BOOL, Lit: "true"},
		{K: SEMI, Lit: ";"},
		{K: KEYWORD, Lit: "fn"},
		{K: KEYWORD, Lit: "delete"},
	}
	for i, w := range want {
		if toks[i].K != w.K || toks[i].Lit != w.Lit {
			t.Fatalf("token %d: expected %s, got %s", i, w, toks[i])
		}
	}
}

func TestLexerStrings(t *testing.T) {
	toks, err := Lex("test", `"a\tb\n\"q\" \\ \u0041" 'x' '\n'`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].K != STRING || toks[0].Lit != "a\tb\n\"q\" \\ A" {
		t.Fatalf("unexpected string token %q", toks[0].Lit)
	}
	if toks[1].K != CHAR || toks[1].Lit != "x" {
		t.Fatalf("unexpected char token %v", toks[1])
	}
	if toks[2].K != CHAR || toks[2].Lit != "\n" {
		t.Fatalf("unexpected escaped char token %v", toks[2])
	}
}

func TestLexerStringErrors(t *testing.T) {
	if le := lexErr(t, `"abc`); le.Msg != "unterminated string" {
		t.Fatalf("unexpected message %q", le.Msg)
	}
	if le := lexErr(t, `"a\qb"`); le.Msg != `invalid escape sequence '\q'` {
		t.Fatalf("unexpected message %q", le.Msg)
	}
	lexErr(t, `"\u12"`)
	lexErr(t, `"\uZZZZ"`)
}

func TestLexerUnexpectedCharacterPosition(t *testing.T) {
	le := lexErr(t, "var a = 1;\nvar b = #;")
	if le.Msg != "unexpected character '#'" {
		t.Fatalf("unexpected message %q", le.Msg)
	}
	if le.Pos.Line != 2 || le.Pos.Col != 9 || le.Pos.Index != 19 {
		t.Fatalf("unexpected position %+v", le.Pos)
	}
}

func TestLexerNulByteIsNotEndOfInput(t *testing.T) {
	le := lexErr(t, "1 \x00 + oops")
	if le.Msg != `unexpected character '\x00'` {
		t.Fatalf("unexpected message %q", le.Msg)
	}
	if le.Pos.Col != 3 || le.Pos.Index != 2 {
		t.Fatalf("unexpected position %+v", le.Pos)
	}

	toks, err := Lex("test", "\"a\x00b\" // c\x00d\n1")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if len(toks) != 3 || toks[0].Lit != "a\x00b" || toks[1].K != INT {
		t.Fatalf("expected NUL kept inside string and comment, got %v", toks)
	}
	lexErr(t, "'\x00")
}

func TestLexerPositions(t *testing.T) {
	toks, err := Lex("f.sk", "a\n  bb // note\nc")
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	got := []Pos{toks[0].P, toks[1].P, toks[2].P}
	want := []Pos{
		{Path: "f.sk", Index: 0, Line: 1, Col: 1},
		{Path: "f.sk", Index: 4, Line: 2, Col: 3},
		{Path: "f.sk", Index: 15, Line: 3, Col: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if toks[1].End.Col != 5 {
		t.Fatalf("expected token end at col 5, got %d", toks[1].End.Col)
	}
}

func TestLexerAtOffset(t *testing.T) {
	toks, err := NewLexerAt("f.sk", "x", Pos{Index: 10, Line: 4, Col: 1}).All()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].P.Line != 4 || toks[0].P.Index != 10 {
		t.Fatalf("unexpected position %+v", toks[0].P)
	}
}

func TestKeywordClassOf(t *testing.T) {
	cases := map[string]KeywordClass{
		"var":    KeywordDecl,
		"fn":     KeywordDecl,
		"return": KeywordControl,
		"true":   KeywordLiteral,
		"null":   KeywordLiteral,
		"int":    KeywordDefault,
		"x":      KeywordNone,
	}
	for name, want := range cases {
		if got := KeywordClassOf(name); got != want {
			t.Fatalf("%s: expected class %d, got %d", name, want, got)
		}
	}
}
