package highlight

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/chroma"
	"github.com/charmbracelet/x/ansi"

	"github.com/sk-lang/sk/internal/theme"
)

func TestTokensClassifySource(t *testing.T) {
	src := `var x = 10L; fn f(a, rest...) { return "s" + 'c' + 1.5; } // done`
	toks, err := Tokens(src)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	want := map[string]chroma.TokenType{
		"var":     chroma.KeywordDeclaration,
		"fn":      chroma.KeywordDeclaration,
		"return":  chroma.Keyword,
		"10L":     chroma.LiteralNumberInteger,
		"1.5":     chroma.LiteralNumberFloat,
		`"s"`:     chroma.LiteralString,
		"'c'":     chroma.LiteralStringChar,
		"...":     chroma.Operator,
		"// done": chroma.CommentSingle,
		"x":       chroma.Name,
		";":       chroma.Punctuation,
	}
	seen := map[string]bool{}
	var rebuilt strings.Builder
	for _, tok := range toks {
		rebuilt.WriteString(tok.Value)
		if typ, ok := want[tok.Value]; ok {
			if tok.Type != typ {
				t.Fatalf("token %q: expected %v, got %v", tok.Value, typ, tok.Type)
			}
			seen[tok.Value] = true
		}
	}
	for lit := range want {
		if !seen[lit] {
			t.Fatalf("token %q not produced", lit)
		}
	}
	if rebuilt.String() != src {
		t.Fatalf("tokens do not cover source: %q", rebuilt.String())
	}
}

func TestSpreadAfterInteger(t *testing.T) {
	toks, err := Tokens("1...")
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if len(toks) < 2 || toks[0].Value != "1" || toks[1].Value != "..." {
		t.Fatalf("expected 1 then ..., got %v", toks)
	}
}

func TestLogicalOperatorsUseOperatorWord(t *testing.T) {
	toks, err := Tokens("a && !b != c")
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	got := map[string]chroma.TokenType{}
	for _, tok := range toks {
		got[tok.Value] = tok.Type
	}
	if got["&&"] != chroma.OperatorWord || got["!"] != chroma.OperatorWord {
		t.Fatalf("expected logical operators as OperatorWord, got %v", got)
	}
	if got["!="] != chroma.Operator {
		t.Fatalf("expected != as Operator, got %v", got["!="])
	}
}

func TestLinePreservesText(t *testing.T) {
	src := `const pi = 3.14; print("pi", pi);`
	if got := New(theme.Plain()).Line(src); got != src {
		t.Fatalf("expected plain highlight to be identity, got %q", got)
	}
	if got := ansi.Strip(New(theme.DefaultTheme()).Line(src)); got != src {
		t.Fatalf("expected stripped highlight to match source, got %q", got)
	}
}

func TestTerminalFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := Terminal(&buf, "var a = 1;", "", ""); err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected escape sequences, got %q", out)
	}
	if ansi.Strip(out) != "var a = 1;" {
		t.Fatalf("expected source text preserved, got %q", ansi.Strip(out))
	}
}
