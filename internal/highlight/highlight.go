// Package highlight colors sk source for the terminal.
package highlight

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/sk-lang/sk/internal/theme"
)

// Lexer is a chroma lexer for sk source files.
var Lexer = chroma.MustNewLexer(
	&chroma.Config{
		Name:      "sk",
		Aliases:   []string{"sk"},
		Filenames: []string{"*.sk"},
		MimeTypes: []string{"text/x-sk"},
	},
	chroma.Rules{
		"root": {
			{Pattern: `\s+`, Type: chroma.Text},
			{Pattern: `//[^\n]*`, Type: chroma.CommentSingle},
			{Pattern: `"(\\.|[^"\\\n])*"`, Type: chroma.LiteralString},
			{Pattern: `'(\\.|[^'\\\n])*'`, Type: chroma.LiteralStringChar},
			{Pattern: chroma.Words(`\b`, `\b`, "var", "const", "fn", "delete", "new"), Type: chroma.KeywordDeclaration},
			{Pattern: chroma.Words(`\b`, `\b`, "if", "else", "for", "of", "in", "while", "switch", "case", "return", "break", "continue"), Type: chroma.Keyword},
			{Pattern: chroma.Words(`\b`, `\b`, "true", "false", "null"), Type: chroma.KeywordConstant},
			{Pattern: chroma.Words(`\b`, `\b`, "int", "long", "float", "double", "string", "bool"), Type: chroma.KeywordType},
			{Pattern: `\d+(?=\.\.\.)`, Type: chroma.LiteralNumberInteger},
			{Pattern: `\d+\.\d*`, Type: chroma.LiteralNumberFloat},
			{Pattern: `\d+L?`, Type: chroma.LiteralNumberInteger},
			{Pattern: `[A-Za-z_][A-Za-z0-9_]*`, Type: chroma.Name},
			{Pattern: `&&|\|\||!(?!=)`, Type: chroma.OperatorWord},
			{Pattern: `\.\.\.|\*\*|->|\+\+|--|[+\-*/]=|==|!=|<=|>=|[+\-*/%<>=&|~]`, Type: chroma.Operator},
			{Pattern: `[()\[\]{},.:;]`, Type: chroma.Punctuation},
			{Pattern: `.`, Type: chroma.Error},
		},
	},
)

// Tokens splits src into highlighting tokens.
func Tokens(src string) ([]chroma.Token, error) {
	it, err := Lexer.Tokenise(nil, src)
	if err != nil {
		return nil, err
	}
	return it.Tokens(), nil
}

// Terminal writes src through a chroma terminal formatter with the named style.
// Unknown names fall back to chroma's defaults.
func Terminal(w io.Writer, src, style, formatter string) error {
	if formatter == "" {
		formatter = "terminal256"
	}
	if style == "" {
		style = "monokai"
	}
	it, err := Lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	return formatters.Get(formatter).Format(w, styles.Get(style), it)
}

type Highlighter struct {
	colors map[chroma.TokenType]lipgloss.Color
}

// New maps token types onto the theme's keyword and value palettes.
func New(th theme.Theme) *Highlighter {
	k, v := th.Keywords, th.Values
	return &Highlighter{colors: map[chroma.TokenType]lipgloss.Color{
		chroma.KeywordDeclaration:   k.Decl,
		chroma.KeywordType:          k.Decl,
		chroma.Keyword:              k.Control,
		chroma.KeywordConstant:      k.Literal,
		chroma.OperatorWord:         k.Logical,
		chroma.Operator:             th.Operator,
		chroma.CommentSingle:        th.Comment,
		chroma.LiteralString:        v.String,
		chroma.LiteralStringChar:    v.Char,
		chroma.LiteralNumberInteger: v.Number,
		chroma.LiteralNumberFloat:   v.Number,
		chroma.Error:                v.Error,
	}}
}

// Line renders src with lipgloss colors. Text is unchanged apart from styling.
func (h *Highlighter) Line(src string) string {
	toks, err := Tokens(src)
	if err != nil {
		return src
	}
	var b strings.Builder
	for _, t := range toks {
		c := h.colors[t.Type]
		if c == "" || strings.TrimSpace(t.Value) == "" {
			b.WriteString(t.Value)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render(t.Value))
	}
	return b.String()
}
