// Package render turns values and errors into terminal text.
package render

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/rivo/uniseg"

	"github.com/sk-lang/sk/internal/errdef"
	"github.com/sk-lang/sk/internal/sk"
	"github.com/sk-lang/sk/internal/theme"
)

const tabWidth = 4

type Renderer struct {
	th    theme.Theme
	width int
}

// New returns a renderer; width <= 0 disables truncation of values.
func New(th theme.Theme, width int) *Renderer {
	return &Renderer{th: th, width: width}
}

func (r *Renderer) Theme() theme.Theme { return r.th }

func (r *Renderer) SetWidth(w int) { r.width = w }

// ColorSupported reports whether w is a terminal that accepts colors.
func ColorSupported(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).EnvColorProfile() != termenv.Ascii
}

// UseColor switches lipgloss output between the environment profile and plain ASCII.
func UseColor(on bool) {
	if on {
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
		return
	}
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Value renders v the way the REPL echoes results.
func (r *Renderer) Value(v sk.Value) string {
	out := r.value(v)
	if r.width > 0 {
		out = ansi.Truncate(out, r.width, "…")
	}
	return out
}

// Result renders a value followed by its type name.
func (r *Renderer) Result(v sk.Value) string {
	return r.Value(v) + " " + r.th.ResultType.Render(": "+v.TypeName())
}

func (r *Renderer) paint(c lipgloss.Color, s string) string {
	if c == "" {
		return s
	}
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func (r *Renderer) value(v sk.Value) string {
	p := r.th.Values
	switch v.K {
	case sk.VNull:
		return r.paint(p.Null, "null")
	case sk.VBool:
		return r.paint(p.Bool, strconv.FormatBool(v.B))
	case sk.VInt, sk.VLong, sk.VDouble:
		return r.paint(p.Number, v.Repr())
	case sk.VChar:
		return r.paint(p.Char, v.Repr())
	case sk.VString:
		return r.paint(p.String, v.Repr())
	case sk.VArray:
		parts := make([]string, len(v.A))
		for i, it := range v.A {
			parts[i] = r.value(it)
		}
		return r.paint(p.Punct, "[") + strings.Join(parts, r.paint(p.Punct, ", ")) + r.paint(p.Punct, "]")
	case sk.VObject:
		if v.O == nil {
			return r.paint(p.Punct, "{}")
		}
		parts := make([]string, 0, len(v.O.Keys))
		for _, k := range v.O.Keys {
			parts = append(parts, k+r.paint(p.Punct, ": ")+r.value(v.O.Fields[k]))
		}
		return v.O.Class + r.paint(p.Punct, "{") + strings.Join(parts, r.paint(p.Punct, ", ")) + r.paint(p.Punct, "}")
	case sk.VFunc, sk.VNative:
		return r.paint(p.Function, v.Repr())
	case sk.VError:
		return r.paint(p.Error, v.Repr())
	default:
		return v.Repr()
	}
}

// Error renders err with a source excerpt when src is available.
func (r *Renderer) Error(err error, src string) string {
	if err == nil {
		return ""
	}
	var (
		lexErr   *sk.LexError
		parseErr *sk.ParseError
		rtErr    *sk.RuntimeError
	)
	switch {
	case errors.As(err, &lexErr):
		return r.located("LexError", lexErr.Msg, lexErr.Span(), src, nil)
	case errors.As(err, &parseErr):
		return r.located("ParseError", parseErr.Msg, parseErr.Span(), src, nil)
	case errors.As(err, &rtErr):
		return r.located(rtErr.Kind.String(), rtErr.Msg, rtErr.Span, src, rtErr.Trace)
	}
	code := errdef.CodeOf(err)
	head := "error"
	if code != "" && code != errdef.CodeUnknown {
		head = string(code) + " error"
	}
	return r.th.ErrorKind.Render(head+":") + " " + r.th.Error.Render(err.Error())
}

func (r *Renderer) located(kind, msg string, span sk.Span, src string, trace []sk.Frame) string {
	var b strings.Builder
	b.WriteString(r.th.ErrorKind.Render(kind + ":"))
	b.WriteString(" ")
	b.WriteString(r.th.Error.Render(msg))
	if !span.Start.IsZero() {
		b.WriteString("\n  ")
		b.WriteString(r.th.Location.Render("--> " + span.Start.String()))
	}
	if snip := r.Snippet(src, span); snip != "" {
		b.WriteString("\n")
		b.WriteString(snip)
	}
	if len(trace) > 0 {
		b.WriteString("\n")
		b.WriteString(r.Traceback(trace))
	}
	return b.String()
}

// Traceback lists frames innermost first.
func (r *Renderer) Traceback(trace []sk.Frame) string {
	var b strings.Builder
	b.WriteString(r.th.Traceback.Render("Traceback (innermost first):"))
	for _, f := range trace {
		path := f.Pos.Path
		if path == "" {
			path = "<stdin>"
		}
		b.WriteString("\n  ")
		b.WriteString(r.th.Traceback.Render("File " + path + ", line " + strconv.Itoa(f.Pos.Line) + ", at "))
		b.WriteString(r.th.Location.Render(f.Name))
	}
	return b.String()
}

// Snippet shows the source line holding span.Start with a caret run under the span.
// Columns are measured in terminal cells so wide runes stay aligned.
func (r *Renderer) Snippet(src string, span sk.Span) string {
	if src == "" || span.Start.IsZero() {
		return ""
	}
	line, ok := sourceLine(src, span.Start.Line)
	if !ok {
		return ""
	}
	start := byteCol(line, span.Start.Col)
	end := len(line)
	if span.End.Line == span.Start.Line && span.End.Col > span.Start.Col {
		end = byteCol(line, span.End.Col)
	} else if span.End.Line == 0 || span.End == span.Start {
		end = start
	}

	shown := expandTabs(line)
	lead := uniseg.StringWidth(expandTabs(line[:start]))
	width := uniseg.StringWidth(expandTabs(line[:end])) - lead
	if width < 1 {
		width = 1
	}

	num := strconv.Itoa(span.Start.Line)
	pad := strings.Repeat(" ", len(num))
	var b strings.Builder
	b.WriteString(r.th.Gutter.Render(pad + " |"))
	b.WriteString("\n")
	b.WriteString(r.th.Gutter.Render(num + " | "))
	b.WriteString(shown)
	b.WriteString("\n")
	b.WriteString(r.th.Gutter.Render(pad + " | "))
	b.WriteString(strings.Repeat(" ", lead))
	b.WriteString(r.th.Caret.Render(strings.Repeat("^", width)))
	return b.String()
}

func sourceLine(src string, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	for i := 1; ; i++ {
		nl := strings.IndexByte(src, '\n')
		if i == n {
			if nl >= 0 {
				src = src[:nl]
			}
			return strings.TrimSuffix(src, "\r"), true
		}
		if nl < 0 {
			return "", false
		}
		src = src[nl+1:]
	}
}

// byteCol maps a 1-based rune column to a byte offset within line.
func byteCol(line string, col int) int {
	if col <= 1 {
		return 0
	}
	n := 1
	for i := range line {
		if n == col {
			return i
		}
		n++
	}
	return len(line)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
