package sk

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
)

const programName = "<program>"

type Option func(*Eng)

func WithLimits(lim Limits) Option {
	return func(e *Eng) { e.Lim = lim }
}

func WithScopePolicy(p ScopePolicy) Option {
	return func(e *Eng) { e.Policy = p }
}

func WithDivision(p DivisionPolicy) Option {
	return func(e *Eng) { e.Div = p }
}

// WithOutput sets where print writes.
func WithOutput(w io.Writer) Option {
	return func(e *Eng) { e.Out = w }
}

// Eng owns a global scope and evaluates programs against it. Bindings made
// by one run are visible to the next. An Eng runs one evaluation at a time
// and must not be used from several goroutines at once.
type Eng struct {
	Lim    Limits
	Policy ScopePolicy
	Div    DivisionPolicy
	Out    io.Writer

	env     *Env
	builtin ScopeID
	global  ScopeID
}

func NewEng(opts ...Option) *Eng {
	e := &Eng{Lim: DefaultLimits(), Out: io.Discard}
	for _, opt := range opts {
		opt(e)
	}
	e.Reset()
	return e
}

// Reset drops every user binding and reseeds the builtins.
func (e *Eng) Reset() {
	e.env = NewEnv()
	e.builtin = e.env.Push(NoScope)
	for name, v := range Builtins() {
		e.env.define(e.builtin, name, v)
	}
	e.env.Freeze(e.builtin)
	e.global = e.env.Push(e.builtin)
	e.env.Capture(e.global)
}

func (e *Eng) Lex(path, src string) ([]Tok, error) {
	return Lex(path, src)
}

func (e *Eng) Parse(path, src string) (*Program, error) {
	return Parse(path, src)
}

// Eval runs prog in the global scope.
func (e *Eng) Eval(ctx context.Context, prog *Program) (Value, error) {
	if prog == nil {
		return Null(), errors.New("nil program")
	}
	cx := NewCtx(ctx, e.Lim, programName, e.global)
	cx.Out = e.Out
	vm := NewVM(e.env, cx, e.Policy, e.Div)
	v, rerr := vm.Run(prog)
	if rerr != nil {
		return Null(), rerr
	}
	return v, nil
}

// Run lexes, parses and evaluates src as one unit.
func (e *Eng) Run(ctx context.Context, path, src string) (Value, error) {
	prog, err := Parse(path, src)
	if err != nil {
		return Null(), err
	}
	return e.Eval(ctx, prog)
}

// LineResult is the outcome of one line fed through RunLines.
type LineResult struct {
	Line int
	Src  string
	Val  Value
	Err  error
}

// RunLines feeds src one line at a time, each lexed, parsed and evaluated
// on its own against the shared global scope. A failing line does not stop
// later ones. Blank and comment-only lines are skipped.
func (e *Eng) RunLines(ctx context.Context, path, src string, each func(LineResult)) (failed int) {
	offset := 0
	for i, line := range strings.Split(src, "\n") {
		start := offset
		offset += len(line) + 1
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "//") {
			continue
		}
		res := LineResult{Line: i + 1, Src: line}
		prog, err := ParseAt(path, line, Pos{Index: start, Line: i + 1, Col: 1})
		if err == nil {
			res.Val, err = e.Eval(ctx, prog)
		}
		res.Err = err
		if err != nil {
			failed++
		}
		if each != nil {
			each(res)
		}
		if ctx != nil && ctx.Err() != nil {
			return failed
		}
	}
	return failed
}

// Lookup resolves name from the global scope.
func (e *Eng) Lookup(name string) (Value, bool) {
	return e.env.Lookup(e.global, name)
}

// Globals returns the user bindings of the global scope.
func (e *Eng) Globals() map[string]Value {
	out := map[string]Value{}
	for _, name := range e.env.Names(e.global) {
		if e.env.Owner(e.global, name) != e.global {
			continue
		}
		v, _ := e.env.Lookup(e.global, name)
		out[name] = v
	}
	return out
}

// GlobalNames returns the sorted names of user bindings.
func (e *Eng) GlobalNames() []string {
	g := e.Globals()
	out := make([]string, 0, len(g))
	for k := range g {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
