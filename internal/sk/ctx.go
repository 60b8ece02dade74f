package sk

import (
	"context"
	"fmt"
	"io"
	"time"
)

// hardMaxCall caps call depth even when Limits.MaxCall is zero so runaway
// recursion surfaces as an error instead of exhausting the host stack.
const hardMaxCall = 10000

// hardMaxNest caps evaluator recursion, which long operator or postfix
// chains can drive without any call.
const hardMaxNest = 60000

type Limits struct {
	MaxSteps int
	MaxCall  int
	MaxStr   int
	MaxList  int
	Timeout  time.Duration
}

func DefaultLimits() Limits {
	return Limits{MaxCall: 1024, MaxStr: 1 << 20, MaxList: 1 << 16}
}

type ctxFrame struct {
	name  string
	entry Pos
	scope ScopeID
}

// Ctx is the execution context of one run: limits, cancellation and the
// chain of named frames used for tracebacks.
type Ctx struct {
	Ctx context.Context
	Lim Limits
	Now func() time.Time
	Out io.Writer

	steps int
	nest  int
	start time.Time
	stack []ctxFrame
}

func NewCtx(ctx context.Context, lim Limits, name string, scope ScopeID) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Ctx{Ctx: ctx, Lim: lim, Now: time.Now, Out: io.Discard}
	c.start = c.Now()
	c.stack = []ctxFrame{{name: name, scope: scope}}
	return c
}

func (c *Ctx) Depth() int {
	return len(c.stack) - 1
}

func (c *Ctx) Name() string {
	return c.stack[len(c.stack)-1].name
}

func (c *Ctx) Scope() ScopeID {
	return c.stack[len(c.stack)-1].scope
}

func (c *Ctx) setScope(id ScopeID) {
	c.stack[len(c.stack)-1].scope = id
}

func (c *Ctx) maxCall() int {
	if c.Lim.MaxCall > 0 && c.Lim.MaxCall < hardMaxCall {
		return c.Lim.MaxCall
	}
	return hardMaxCall
}

func (c *Ctx) enter(name string, entry Pos, scope ScopeID) *RuntimeError {
	if c.Depth() >= c.maxCall() {
		return c.errAt(ErrExhausted, Span{Start: entry}, "maximum call depth of %d exceeded", c.maxCall())
	}
	c.stack = append(c.stack, ctxFrame{name: name, entry: entry, scope: scope})
	return nil
}

func (c *Ctx) leave() {
	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func (c *Ctx) descend(n Node) *RuntimeError {
	if c.nest >= hardMaxNest {
		return c.errAt(ErrExhausted, spanOf(n), "expression nested deeper than %d levels", hardMaxNest)
	}
	c.nest++
	return nil
}

func (c *Ctx) ascend() {
	c.nest--
}

func (c *Ctx) tick(n Node) *RuntimeError {
	c.steps++
	if c.Lim.MaxSteps > 0 && c.steps > c.Lim.MaxSteps {
		return c.errAt(ErrExhausted, spanOf(n), "step limit of %d exceeded", c.Lim.MaxSteps)
	}
	if c.Lim.Timeout > 0 && c.Now().Sub(c.start) > c.Lim.Timeout {
		return c.errAt(ErrExhausted, spanOf(n), "timeout of %s exceeded", c.Lim.Timeout)
	}
	select {
	case <-c.Ctx.Done():
		return c.errAt(ErrExhausted, spanOf(n), "canceled: %v", c.Ctx.Err())
	default:
		return nil
	}
}

// errAt builds a runtime error whose trace walks the frame chain from the
// innermost frame outward.
func (c *Ctx) errAt(kind ErrKind, sp Span, format string, args ...any) *RuntimeError {
	e := &RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...), Span: sp}
	if c == nil {
		return e
	}
	pos := sp.Start
	for i := len(c.stack) - 1; i >= 0; i-- {
		e.Trace = append(e.Trace, Frame{Name: c.stack[i].name, Pos: pos})
		pos = c.stack[i].entry
	}
	return e
}

func spanOf(n Node) Span {
	if n == nil {
		return Span{}
	}
	return Span{Start: n.Pos(), End: n.End()}
}
