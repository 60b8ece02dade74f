package sk

import (
	"fmt"
	"strings"

	"github.com/sk-lang/sk/internal/errdef"
)

type ErrKind int

const (
	ErrUndefined ErrKind = iota
	ErrRedeclared
	ErrNotFunction
	ErrArgCount
	ErrOperand
	ErrCoercion
	ErrArithmetic
	ErrImmutable
	ErrIndex
	ErrParams
	ErrControl
	ErrExhausted
	ErrNative
	ErrUser
)

func (k ErrKind) String() string {
	switch k {
	case ErrUndefined:
		return "UndefinedError"
	case ErrRedeclared:
		return "RedeclarationError"
	case ErrNotFunction:
		return "NotAFunctionError"
	case ErrArgCount:
		return "ArgumentCountError"
	case ErrOperand:
		return "OperandError"
	case ErrCoercion:
		return "CoercionError"
	case ErrArithmetic:
		return "ArithmeticError"
	case ErrImmutable:
		return "ImmutableError"
	case ErrIndex:
		return "IndexError"
	case ErrParams:
		return "ParameterError"
	case ErrControl:
		return "ControlFlowError"
	case ErrExhausted:
		return "ResourceExhaustedError"
	case ErrNative:
		return "NativeError"
	case ErrUser:
		return "Error"
	default:
		return "RuntimeError"
	}
}

// Frame is one entry of a runtime traceback.
type Frame struct {
	Name string
	Pos  Pos
}

type RuntimeError struct {
	Kind  ErrKind
	Msg   string
	Span  Span
	Trace []Frame
}

func (e *RuntimeError) Error() string {
	if e.Span.Start.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Span.Start.String(), e.Msg)
}

func (e *RuntimeError) ErrCode() errdef.Code { return errdef.CodeRuntime }

// Pretty renders the error with its traceback, innermost frame first.
func (e *RuntimeError) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Msg)
	if len(e.Trace) == 0 {
		return b.String()
	}
	b.WriteString("\nTraceback (innermost first):")
	for _, f := range e.Trace {
		path := f.Pos.Path
		if path == "" {
			path = "<stdin>"
		}
		fmt.Fprintf(&b, "\n  File %s, line %d, at %s", path, f.Pos.Line, f.Name)
	}
	return b.String()
}

// Value converts the error into a runtime Error value.
func (e *RuntimeError) Value() Value {
	return Err(&ErrorVal{Kind: e.Kind, Msg: e.Msg, Span: e.Span})
}
