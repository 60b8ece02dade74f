// Package errdef defines the coded error type shared across sk packages.
package errdef

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeLex        Code = "lex"
	CodeParse      Code = "parse"
	CodeRuntime    Code = "runtime"
	CodeConfig     Code = "config"
	CodeHistory    Code = "history"
	CodeFilesystem Code = "filesystem"
	CodeTelemetry  Code = "telemetry"
)

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Msg == "" && e.Err != nil:
		return e.Err.Error()
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) ErrCode() Code { return e.Code }

// Coder is implemented by errors that carry their own classification.
type Coder interface {
	ErrCode() Code
}

func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the outermost classified error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var c Coder
	if errors.As(err, &c) {
		return c.ErrCode()
	}
	return CodeUnknown
}

// Message returns the human readable part of err without code decoration.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Error()
	}
	return err.Error()
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
