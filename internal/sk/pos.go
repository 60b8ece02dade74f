package sk

import (
	"fmt"

	"github.com/sk-lang/sk/internal/errdef"
)

// Pos is a location in a source file. Index is a 0-based byte offset,
// Line and Col are 1-based.
type Pos struct {
	Path  string
	Index int
	Line  int
	Col   int
}

func (p Pos) String() string {
	if p.Path == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

func (p Pos) IsZero() bool {
	return p.Line == 0
}

type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	if s.End.Line == 0 || s.End == s.Start {
		return s.Start.String()
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s-%d", s.Start.String(), s.End.Col)
	}
	return fmt.Sprintf("%s-%d:%d", s.Start.String(), s.End.Line, s.End.Col)
}

type LexError struct {
	Pos Pos
	End Pos
	Msg string
}

func (e *LexError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

func (e *LexError) ErrCode() errdef.Code { return errdef.CodeLex }

func (e *LexError) Span() Span { return Span{Start: e.Pos, End: e.End} }

type ParseError struct {
	Pos Pos
	End Pos
	Msg string

	// at is the index of the token the parser stood on when it failed.
	at int
}

func (e *ParseError) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Pos.String(), e.Msg)
}

func (e *ParseError) ErrCode() errdef.Code { return errdef.CodeParse }

func (e *ParseError) Span() Span { return Span{Start: e.Pos, End: e.End} }
