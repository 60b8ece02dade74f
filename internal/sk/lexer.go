package sk

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type Lexer struct {
	src  string
	path string
	base int
	i    int
	line int
	col  int
}

func NewLexer(path, src string) *Lexer {
	return NewLexerAt(path, src, Pos{Line: 1, Col: 1})
}

// NewLexerAt starts position tracking at pos, used when a caller feeds a
// single line of a larger file.
func NewLexerAt(path, src string, pos Pos) *Lexer {
	ln := pos.Line
	if ln <= 0 {
		ln = 1
	}
	cl := pos.Col
	if cl <= 0 {
		cl = 1
	}
	return &Lexer{src: src, path: path, base: pos.Index, line: ln, col: cl}
}

// Lex tokenizes src completely. The returned slice always ends with EOF.
func Lex(path, src string) ([]Tok, error) {
	return NewLexer(path, src).All()
}

func (l *Lexer) All() ([]Tok, error) {
	var out []Tok
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if t.K == EOF {
			return out, nil
		}
	}
}

func (l *Lexer) Next() (Tok, error) {
	for {
		if l.atEnd() {
			p := l.pos()
			return Tok{K: EOF, P: p, End: p}, nil
		}
		ch := l.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.read()
			continue
		}
		if ch == '/' && l.peekAt(1) == '/' {
			l.skipComment()
			continue
		}
		break
	}

	p := l.pos()
	ch := l.peek()

	switch ch {
	case '(':
		return l.single(LPAREN, p)
	case ')':
		return l.single(RPAREN, p)
	case '[':
		return l.single(LBRACK, p)
	case ']':
		return l.single(RBRACK, p)
	case '{':
		return l.single(LBRACE, p)
	case '}':
		return l.single(RBRACE, p)
	case ',':
		return l.single(COMMA, p)
	case ':':
		return l.single(COLON, p)
	case ';':
		return l.single(SEMI, p)
	case '~':
		return l.single(BIT_NOT, p)
	case '%':
		return l.single(PERCENT, p)
	case '+':
		l.read()
		switch l.peek() {
		case '=':
			l.read()
			return l.emit(PLUS_ASSIGN, "+=", p), nil
		case '+':
			l.read()
			return l.emit(INC, "++", p), nil
		}
		return l.emit(PLUS, "+", p), nil
	case '-':
		l.read()
		switch l.peek() {
		case '=':
			l.read()
			return l.emit(MINUS_ASSIGN, "-=", p), nil
		case '-':
			l.read()
			return l.emit(DEC, "--", p), nil
		case '>':
			l.read()
			return l.emit(ARROW, "->", p), nil
		}
		return l.emit(MINUS, "-", p), nil
	case '*':
		l.read()
		switch l.peek() {
		case '=':
			l.read()
			return l.emit(STAR_ASSIGN, "*=", p), nil
		case '*':
			l.read()
			return l.emit(POW, "**", p), nil
		}
		return l.emit(STAR, "*", p), nil
	case '/':
		l.read()
		if l.peek() == '=' {
			l.read()
			return l.emit(SLASH_ASSIGN, "/=", p), nil
		}
		return l.emit(SLASH, "/", p), nil
	case '=':
		return l.pair('=', ASSIGN, EQ, p)
	case '!':
		return l.pair('=', NOT, NE, p)
	case '<':
		return l.pair('=', LT, LE, p)
	case '>':
		return l.pair('=', GT, GE, p)
	case '&':
		return l.pair('&', BIT_AND, AND, p)
	case '|':
		return l.pair('|', BIT_OR, OR, p)
	case '.':
		l.read()
		if l.peek() != '.' {
			return l.emit(DOT, ".", p), nil
		}
		l.read()
		if l.peek() != '.' {
			return Tok{}, l.fail(p, "expected '...'")
		}
		l.read()
		return l.emit(SPREAD, "...", p), nil
	case '"':
		s, err := l.scanString(p)
		if err != nil {
			return Tok{}, err
		}
		return l.emit(STRING, s, p), nil
	case '\'':
		s, err := l.scanChar(p)
		if err != nil {
			return Tok{}, err
		}
		return l.emit(CHAR, s, p), nil
	}

	if isIdentStart(ch) {
		name := l.scanIdent()
		switch {
		case booleans[name]:
			return l.emit(BOOL, name, p), nil
		case keywords[name]:
			return l.emit(KEYWORD, name, p), nil
		}
		return l.emit(IDENT, name, p), nil
	}

	if isDigit(ch) {
		return l.scanNumber(p)
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.i:])
	l.read()
	return Tok{}, l.fail(p, "unexpected character "+strconv.QuoteRune(r))
}

func (l *Lexer) pos() Pos {
	return Pos{Path: l.path, Index: l.base + l.i, Line: l.line, Col: l.col}
}

func (l *Lexer) emit(k Kind, lit string, p Pos) Tok {
	return Tok{K: k, Lit: lit, P: p, End: l.pos()}
}

func (l *Lexer) fail(p Pos, msg string) error {
	return &LexError{Pos: p, End: l.pos(), Msg: msg}
}

func (l *Lexer) single(k Kind, p Pos) (Tok, error) {
	l.read()
	return l.emit(k, k.String(), p), nil
}

// pair lexes a one char operator that may be followed by next to form a
// two char operator.
func (l *Lexer) pair(next byte, one, two Kind, p Pos) (Tok, error) {
	l.read()
	if l.peek() == next {
		l.read()
		return l.emit(two, two.String(), p), nil
	}
	return l.emit(one, one.String(), p), nil
}

// atEnd reports end of input; peek also returns 0 for a literal NUL byte.
func (l *Lexer) atEnd() bool {
	return l.i >= len(l.src)
}

func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(off int) byte {
	if l.i+off >= len(l.src) {
		return 0
	}
	return l.src[l.i+off]
}

// read consumes one rune and advances the position.
func (l *Lexer) read() rune {
	if l.i >= len(l.src) {
		return 0
	}
	r, sz := utf8.DecodeRuneInString(l.src[l.i:])
	l.i += sz
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipComment() {
	for {
		if l.atEnd() || l.peek() == '\n' {
			return
		}
		l.read()
	}
}

func (l *Lexer) scanIdent() string {
	start := l.i
	for isIdentPart(l.peek()) {
		l.read()
	}
	return l.src[start:l.i]
}

func (l *Lexer) scanNumber(p Pos) (Tok, error) {
	start := l.i
	dot := false
	for {
		ch := l.peek()
		if isDigit(ch) {
			l.read()
			continue
		}
		if ch == '.' && !dot {
			// "1..." keeps the spread for the next token
			if l.peekAt(1) == '.' {
				break
			}
			dot = true
			l.read()
			continue
		}
		break
	}
	lit := l.src[start:l.i]
	if l.peek() == 'L' {
		l.read()
		if dot {
			return Tok{}, l.fail(p, fmt.Sprintf("invalid long literal '%sL'", lit))
		}
		if _, err := strconv.ParseInt(lit, 10, 64); err != nil {
			return Tok{}, l.fail(p, fmt.Sprintf("long literal out of range '%sL'", lit))
		}
		return l.emit(LONG, lit, p), nil
	}
	if dot {
		return l.emit(DOUBLE, lit, p), nil
	}
	if _, err := strconv.ParseInt(lit, 10, 32); err == nil {
		return l.emit(INT, lit, p), nil
	}
	// too wide for an int, widen instead of failing
	if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return l.emit(LONG, lit, p), nil
	}
	return Tok{}, l.fail(p, fmt.Sprintf("integer literal out of range '%s'", lit))
}

func (l *Lexer) scanString(p Pos) (string, error) {
	l.read()
	var b strings.Builder
	for {
		if l.atEnd() {
			return "", l.fail(p, "unterminated string")
		}
		switch l.peek() {
		case '\n':
			return "", l.fail(p, "unterminated string")
		case '"':
			l.read()
			return b.String(), nil
		case '\\':
			r, err := l.scanEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			b.WriteRune(l.read())
		}
	}
}

func (l *Lexer) scanChar(p Pos) (string, error) {
	l.read()
	var r rune
	if l.atEnd() {
		return "", l.fail(p, "empty char literal")
	}
	switch l.peek() {
	case '\n', '\'':
		return "", l.fail(p, "empty char literal")
	case '\\':
		v, err := l.scanEscape()
		if err != nil {
			return "", err
		}
		r = v
	default:
		r = l.read()
	}
	if l.peek() != '\'' {
		return "", l.fail(p, "unterminated char literal")
	}
	l.read()
	return string(r), nil
}

func (l *Lexer) scanEscape() (rune, error) {
	p := l.pos()
	l.read()
	if l.atEnd() {
		return 0, l.fail(p, "invalid escape sequence at end of input")
	}
	ch := l.peek()
	switch ch {
	case 'n':
		l.read()
		return '\n', nil
	case 't':
		l.read()
		return '\t', nil
	case 'r':
		l.read()
		return '\r', nil
	case '"', '\'', '\\', '`':
		l.read()
		return rune(ch), nil
	case 'u':
		l.read()
		if l.i+4 > len(l.src) {
			return 0, l.fail(p, "invalid escape sequence '\\u'")
		}
		hex := l.src[l.i : l.i+4]
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, l.fail(p, fmt.Sprintf("invalid escape sequence '\\u%s'", hex))
		}
		for range 4 {
			l.read()
		}
		return rune(n), nil
	}
	r := l.read()
	return 0, l.fail(p, fmt.Sprintf("invalid escape sequence '\\%c'", r))
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
