package sk

import (
	"fmt"
	"strconv"
)

// pres is the result of one parse function: a node or an error, plus the
// number of tokens consumed while producing it.
type pres struct {
	n   Node
	err *ParseError
	adv int
}

// take folds a child result into r and returns the child's node.
func (r *pres) take(c pres) Node {
	r.adv += c.adv
	if c.err != nil {
		r.err = furthest(r.err, c.err)
	}
	return c.n
}

func (r pres) fail(err *ParseError) pres {
	r.err = furthest(r.err, err)
	r.n = nil
	return r
}

func (r pres) ok(n Node) pres {
	r.n = n
	return r
}

// furthest keeps the error raised after more tokens were consumed. On a tie
// the error already held wins since it came from the deeper rule.
func furthest(have, next *ParseError) *ParseError {
	if have == nil {
		return next
	}
	if next == nil || next.at <= have.at {
		return have
	}
	return next
}

// maxNesting bounds bracket, block and unary nesting so deep input fails
// with a ParseError instead of exhausting the goroutine stack.
const maxNesting = 1000

type Parser struct {
	path  string
	toks  []Tok
	i     int
	depth int
}

func NewParser(path string, toks []Tok) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].K != EOF {
		var end Pos
		if len(toks) > 0 {
			end = toks[len(toks)-1].End
		}
		toks = append(toks, Tok{K: EOF, P: end, End: end})
	}
	return &Parser{path: path, toks: toks}
}

// Parse lexes and parses src into a program.
func Parse(path, src string) (*Program, error) {
	return ParseAt(path, src, Pos{Line: 1, Col: 1})
}

// ParseAt parses src whose first character sits at pos in path.
func ParseAt(path, src string, pos Pos) (*Program, error) {
	toks, err := NewLexerAt(path, src, pos).All()
	if err != nil {
		return nil, err
	}
	return NewParser(path, toks).Program()
}

func (p *Parser) Program() (*Program, error) {
	prog := &Program{Path: p.path}
	for p.cur().K != EOF {
		r := p.stmt()
		if r.err != nil {
			return nil, r.err
		}
		prog.Stmts = append(prog.Stmts, r.n)
	}
	return prog, nil
}

func (p *Parser) cur() Tok {
	return p.toks[p.i]
}

func (p *Parser) advance(r *pres) Tok {
	t := p.toks[p.i]
	if t.K != EOF {
		p.i++
		r.adv++
	}
	return t
}

func (p *Parser) last() Pos {
	if p.i == 0 {
		return p.toks[0].P
	}
	return p.toks[p.i-1].End
}

func (p *Parser) errHere(format string, args ...any) *ParseError {
	t := p.cur()
	return &ParseError{Pos: t.P, End: t.End, Msg: fmt.Sprintf(format, args...), at: p.i}
}

// nest runs rule one nesting level deeper.
func (p *Parser) nest(rule func() pres) pres {
	if p.depth >= maxNesting {
		return pres{err: p.errHere("nesting deeper than %d levels", maxNesting)}
	}
	p.depth++
	defer func() { p.depth-- }()
	return rule()
}

func (p *Parser) expected(what string) *ParseError {
	return p.errHere("expected %s, found %s", what, p.cur())
}

func (p *Parser) stmt() pres {
	var r pres
	t := p.cur()
	var n Node
	switch {
	case t.IsKeyword("var"), t.IsKeyword("const"):
		n = r.take(p.varDecl())
	case t.IsKeyword("fn"):
		n = r.take(p.fnDef())
	case t.IsKeyword("return"):
		n = r.take(p.returnStmt())
	case t.IsKeyword("delete"):
		n = r.take(p.deleteStmt())
	case t.IsKeyword("break"):
		p.advance(&r)
		n = &Break{span{t.P, t.End}}
	case t.IsKeyword("continue"):
		p.advance(&r)
		n = &Continue{span{t.P, t.End}}
	case t.K == LBRACE:
		n = r.take(p.nest(p.scope))
	default:
		n = r.take(p.expr())
	}
	if r.err != nil {
		return r
	}
	switch p.cur().K {
	case SEMI:
		p.advance(&r)
	case EOF:
		// end of input terminates the final statement
	default:
		return r.fail(p.expected("';'"))
	}
	return r.ok(n)
}

func (p *Parser) varDecl() pres {
	var r pres
	kw := p.advance(&r)
	isConst := kw.Lit == "const"
	if p.cur().K != IDENT {
		return r.fail(p.expected("identifier"))
	}
	name := p.advance(&r).Lit
	if p.cur().K != ASSIGN {
		if isConst {
			return r.fail(p.errHere("const %s requires a value", name))
		}
		return r.ok(&VarDeclare{span: span{kw.P, p.last()}, Name: name})
	}
	p.advance(&r)
	val := r.take(p.expr())
	if r.err != nil {
		return r
	}
	return r.ok(&VarAssign{span: span{kw.P, p.last()}, Name: name, Const: isConst, Val: val})
}

func (p *Parser) fnDef() pres {
	var r pres
	kw := p.advance(&r)
	if p.cur().K != IDENT {
		return r.fail(p.expected("identifier"))
	}
	name := p.advance(&r).Lit
	fn := &FnDef{Name: name}

	if p.cur().K == LPAREN {
		p.advance(&r)
		if p.cur().K != RPAREN {
			for {
				prm := r.take(p.param())
				if r.err != nil {
					return r
				}
				fn.Params = append(fn.Params, prm.(*Param))
				if p.cur().K != COMMA {
					break
				}
				p.advance(&r)
			}
		}
		if p.cur().K != RPAREN {
			return r.fail(p.expected("',' or ')'"))
		}
		p.advance(&r)
	}

	if p.cur().K == LBRACE {
		body := r.take(p.nest(p.scope))
		if r.err != nil {
			return r
		}
		fn.Body = body.(*Scope)
	}
	fn.span = span{kw.P, p.last()}
	return r.ok(fn)
}

func (p *Parser) param() pres {
	var r pres
	start := p.cur().P
	spread := false
	if p.cur().K == SPREAD {
		p.advance(&r)
		spread = true
	}
	if p.cur().K != IDENT {
		return r.fail(p.expected("parameter name"))
	}
	name := p.advance(&r).Lit
	var def Node
	if p.cur().K == ASSIGN {
		p.advance(&r)
		def = r.take(p.expr())
		if r.err != nil {
			return r
		}
	}
	return r.ok(&Param{span: span{start, p.last()}, Name: name, Default: def, Spread: spread})
}

func (p *Parser) scope() pres {
	var r pres
	open := p.advance(&r)
	sc := &Scope{}
	for p.cur().K != RBRACE {
		if p.cur().K == EOF {
			return r.fail(p.expected("'}'"))
		}
		st := r.take(p.stmt())
		if r.err != nil {
			return r
		}
		sc.Stmts = append(sc.Stmts, st)
	}
	p.advance(&r)
	sc.span = span{open.P, p.last()}
	return r.ok(sc)
}

func (p *Parser) returnStmt() pres {
	var r pres
	kw := p.advance(&r)
	if p.cur().K == SEMI || p.cur().K == RBRACE || p.cur().K == EOF {
		return r.ok(&Return{span: span{kw.P, kw.End}})
	}
	val := r.take(p.expr())
	if r.err != nil {
		return r
	}
	return r.ok(&Return{span: span{kw.P, p.last()}, Val: val})
}

func (p *Parser) deleteStmt() pres {
	var r pres
	kw := p.advance(&r)
	if p.cur().K != IDENT {
		return r.fail(p.expected("identifier"))
	}
	name := p.advance(&r).Lit
	return r.ok(&VarDelete{span: span{kw.P, p.last()}, Name: name})
}

func (p *Parser) expr() pres {
	return p.nest(func() pres { return p.binary(p.comp, logicOps) })
}

func (p *Parser) comp() pres {
	if p.cur().K == NOT {
		var r pres
		op := p.advance(&r)
		x := r.take(p.nest(p.comp))
		if r.err != nil {
			return r
		}
		return r.ok(&Unary{span: span{op.P, x.End()}, Op: NOT, X: x})
	}
	return p.binary(p.arith, compOps)
}

func (p *Parser) arith() pres {
	return p.binary(p.term, arithOps)
}

func (p *Parser) term() pres {
	return p.binary(p.factor, termOps)
}

func (p *Parser) factor() pres {
	if kindIn(p.cur().K, unaryOps) {
		var r pres
		op := p.advance(&r)
		x := r.take(p.nest(p.factor))
		if r.err != nil {
			return r
		}
		return r.ok(&Unary{span: span{op.P, x.End()}, Op: op.K, X: x})
	}
	return p.power()
}

// power binds tighter than unary minus on its left but recurses into
// factor on its right, so 2 ** -1 parses and 2 ** 3 ** 2 is right
// associative.
func (p *Parser) power() pres {
	var r pres
	left := r.take(p.postfix())
	if r.err != nil {
		return r
	}
	for p.cur().K == POW {
		p.advance(&r)
		right := r.take(p.nest(p.factor))
		if r.err != nil {
			return r
		}
		left = &Binary{span: span{left.Pos(), right.End()}, Op: POW, Left: left, Right: right}
	}
	return r.ok(left)
}

func (p *Parser) binary(next func() pres, ops []Kind) pres {
	var r pres
	left := r.take(next())
	if r.err != nil {
		return r
	}
	for kindIn(p.cur().K, ops) {
		op := p.advance(&r)
		right := r.take(next())
		if r.err != nil {
			return r
		}
		left = &Binary{span: span{left.Pos(), right.End()}, Op: op.K, Left: left, Right: right}
	}
	return r.ok(left)
}

func (p *Parser) postfix() pres {
	var r pres
	x := r.take(p.atom())
	if r.err != nil {
		return r
	}
	if _, ok := x.(*VarReassign); ok {
		return r.ok(x)
	}
	for {
		switch p.cur().K {
		case LPAREN:
			p.advance(&r)
			var args []Node
			if p.cur().K != RPAREN {
				for {
					a := r.take(p.expr())
					if r.err != nil {
						return r
					}
					args = append(args, a)
					if p.cur().K != COMMA {
						break
					}
					p.advance(&r)
				}
			}
			if p.cur().K != RPAREN {
				return r.fail(p.expected("',' or ')'"))
			}
			p.advance(&r)
			x = &Call{span: span{x.Pos(), p.last()}, Callee: x, Args: args}
		case LBRACK:
			p.advance(&r)
			idx := r.take(p.expr())
			if r.err != nil {
				return r
			}
			if p.cur().K != RBRACK {
				return r.fail(p.expected("']'"))
			}
			p.advance(&r)
			x = &Index{span: span{x.Pos(), p.last()}, X: x, Idx: idx}
		case DOT:
			p.advance(&r)
			if p.cur().K != IDENT && p.cur().K != KEYWORD {
				return r.fail(p.expected("member name"))
			}
			name := p.advance(&r).Lit
			x = &Member{span: span{x.Pos(), p.last()}, X: x, Name: name}
		default:
			return r.ok(x)
		}
	}
}

func (p *Parser) atom() pres {
	var r pres
	t := p.cur()
	sp := span{t.P, t.End}
	switch t.K {
	case INT:
		p.advance(&r)
		n, err := strconv.ParseInt(t.Lit, 10, 32)
		if err != nil {
			return r.fail(&ParseError{Pos: t.P, End: t.End, Msg: "invalid int literal " + t.Lit, at: p.i - 1})
		}
		return r.ok(&NumLit{span: sp, Kind: INT, Lit: t.Lit, I: n})
	case LONG:
		p.advance(&r)
		n, err := strconv.ParseInt(t.Lit, 10, 64)
		if err != nil {
			return r.fail(&ParseError{Pos: t.P, End: t.End, Msg: "invalid long literal " + t.Lit, at: p.i - 1})
		}
		return r.ok(&NumLit{span: sp, Kind: LONG, Lit: t.Lit, I: n})
	case DOUBLE:
		p.advance(&r)
		f, err := strconv.ParseFloat(t.Lit, 64)
		if err != nil {
			return r.fail(&ParseError{Pos: t.P, End: t.End, Msg: "invalid double literal " + t.Lit, at: p.i - 1})
		}
		return r.ok(&NumLit{span: sp, Kind: DOUBLE, Lit: t.Lit, D: f})
	case STRING:
		p.advance(&r)
		return r.ok(&StrLit{span: sp, V: t.Lit})
	case CHAR:
		p.advance(&r)
		return r.ok(&CharLit{span: sp, V: []rune(t.Lit)[0]})
	case BOOL:
		p.advance(&r)
		return r.ok(&BoolLit{span: sp, V: t.Lit == "true"})
	case IDENT:
		return p.ident()
	case LPAREN:
		p.advance(&r)
		x := r.take(p.expr())
		if r.err != nil {
			return r
		}
		if p.cur().K != RPAREN {
			return r.fail(p.expected("')'"))
		}
		p.advance(&r)
		return r.ok(x)
	case LBRACK:
		return p.arrayLit()
	case LBRACE:
		return p.objectLit()
	}
	return r.fail(p.expected("int, long, double, char, string, identifier, '(', '[' or '{'"))
}

func (p *Parser) ident() pres {
	var r pres
	t := p.advance(&r)
	switch nk := p.cur().K; nk {
	case ASSIGN:
		p.advance(&r)
		val := r.take(p.expr())
		if r.err != nil {
			return r
		}
		return r.ok(&VarReassign{span: span{t.P, p.last()}, Name: t.Lit, Val: val})
	case PLUS_ASSIGN, MINUS_ASSIGN, STAR_ASSIGN, SLASH_ASSIGN:
		p.advance(&r)
		val := r.take(p.expr())
		if r.err != nil {
			return r
		}
		return r.ok(&VarReassign{span: span{t.P, p.last()}, Name: t.Lit, Op: compoundOp[nk], Val: val})
	case INC, DEC:
		opTok := p.advance(&r)
		op := PLUS
		if nk == DEC {
			op = MINUS
		}
		one := &NumLit{span: span{opTok.P, opTok.End}, Kind: INT, Lit: "1", I: 1}
		return r.ok(&VarReassign{span: span{t.P, opTok.End}, Name: t.Lit, Op: op, Val: one})
	}
	return r.ok(&VarAccess{span: span{t.P, t.End}, Name: t.Lit})
}

func (p *Parser) arrayLit() pres {
	var r pres
	open := p.advance(&r)
	arr := &ArrayLit{}
	if p.cur().K != RBRACK {
		for {
			el := r.take(p.expr())
			if r.err != nil {
				return r
			}
			arr.Elems = append(arr.Elems, el)
			if p.cur().K != COMMA {
				break
			}
			p.advance(&r)
		}
	}
	if p.cur().K != RBRACK {
		return r.fail(p.expected("',' or ']'"))
	}
	p.advance(&r)
	arr.span = span{open.P, p.last()}
	return r.ok(arr)
}

func (p *Parser) objectLit() pres {
	var r pres
	open := p.advance(&r)
	obj := &ObjectLit{}
	if p.cur().K != RBRACE {
		for {
			k := p.cur()
			switch k.K {
			case IDENT, STRING, KEYWORD, INT, BOOL:
			default:
				return r.fail(p.expected("object key"))
			}
			p.advance(&r)
			if p.cur().K != COLON {
				return r.fail(p.expected("':'"))
			}
			p.advance(&r)
			val := r.take(p.expr())
			if r.err != nil {
				return r
			}
			obj.Entries = append(obj.Entries, ObjectEntry{Key: k.Lit, Val: val})
			if p.cur().K != COMMA {
				break
			}
			p.advance(&r)
		}
	}
	if p.cur().K != RBRACE {
		return r.fail(p.expected("',' or '}'"))
	}
	p.advance(&r)
	obj.span = span{open.P, p.last()}
	return r.ok(obj)
}
