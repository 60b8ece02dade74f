package sk

type Kind int

const (
	EOF Kind = iota

	INT
	LONG
	DOUBLE
	CHAR
	STRING
	BOOL
	IDENT
	KEYWORD

	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	POW

	PLUS_ASSIGN
	MINUS_ASSIGN
	STAR_ASSIGN
	SLASH_ASSIGN
	INC
	DEC

	ASSIGN
	EQ
	NE
	LT
	LE
	GT
	GE

	AND
	OR
	NOT
	BIT_AND
	BIT_OR
	BIT_NOT

	LPAREN
	RPAREN
	LBRACK
	RBRACK
	LBRACE
	RBRACE
	COMMA
	DOT
	COLON
	SEMI
	ARROW
	SPREAD
)

type Tok struct {
	K   Kind
	Lit string
	P   Pos
	End Pos
}

func (t Tok) Is(k Kind, lit string) bool {
	return t.K == k && t.Lit == lit
}

func (t Tok) IsKeyword(name string) bool {
	return t.Is(KEYWORD, name)
}

func (t Tok) String() string {
	switch t.K {
	case EOF:
		return "end of input"
	case INT, LONG, DOUBLE, BOOL, IDENT, KEYWORD:
		return t.K.String() + " '" + t.Lit + "'"
	case STRING:
		return "string \"" + t.Lit + "\""
	case CHAR:
		return "char '" + t.Lit + "'"
	default:
		return "'" + t.K.String() + "'"
	}
}

var keywords = map[string]bool{
	"int":      true,
	"long":     true,
	"float":    true,
	"double":   true,
	"string":   true,
	"bool":     true,
	"var":      true,
	"const":    true,
	"if":       true,
	"else":     true,
	"for":      true,
	"of":       true,
	"in":       true,
	"while":    true,
	"switch":   true,
	"case":     true,
	"return":   true,
	"break":    true,
	"continue": true,
	"new":      true,
	"delete":   true,
	"fn":       true,
}

var booleans = map[string]bool{
	"true":  true,
	"false": true,
}

func IsKeyword(name string) bool {
	return keywords[name]
}

type KeywordClass int

const (
	KeywordNone KeywordClass = iota
	KeywordDefault
	KeywordDecl
	KeywordControl
	KeywordLiteral
)

// KeywordClassOf returns the highlighting class of name, or KeywordNone.
func KeywordClassOf(name string) KeywordClass {
	switch {
	case booleans[name], name == "null":
		return KeywordLiteral
	case !keywords[name]:
		return KeywordNone
	}
	switch name {
	case "var", "const", "fn", "delete", "new":
		return KeywordDecl
	case "if", "else", "for", "of", "in", "while", "switch", "case", "return", "break", "continue":
		return KeywordControl
	default:
		return KeywordDefault
	}
}

// Operator classes consumed by the parser's precedence levels.
var (
	logicOps   = []Kind{AND, OR}
	compOps    = []Kind{EQ, NE, LT, LE, GT, GE}
	arithOps   = []Kind{PLUS, MINUS}
	termOps    = []Kind{STAR, SLASH, PERCENT}
	unaryOps   = []Kind{PLUS, MINUS, NOT}
	compoundOp = map[Kind]Kind{
		PLUS_ASSIGN:  PLUS,
		MINUS_ASSIGN: MINUS,
		STAR_ASSIGN:  STAR,
		SLASH_ASSIGN: SLASH,
	}
)

func kindIn(k Kind, set []Kind) bool {
	for _, it := range set {
		if it == k {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case INT:
		return "int"
	case LONG:
		return "long"
	case DOUBLE:
		return "double"
	case CHAR:
		return "char"
	case STRING:
		return "string"
	case BOOL:
		return "bool"
	case IDENT:
		return "identifier"
	case KEYWORD:
		return "keyword"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case POW:
		return "**"
	case PLUS_ASSIGN:
		return "+="
	case MINUS_ASSIGN:
		return "-="
	case STAR_ASSIGN:
		return "*="
	case SLASH_ASSIGN:
		return "/="
	case INC:
		return "++"
	case DEC:
		return "--"
	case ASSIGN:
		return "="
	case EQ:
		return "=="
	case NE:
		return "!="
	case LT:
		return "<"
	case LE:
		return "<="
	case GT:
		return ">"
	case GE:
		return ">="
	case AND:
		return "&&"
	case OR:
		return "||"
	case NOT:
		return "!"
	case BIT_AND:
		return "&"
	case BIT_OR:
		return "|"
	case BIT_NOT:
		return "~"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LBRACK:
		return "["
	case RBRACK:
		return "]"
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	case COMMA:
		return ","
	case DOT:
		return "."
	case COLON:
		return ":"
	case SEMI:
		return ";"
	case ARROW:
		return "->"
	case SPREAD:
		return "..."
	default:
		return "unknown"
	}
}
