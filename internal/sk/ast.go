package sk

// Program is the root of a parsed source unit.
type Program struct {
	Path  string
	Stmts []Node
}

// Node is implemented by every syntax tree variant. The set is closed: the
// interpreter switches over all of them.
type Node interface {
	node()
	Pos() Pos
	End() Pos
}

type span struct {
	P Pos
	E Pos
}

func (s span) Pos() Pos { return s.P }
func (s span) End() Pos { return s.E }

type BoolLit struct {
	span
	V bool
}

type NumLit struct {
	span
	Kind Kind // INT, LONG or DOUBLE
	Lit  string
	I    int64
	D    float64
}

type StrLit struct {
	span
	V string
}

type CharLit struct {
	span
	V rune
}

type ArrayLit struct {
	span
	Elems []Node
}

type ObjectEntry struct {
	Key string
	Val Node
}

type ObjectLit struct {
	span
	Entries []ObjectEntry
}

type VarAccess struct {
	span
	Name string
}

// VarDeclare is "var x" without an initializer.
type VarDeclare struct {
	span
	Name  string
	Const bool
}

// VarAssign is "var x = e".
type VarAssign struct {
	span
	Name  string
	Const bool
	Val   Node
}

// VarReassign is "x = e". Op is set for compound forms like "x += e" and
// "x++", where Val is the right hand operand.
type VarReassign struct {
	span
	Name string
	Op   Kind
	Val  Node
}

type VarDelete struct {
	span
	Name string
}

type Unary struct {
	span
	Op Kind
	X  Node
}

type Binary struct {
	span
	Op    Kind
	Left  Node
	Right Node
}

type Param struct {
	span
	Name    string
	Default Node
	Spread  bool
}

type FnDef struct {
	span
	Name   string
	Params []*Param
	Body   *Scope
}

type Call struct {
	span
	Callee Node
	Args   []Node
}

type Index struct {
	span
	X   Node
	Idx Node
}

type Member struct {
	span
	X    Node
	Name string
}

type Return struct {
	span
	Val Node
}

type Break struct {
	span
}

type Continue struct {
	span
}

// Scope is a braced block. It opens a child scope when evaluated.
type Scope struct {
	span
	Stmts []Node
}

func (*BoolLit) node()     {}
func (*NumLit) node()      {}
func (*StrLit) node()      {}
func (*CharLit) node()     {}
func (*ArrayLit) node()    {}
func (*ObjectLit) node()   {}
func (*VarAccess) node()   {}
func (*VarDeclare) node()  {}
func (*VarAssign) node()   {}
func (*VarReassign) node() {}
func (*VarDelete) node()   {}
func (*Unary) node()       {}
func (*Binary) node()      {}
func (*Param) node()       {}
func (*FnDef) node()       {}
func (*Call) node()        {}
func (*Index) node()       {}
func (*Member) node()      {}
func (*Return) node()      {}
func (*Break) node()       {}
func (*Continue) node()    {}
func (*Scope) node()       {}
