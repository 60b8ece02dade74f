package sk

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a node as an indented s-expression, one node per line.
func Dump(n Node) string {
	var b strings.Builder
	dumpNode(&b, n, 0)
	return b.String()
}

func DumpProgram(p *Program) string {
	var b strings.Builder
	for _, st := range p.Stmts {
		dumpNode(&b, st, 0)
	}
	return b.String()
}

func dumpNode(b *strings.Builder, n Node, depth int) {
	pad := strings.Repeat("  ", depth)
	line := func(format string, args ...any) {
		b.WriteString(pad)
		fmt.Fprintf(b, format, args...)
		b.WriteByte('\n')
	}
	kids := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				dumpNode(b, c, depth+1)
			}
		}
	}

	switch x := n.(type) {
	case nil:
		line("<nil>")
	case *BoolLit:
		line("(bool %t)", x.V)
	case *NumLit:
		line("(%s %s)", x.Kind, x.Lit)
	case *StrLit:
		line("(string %s)", strconv.Quote(x.V))
	case *CharLit:
		line("(char %s)", strconv.QuoteRune(x.V))
	case *ArrayLit:
		line("(array)")
		kids(x.Elems...)
	case *ObjectLit:
		line("(object)")
		for _, e := range x.Entries {
			b.WriteString(pad + "  " + e.Key + ":\n")
			dumpNode(b, e.Val, depth+2)
		}
	case *VarAccess:
		line("(var %s)", x.Name)
	case *VarDeclare:
		line("(declare %s%s)", constTag(x.Const), x.Name)
	case *VarAssign:
		line("(assign %s%s)", constTag(x.Const), x.Name)
		kids(x.Val)
	case *VarReassign:
		if x.Op != EOF {
			line("(reassign %s %s=)", x.Name, x.Op)
		} else {
			line("(reassign %s)", x.Name)
		}
		kids(x.Val)
	case *VarDelete:
		line("(delete %s)", x.Name)
	case *Unary:
		line("(unary %s)", x.Op)
		kids(x.X)
	case *Binary:
		line("(binary %s)", x.Op)
		kids(x.Left, x.Right)
	case *Param:
		prefix := ""
		if x.Spread {
			prefix = "..."
		}
		line("(param %s%s)", prefix, x.Name)
		kids(x.Default)
	case *FnDef:
		line("(fn %s)", x.Name)
		for _, p := range x.Params {
			kids(p)
		}
		if x.Body != nil {
			kids(x.Body)
		}
	case *Call:
		line("(call)")
		kids(x.Callee)
		kids(x.Args...)
	case *Index:
		line("(index)")
		kids(x.X, x.Idx)
	case *Member:
		line("(member %s)", x.Name)
		kids(x.X)
	case *Return:
		line("(return)")
		kids(x.Val)
	case *Break:
		line("(break)")
	case *Continue:
		line("(continue)")
	case *Scope:
		line("(scope)")
		kids(x.Stmts...)
	default:
		line("(unknown %T)", n)
	}
}

func constTag(c bool) string {
	if c {
		return "const "
	}
	return ""
}
