package sk

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// ScopePolicy picks the parent of a function call's scope.
type ScopePolicy int

const (
	// ScopeDynamic chains the call scope to the caller's scope, so a body
	// sees and may rebind the caller's locals.
	ScopeDynamic ScopePolicy = iota
	// ScopeLexical chains the call scope to the scope the function was
	// defined in.
	ScopeLexical
)

func (p ScopePolicy) String() string {
	if p == ScopeLexical {
		return "lexical"
	}
	return "dynamic"
}

// VM evaluates syntax trees against an Env. A VM runs one evaluation at a
// time; it must not be shared between goroutines.
type VM struct {
	env    *Env
	ctx    *Ctx
	policy ScopePolicy
	div    DivisionPolicy
}

func NewVM(env *Env, ctx *Ctx, policy ScopePolicy, div DivisionPolicy) *VM {
	return &VM{env: env, ctx: ctx, policy: policy, div: div}
}

// Run evaluates every statement of prog in the context's current scope and
// returns the value of the last one. A top level return ends the run early.
func (vm *VM) Run(prog *Program) (Value, *RuntimeError) {
	last := Null()
	for _, st := range prog.Stmts {
		o := vm.eval(st)
		if o.Err != nil {
			return Null(), o.Err
		}
		switch o.Sig {
		case SigReturn:
			return o.Val, nil
		case SigBreak, SigContinue:
			return Null(), vm.ctx.errAt(ErrControl, o.at, "'%s' outside of a loop", o.Sig)
		}
		last = o.Val
	}
	return last, nil
}

func (vm *VM) fail(n Node, kind ErrKind, format string, args ...any) Outcome {
	return errOut(vm.ctx.errAt(kind, spanOf(n), format, args...))
}

// failWith converts an error from the value layer into a runtime failure.
func (vm *VM) failWith(n Node, err error) Outcome {
	var rt *RuntimeError
	var oe *opError
	var ce *CoercionError
	switch {
	case errors.As(err, &rt):
		if len(rt.Trace) == 0 {
			return vm.fail(n, rt.Kind, "%s", rt.Msg)
		}
		return errOut(rt)
	case errors.As(err, &oe):
		return vm.fail(n, oe.kind, "%s", oe.msg)
	case errors.As(err, &ce):
		return vm.fail(n, ErrCoercion, "%s", ce.Error())
	}
	return vm.fail(n, ErrNative, "%s", err.Error())
}

func (vm *VM) eval(n Node) Outcome {
	if err := vm.ctx.tick(n); err != nil {
		return errOut(err)
	}
	if err := vm.ctx.descend(n); err != nil {
		return errOut(err)
	}
	defer vm.ctx.ascend()
	scope := vm.ctx.Scope()

	switch e := n.(type) {
	case *BoolLit:
		return okOut(Bool(e.V))
	case *NumLit:
		switch e.Kind {
		case INT:
			return okOut(Int(int32(e.I)))
		case LONG:
			return okOut(Long(e.I))
		default:
			return okOut(Double(e.D))
		}
	case *StrLit:
		return okOut(Str(e.V))
	case *CharLit:
		return okOut(Char(e.V))
	case *ArrayLit:
		vals, o := vm.evalAll(e.Elems)
		if o.Stopped() {
			return o
		}
		if err := vm.chkList(e, len(vals)); err.Stopped() {
			return err
		}
		return okOut(Array(vals))
	case *ObjectLit:
		keys := make([]string, 0, len(e.Entries))
		fields := make(map[string]Value, len(e.Entries))
		for _, ent := range e.Entries {
			o := vm.eval(ent.Val)
			if o.Stopped() {
				return o
			}
			if _, dup := fields[ent.Key]; !dup {
				keys = append(keys, ent.Key)
			}
			fields[ent.Key] = o.Val
		}
		return okOut(Obj("", keys, fields))
	case *VarAccess:
		v, ok := vm.env.Lookup(scope, e.Name)
		if !ok {
			return vm.fail(e, ErrUndefined, "'%s' is not defined", e.Name)
		}
		return okOut(v)
	case *VarDeclare:
		if err := vm.env.declare(scope, e.Name, Null(), e.Const); err != nil {
			return vm.bindFail(e, e.Name, err)
		}
		return okOut(Null())
	case *VarAssign:
		if vm.env.ContainsHere(scope, e.Name) {
			return vm.bindFail(e, e.Name, errNameTaken)
		}
		o := vm.eval(e.Val)
		if o.Stopped() {
			return o
		}
		if err := vm.env.declare(scope, e.Name, o.Val, e.Const); err != nil {
			return vm.bindFail(e, e.Name, err)
		}
		return o
	case *VarReassign:
		return vm.evalReassign(scope, e)
	case *VarDelete:
		v, ok := vm.env.Lookup(scope, e.Name)
		if !ok {
			return vm.fail(e, ErrUndefined, "variable '%s' is not defined", e.Name)
		}
		if err := vm.env.Delete(scope, e.Name); err != nil {
			return vm.bindFail(e, e.Name, err)
		}
		return okOut(v)
	case *Unary:
		return vm.evalUnary(e)
	case *Binary:
		return vm.evalBinary(e)
	case *FnDef:
		return vm.evalFnDef(scope, e)
	case *Param:
		return vm.fail(e, ErrParams, "parameter '%s' outside of a function definition", e.Name)
	case *Call:
		return vm.evalCall(e)
	case *Index:
		x, idx, o := vm.evalPair(e.X, e.Idx)
		if o.Stopped() {
			return o
		}
		return vm.index(e, x, idx)
	case *Member:
		o := vm.eval(e.X)
		if o.Stopped() {
			return o
		}
		return vm.member(e, o.Val)
	case *Return:
		if e.Val == nil {
			return sigOut(SigReturn, Null(), spanOf(e))
		}
		o := vm.eval(e.Val)
		if o.Stopped() {
			return o
		}
		return sigOut(SigReturn, o.Val, spanOf(e))
	case *Break:
		return sigOut(SigBreak, Null(), spanOf(e))
	case *Continue:
		return sigOut(SigContinue, Null(), spanOf(e))
	case *Scope:
		child := vm.env.Push(scope)
		vm.ctx.setScope(child)
		o := vm.block(e.Stmts)
		vm.ctx.setScope(scope)
		vm.env.Release(child)
		return o
	}
	return vm.fail(n, ErrControl, "unsupported node %T", n)
}

func (vm *VM) bindFail(n Node, name string, err error) Outcome {
	switch {
	case errors.Is(err, errNameTaken):
		return vm.fail(n, ErrRedeclared, "variable '%s' is already defined in this scope", name)
	case errors.Is(err, errNameMissing):
		return vm.fail(n, ErrUndefined, "variable '%s' is not defined", name)
	case errors.Is(err, errConst):
		return vm.fail(n, ErrImmutable, "'%s' is constant", name)
	case errors.Is(err, errFrozen):
		return vm.fail(n, ErrImmutable, "'%s' belongs to an immutable scope", name)
	}
	return vm.failWith(n, err)
}

func (vm *VM) evalReassign(scope ScopeID, e *VarReassign) Outcome {
	cur, ok := vm.env.Lookup(scope, e.Name)
	if !ok {
		return vm.fail(e, ErrUndefined, "variable '%s' is not defined", e.Name)
	}
	o := vm.eval(e.Val)
	if o.Stopped() {
		return o
	}
	v := o.Val
	if e.Op != EOF {
		res, err := Arith(e.Op, cur, v, vm.div, vm.ctx.Lim.MaxStr)
		if err != nil {
			return vm.failWith(e, err)
		}
		if c := vm.chkStr(e, res); c.Stopped() {
			return c
		}
		v = res
	}
	// the right hand side may have deleted the name
	if err := vm.env.Assign(vm.ctx.Scope(), e.Name, v); err != nil {
		return vm.bindFail(e, e.Name, err)
	}
	return okOut(v)
}

func (vm *VM) evalUnary(e *Unary) Outcome {
	o := vm.eval(e.X)
	if o.Stopped() {
		return o
	}
	x := o.Val
	switch e.Op {
	case PLUS:
		v, err := unaryNumber(x)
		if err != nil {
			return vm.failWith(e, err)
		}
		return okOut(v)
	case MINUS:
		v, err := Negate(x)
		if err != nil {
			return vm.failWith(e, err)
		}
		return okOut(v)
	case NOT:
		if x.K != VBool {
			return vm.failWith(e, &CoercionError{From: x.TypeName(), To: VBool})
		}
		return okOut(Bool(!x.B))
	}
	return vm.fail(e, ErrOperand, "unknown unary operator '%s'", e.Op)
}

func (vm *VM) evalBinary(e *Binary) Outcome {
	switch e.Op {
	case AND, OR:
		lo := vm.eval(e.Left)
		if lo.Stopped() {
			return lo
		}
		if lo.Val.Truthy() == (e.Op == OR) {
			return okOut(Bool(e.Op == OR))
		}
		ro := vm.eval(e.Right)
		if ro.Stopped() {
			return ro
		}
		return okOut(Bool(ro.Val.Truthy()))
	}

	l, r, o := vm.evalPair(e.Left, e.Right)
	if o.Stopped() {
		return o
	}

	switch e.Op {
	case EQ:
		return okOut(Bool(Equal(l, r)))
	case NE:
		return okOut(Bool(!Equal(l, r)))
	case LT, LE, GT, GE:
		c, ok := Compare(l, r)
		if !ok {
			return vm.fail(e, ErrOperand, "cannot compare '%s' and '%s' with '%s'", l.TypeName(), r.TypeName(), e.Op)
		}
		if isNaN(l) || isNaN(r) {
			return okOut(Bool(false))
		}
		switch e.Op {
		case LT:
			return okOut(Bool(c < 0))
		case LE:
			return okOut(Bool(c <= 0))
		case GT:
			return okOut(Bool(c > 0))
		default:
			return okOut(Bool(c >= 0))
		}
	}

	v, err := Arith(e.Op, l, r, vm.div, vm.ctx.Lim.MaxStr)
	if err != nil {
		return vm.failWith(e, err)
	}
	return vm.chkStr(e, v)
}

func (vm *VM) evalFnDef(scope ScopeID, e *FnDef) Outcome {
	if vm.env.ContainsHere(scope, e.Name) {
		return vm.bindFail(e, e.Name, errNameTaken)
	}
	params := make([]FnParam, 0, len(e.Params))
	seen := map[string]bool{}
	sawDefault := false
	for i, p := range e.Params {
		if seen[p.Name] {
			return vm.fail(p, ErrParams, "duplicate parameter '%s'", p.Name)
		}
		seen[p.Name] = true
		if p.Spread {
			if i != len(e.Params)-1 {
				for _, q := range e.Params[i+1:] {
					if q.Spread {
						return vm.fail(q, ErrParams, "unexpected spread operator: already found one")
					}
				}
				return vm.fail(p, ErrParams, "spread parameter '%s' must be last", p.Name)
			}
			if p.Default != nil {
				return vm.fail(p, ErrParams, "spread parameter '%s' cannot have a default", p.Name)
			}
			params = append(params, FnParam{Name: p.Name, Spread: true})
			continue
		}
		if p.Default == nil {
			if sawDefault {
				return vm.fail(p, ErrParams, "unexpected required parameter '%s' after default parameter", p.Name)
			}
			params = append(params, FnParam{Name: p.Name})
			continue
		}
		sawDefault = true
		o := vm.eval(p.Default)
		if o.Stopped() {
			return o
		}
		def := o.Val
		params = append(params, FnParam{Name: p.Name, Default: &def})
	}

	fn := &Func{Name: e.Name, Params: params, Body: e.Body, Scope: scope, Pos: e.Pos()}
	if vm.policy == ScopeLexical {
		vm.env.Capture(scope)
	}
	v := Fn(fn)
	if err := vm.env.Declare(scope, e.Name, v); err != nil {
		return vm.bindFail(e, e.Name, err)
	}
	return okOut(v)
}

func (vm *VM) evalCall(e *Call) Outcome {
	co := vm.eval(e.Callee)
	if co.Stopped() {
		return co
	}
	callee := co.Val
	if callee.K != VFunc && callee.K != VNative {
		return vm.fail(e, ErrNotFunction, "'%s' is not a function", calleeName(e.Callee, callee))
	}
	args, o := vm.evalAll(e.Args)
	if o.Stopped() {
		return o
	}
	return vm.call(e, callee, args)
}

// call invokes a function value. site is the node blamed for arity and
// depth failures.
func (vm *VM) call(site Node, callee Value, args []Value) Outcome {
	if callee.K == VNative {
		nf := callee.NF
		if len(args) < nf.Min || (nf.Max >= 0 && len(args) > nf.Max) {
			return vm.fail(site, ErrArgCount, "%s: %s", nf.Name, arityMsg(nf.Min, nf.Max, len(args)))
		}
		v, err := nf.Fn(vm.ctx, site.Pos(), args)
		if err != nil {
			return vm.failWith(site, err)
		}
		return okOut(v)
	}

	fn := callee.F
	lo, hi := fn.Arity()
	if len(args) < lo || (hi >= 0 && len(args) > hi) {
		return vm.fail(site, ErrArgCount, "%s: %s", fn.Name, arityMsg(lo, hi, len(args)))
	}

	parent := vm.ctx.Scope()
	if vm.policy == ScopeLexical {
		parent = fn.Scope
	}
	sc := vm.env.Push(parent)
	defer vm.env.Release(sc)

	for i, p := range fn.Params {
		var v Value
		switch {
		case p.Spread:
			rest := []Value{}
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			if c := vm.chkList(site, len(rest)); c.Stopped() {
				return c
			}
			v = Array(rest)
		case i < len(args):
			v = args[i]
		default:
			v = *p.Default
		}
		if err := vm.env.Declare(sc, p.Name, v); err != nil {
			return vm.bindFail(site, p.Name, err)
		}
	}

	if err := vm.ctx.enter(fn.Name, site.Pos(), sc); err != nil {
		return errOut(err)
	}
	defer vm.ctx.leave()

	if fn.Body == nil {
		return okOut(Null())
	}
	o := vm.block(fn.Body.Stmts)
	switch {
	case o.Err != nil:
		return o
	case o.Sig == SigReturn:
		return okOut(o.Val)
	case o.Sig != SigNone:
		return errOut(vm.ctx.errAt(ErrControl, o.at, "'%s' outside of a loop", o.Sig))
	}
	return okOut(Null())
}

// Call invokes a function value from native code, such as a host callback.
func (vm *VM) Call(pos Pos, callee Value, args []Value) (Value, error) {
	if callee.K != VFunc && callee.K != VNative {
		return Null(), vm.ctx.errAt(ErrNotFunction, Span{Start: pos}, "'%s' is not a function", callee.Repr())
	}
	site := &VarAccess{span: span{pos, pos}, Name: callee.Repr()}
	o := vm.call(site, callee, args)
	if o.Err != nil {
		return Null(), o.Err
	}
	return o.Val, nil
}

func calleeName(n Node, v Value) string {
	if va, ok := n.(*VarAccess); ok {
		return va.Name
	}
	return v.Repr()
}

func arityMsg(lo, hi, got int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("expected at least %d args, instead got %d", lo, got)
	case lo == hi:
		return fmt.Sprintf("expected %d args, instead got %d", lo, got)
	}
	return fmt.Sprintf("expected %d to %d args, instead got %d", lo, hi, got)
}

func (vm *VM) index(e *Index, x, idx Value) Outcome {
	switch x.K {
	case VArray:
		i, ok := intIndex(idx)
		if !ok {
			return vm.fail(e.Idx, ErrOperand, "array index must be an integer, got '%s'", idx.TypeName())
		}
		if i < 0 || i >= int64(len(x.A)) {
			return vm.fail(e, ErrIndex, "index %d out of range for array of length %d", i, len(x.A))
		}
		return okOut(x.A[i])
	case VString:
		i, ok := intIndex(idx)
		if !ok {
			return vm.fail(e.Idx, ErrOperand, "string index must be an integer, got '%s'", idx.TypeName())
		}
		n := int64(utf8.RuneCountInString(x.S))
		if i < 0 || i >= n {
			return vm.fail(e, ErrIndex, "index %d out of range for string of length %d", i, n)
		}
		return okOut(Char([]rune(x.S)[i]))
	case VObject:
		key := idx.String()
		if idx.K == VDouble {
			key = strconv.FormatFloat(idx.D, 'g', -1, 64)
		}
		v, ok := x.O.Get(key)
		if !ok {
			return okOut(Null())
		}
		return okOut(v)
	}
	return vm.fail(e, ErrOperand, "cannot index a value of type '%s'", x.TypeName())
}

func (vm *VM) member(e *Member, x Value) Outcome {
	switch x.K {
	case VObject:
		v, ok := x.O.Get(e.Name)
		if !ok {
			return okOut(Null())
		}
		return okOut(v)
	case VArray:
		if e.Name == "length" {
			return okOut(Int(int32(len(x.A))))
		}
	case VString:
		if e.Name == "length" {
			return okOut(Int(int32(utf8.RuneCountInString(x.S))))
		}
	}
	return vm.fail(e, ErrOperand, "'%s' has no member '%s'", x.TypeName(), e.Name)
}

func intIndex(v Value) (int64, bool) {
	switch v.K {
	case VInt, VLong:
		return v.I, true
	case VDouble:
		if v.D == math.Trunc(v.D) {
			return int64(v.D), true
		}
	}
	return 0, false
}

func (vm *VM) chkStr(n Node, v Value) Outcome {
	if v.K == VString && vm.ctx.Lim.MaxStr > 0 && len(v.S) > vm.ctx.Lim.MaxStr {
		return vm.fail(n, ErrExhausted, "string longer than %d bytes", vm.ctx.Lim.MaxStr)
	}
	return okOut(v)
}

func (vm *VM) chkList(n Node, size int) Outcome {
	if vm.ctx.Lim.MaxList > 0 && size > vm.ctx.Lim.MaxList {
		return vm.fail(n, ErrExhausted, "array longer than %d elements", vm.ctx.Lim.MaxList)
	}
	return Outcome{}
}
