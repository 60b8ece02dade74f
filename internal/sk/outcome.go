package sk

// Signal is a non-local exit travelling up through evaluation.
type Signal int

const (
	SigNone Signal = iota
	SigReturn
	SigBreak
	SigContinue
)

func (s Signal) String() string {
	switch s {
	case SigReturn:
		return "return"
	case SigBreak:
		return "break"
	case SigContinue:
		return "continue"
	default:
		return "none"
	}
}

// Outcome is the result of evaluating one node. Exactly one of these holds:
// Err is set (failure), Sig is not SigNone (early return with Val, or loop
// control), or neither (success with Val).
type Outcome struct {
	Val Value
	Err *RuntimeError
	Sig Signal

	at Span
}

func okOut(v Value) Outcome {
	return Outcome{Val: v}
}

func errOut(e *RuntimeError) Outcome {
	return Outcome{Err: e}
}

func sigOut(s Signal, v Value, at Span) Outcome {
	return Outcome{Val: v, Sig: s, at: at}
}

// Stopped reports whether evaluation of the enclosing construct must stop
// and hand this outcome upward unchanged.
func (o Outcome) Stopped() bool {
	return o.Err != nil || o.Sig != SigNone
}

// evalAll evaluates nodes left to right. On the first stopped outcome it
// returns that outcome and no values.
func (vm *VM) evalAll(nodes []Node) ([]Value, Outcome) {
	out := make([]Value, 0, len(nodes))
	for _, n := range nodes {
		o := vm.eval(n)
		if o.Stopped() {
			return nil, o
		}
		out = append(out, o.Val)
	}
	return out, Outcome{}
}

// evalPair evaluates left then right, stopping at the first failure.
func (vm *VM) evalPair(l, r Node) (Value, Value, Outcome) {
	lo := vm.eval(l)
	if lo.Stopped() {
		return Null(), Null(), lo
	}
	ro := vm.eval(r)
	if ro.Stopped() {
		return Null(), Null(), ro
	}
	return lo.Val, ro.Val, Outcome{}
}

// block runs statements in order and yields the last value, stopping at the
// first stopped outcome.
func (vm *VM) block(stmts []Node) Outcome {
	last := Null()
	for _, st := range stmts {
		o := vm.eval(st)
		if o.Stopped() {
			return o
		}
		last = o.Val
	}
	return okOut(last)
}
