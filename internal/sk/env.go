package sk

import (
	"errors"
	"sort"
)

// ScopeID addresses a scope record inside an Env arena.
type ScopeID int

const NoScope ScopeID = -1

type Binding struct {
	V     Value
	Const bool
}

var (
	errNameTaken   = errors.New("already defined in this scope")
	errNameMissing = errors.New("not defined")
	errFrozen      = errors.New("scope is immutable")
	errConst       = errors.New("binding is constant")
)

type scopeRec struct {
	parent    ScopeID
	vars      map[string]Binding
	immutable bool
	captured  bool
}

// Env is an arena of scope records. Each record points at its parent by
// index, so scopes opened per call or block can be recycled without
// tracking ownership. Env is not safe for concurrent use.
type Env struct {
	recs []scopeRec
	free []ScopeID
}

func NewEnv() *Env {
	return &Env{}
}

// Push opens a scope chained to parent (NoScope for a root).
func (e *Env) Push(parent ScopeID) ScopeID {
	if n := len(e.free); n > 0 {
		id := e.free[n-1]
		e.free = e.free[:n-1]
		e.recs[id] = scopeRec{parent: parent, vars: map[string]Binding{}}
		return id
	}
	e.recs = append(e.recs, scopeRec{parent: parent, vars: map[string]Binding{}})
	return ScopeID(len(e.recs) - 1)
}

// Release recycles a scope unless a function value captured it.
func (e *Env) Release(id ScopeID) {
	if !e.valid(id) || e.recs[id].captured {
		return
	}
	e.recs[id] = scopeRec{parent: NoScope}
	e.free = append(e.free, id)
}

// Capture pins id and its ancestors so Release leaves them alone.
func (e *Env) Capture(id ScopeID) {
	for cur := id; e.valid(cur); cur = e.recs[cur].parent {
		if e.recs[cur].captured {
			return
		}
		e.recs[cur].captured = true
	}
}

func (e *Env) Freeze(id ScopeID) {
	if e.valid(id) {
		e.recs[id].immutable = true
	}
}

func (e *Env) Parent(id ScopeID) ScopeID {
	if !e.valid(id) {
		return NoScope
	}
	return e.recs[id].parent
}

func (e *Env) Live() int {
	return len(e.recs) - len(e.free)
}

func (e *Env) valid(id ScopeID) bool {
	return id >= 0 && int(id) < len(e.recs)
}

func (e *Env) Declare(id ScopeID, name string, v Value) error {
	return e.declare(id, name, v, false)
}

func (e *Env) DeclareConst(id ScopeID, name string, v Value) error {
	return e.declare(id, name, v, true)
}

func (e *Env) declare(id ScopeID, name string, v Value, isConst bool) error {
	if !e.valid(id) {
		return errNameMissing
	}
	rec := &e.recs[id]
	if rec.immutable {
		return errFrozen
	}
	if _, ok := rec.vars[name]; ok {
		return errNameTaken
	}
	rec.vars[name] = Binding{V: v, Const: isConst}
	return nil
}

// define binds without checks, used to seed immutable scopes.
func (e *Env) define(id ScopeID, name string, v Value) {
	e.recs[id].vars[name] = Binding{V: v, Const: true}
}

// Assign rebinds name in the scope that owns it.
func (e *Env) Assign(id ScopeID, name string, v Value) error {
	owner := e.Owner(id, name)
	if owner == NoScope {
		return errNameMissing
	}
	rec := &e.recs[owner]
	if rec.immutable {
		return errFrozen
	}
	b := rec.vars[name]
	if b.Const {
		return errConst
	}
	rec.vars[name] = Binding{V: v}
	return nil
}

func (e *Env) Lookup(id ScopeID, name string) (Value, bool) {
	owner := e.Owner(id, name)
	if owner == NoScope {
		return Null(), false
	}
	return e.recs[owner].vars[name].V, true
}

func (e *Env) Contains(id ScopeID, name string) bool {
	return e.Owner(id, name) != NoScope
}

func (e *Env) ContainsHere(id ScopeID, name string) bool {
	if !e.valid(id) {
		return false
	}
	_, ok := e.recs[id].vars[name]
	return ok
}

// Owner returns the nearest scope binding name, walking outward from id.
func (e *Env) Owner(id ScopeID, name string) ScopeID {
	for cur := id; e.valid(cur); cur = e.recs[cur].parent {
		if _, ok := e.recs[cur].vars[name]; ok {
			return cur
		}
	}
	return NoScope
}

// Delete removes name from the scope that owns it.
func (e *Env) Delete(id ScopeID, name string) error {
	owner := e.Owner(id, name)
	if owner == NoScope {
		return errNameMissing
	}
	rec := &e.recs[owner]
	if rec.immutable {
		return errFrozen
	}
	if rec.vars[name].Const {
		return errConst
	}
	delete(rec.vars, name)
	return nil
}

// Names lists the bindings visible from id, nearest first, without
// duplicates.
func (e *Env) Names(id ScopeID) []string {
	seen := map[string]bool{}
	var out []string
	for cur := id; e.valid(cur); cur = e.recs[cur].parent {
		level := make([]string, 0, len(e.recs[cur].vars))
		for k := range e.recs[cur].vars {
			if !seen[k] {
				seen[k] = true
				level = append(level, k)
			}
		}
		sort.Strings(level)
		out = append(out, level...)
	}
	return out
}
