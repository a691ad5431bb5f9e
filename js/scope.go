// Copyright © 2024 The ELPS authors

package js

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// DeclKind is the declaration keyword that introduced a binding.
type DeclKind uint

// Possible DeclKind values.
const (
	DeclVar DeclKind = iota
	DeclLet
	DeclConst
)

var declKindStrings = []string{
	DeclVar:   "var",
	DeclLet:   "let",
	DeclConst: "const",
}

func (k DeclKind) String() string {
	if int(k) >= len(declKindStrings) {
		return "invalid"
	}
	return declKindStrings[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k DeclKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ScopeKind distinguishes the global scope from function and block scopes.
type ScopeKind uint

// Possible ScopeKind values.
const (
	GlobalScope ScopeKind = iota
	FunctionScope
	BlockScope
)

var scopeKindStrings = []string{
	GlobalScope:   "global",
	FunctionScope: "function",
	BlockScope:    "block",
}

func (k ScopeKind) String() string {
	if int(k) >= len(scopeKindStrings) {
		return "invalid"
	}
	return scopeKindStrings[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k ScopeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Variable is a named binding.  A let or const binding that has been
// declared but not initialized is in its temporal dead zone.
type Variable struct {
	Name        string   `json:"name" yaml:"name"`
	Value       Value    `json:"value" yaml:"value"`
	Kind        DeclKind `json:"kind" yaml:"kind"`
	Initialized bool     `json:"initialized" yaml:"initialized"`
}

// Scope is one lexical environment.  Bindings are kept in declaration order.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Name   string
	Parent *Scope
	vars   *linkedhashmap.Map
}

// NewScope returns an empty scope chained to parent.  Only the global scope
// has a nil parent.
func NewScope(id ScopeID, kind ScopeKind, name string, parent *Scope) *Scope {
	return &Scope{
		ID:     id,
		Kind:   kind,
		Name:   name,
		Parent: parent,
		vars:   linkedhashmap.New(),
	}
}

func (s *Scope) local(name string) (*Variable, bool) {
	v, ok := s.vars.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Variable), true
}

func (s *Scope) resolve(name string) *Variable {
	for scope := s; scope != nil; scope = scope.Parent {
		if v, ok := scope.local(name); ok {
			return v
		}
	}
	return nil
}

// functionScope returns the nearest enclosing function or global scope,
// where var bindings live.
func (s *Scope) functionScope() *Scope {
	scope := s
	for scope.Kind == BlockScope && scope.Parent != nil {
		scope = scope.Parent
	}
	return scope
}

// Declare introduces an uninitialized binding.  A var binding is installed
// in the nearest function or global scope and redeclaring it is a no-op.  A
// let or const binding is installed in s and enters its temporal dead zone;
// a name already bound in s is a DuplicateDeclaration.
func (s *Scope) Declare(name string, kind DeclKind) error {
	if kind == DeclVar {
		target := s.functionScope()
		if _, ok := target.local(name); ok {
			return nil
		}
		target.vars.Put(name, &Variable{Name: name, Value: Undefined(), Kind: DeclVar})
		return nil
	}
	if _, ok := s.local(name); ok {
		return errDuplicate(name)
	}
	s.vars.Put(name, &Variable{Name: name, Value: Undefined(), Kind: kind})
	return nil
}

// DeclareValue executes a declaration that binds name to v.  A let or const
// binding hoisted into s by Declare leaves its temporal dead zone; any other
// existing let or const binding of the name in s is a DuplicateDeclaration.
func (s *Scope) DeclareValue(name string, kind DeclKind, v Value) error {
	if kind == DeclVar {
		target := s.functionScope()
		if x, ok := target.local(name); ok {
			if x.Kind != DeclVar {
				return errDuplicate(name)
			}
			x.Value = v
			x.Initialized = true
			return nil
		}
		target.vars.Put(name, &Variable{Name: name, Value: v, Kind: DeclVar, Initialized: true})
		return nil
	}
	if x, ok := s.local(name); ok {
		if x.Initialized || x.Kind != kind {
			return errDuplicate(name)
		}
		x.Value = v
		x.Initialized = true
		return nil
	}
	s.vars.Put(name, &Variable{Name: name, Value: v, Kind: kind, Initialized: true})
	return nil
}

// Assign writes v to the nearest binding of name.
func (s *Scope) Assign(name string, v Value) error {
	x := s.resolve(name)
	if x == nil {
		return errNotDefined(name)
	}
	if !x.Initialized && x.Kind != DeclVar {
		return errUninitialized(name)
	}
	if x.Kind == DeclConst {
		return errConstAssign(name)
	}
	x.Value = v
	x.Initialized = true
	return nil
}

// Get reads the nearest binding of name.  An uninitialized var reads as
// undefined while an uninitialized let or const is an UninitializedAccess.
func (s *Scope) Get(name string) (Value, error) {
	x := s.resolve(name)
	if x == nil {
		return Undefined(), errNotDefined(name)
	}
	if !x.Initialized && x.Kind != DeclVar {
		return Undefined(), errUninitialized(name)
	}
	return x.Value, nil
}

// Lookup returns a copy of the nearest binding of name without enforcing
// the temporal dead zone.
func (s *Scope) Lookup(name string) (Variable, bool) {
	x := s.resolve(name)
	if x == nil {
		return Variable{}, false
	}
	return *x, true
}

// Variables returns a copy of the bindings of s in declaration order.
func (s *Scope) Variables() []Variable {
	vars := make([]Variable, 0, s.vars.Size())
	it := s.vars.Iterator()
	for it.Next() {
		vars = append(vars, *it.Value().(*Variable))
	}
	return vars
}

// Len returns the number of bindings in s.
func (s *Scope) Len() int {
	return s.vars.Size()
}

// ScopeData is the frozen state of one scope.
type ScopeData struct {
	ID        ScopeID    `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Kind      ScopeKind  `json:"type" yaml:"type"`
	Variables []Variable `json:"variables" yaml:"variables"`
	ParentID  *ScopeID   `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}

// Variable returns the frozen binding of name in d.
func (d *ScopeData) Variable(name string) (Variable, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// ScopeSnapshot is the frozen scope chain of a step, nearest scope first.
type ScopeSnapshot struct {
	Scopes  []ScopeData `json:"scopes" yaml:"scopes"`
	Current ScopeID     `json:"currentScopeId" yaml:"currentScopeId"`
}

// Lookup resolves name through the frozen chain the way Scope.Lookup does
// through the live one.
func (ss ScopeSnapshot) Lookup(name string) (Variable, bool) {
	for i := range ss.Scopes {
		if v, ok := ss.Scopes[i].Variable(name); ok {
			return v, true
		}
	}
	return Variable{}, false
}

func (s *Scope) data() ScopeData {
	d := ScopeData{
		ID:        s.ID,
		Name:      s.Name,
		Kind:      s.Kind,
		Variables: s.Variables(),
	}
	if s.Parent != nil {
		id := s.Parent.ID
		d.ParentID = &id
	}
	return d
}

// Snapshot copies s and every ancestor of s, nearest first.  The result
// shares no storage with the live scopes.
func (s *Scope) Snapshot() ScopeSnapshot {
	snap := ScopeSnapshot{Current: s.ID}
	for scope := s; scope != nil; scope = scope.Parent {
		snap.Scopes = append(snap.Scopes, scope.data())
	}
	return snap
}
