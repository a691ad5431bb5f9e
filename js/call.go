// Copyright © 2024 The ELPS authors

package js

import (
	"fmt"
	"strings"

	"github.com/dop251/goja/ast"
)

const anonymous = "anonymous"

func (st *runState) evalCall(n *ast.CallExpression) (Value, error) {
	if dot, ok := n.Callee.(*ast.DotExpression); ok && dot.Identifier.Name.String() == "setAttribute" {
		if handled, err := st.setAttributeDOM(n, dot.Left); handled || err != nil {
			return Undefined(), err
		}
	}
	switch n.Callee.(type) {
	case *ast.DotExpression, *ast.BracketExpression:
		switch rootName(n.Callee) {
		case "console":
			return Undefined(), nil
		case "document":
			// one step for the whole chain, e.g. document.body.append(x)
			return Undefined(), st.record(StepCall, domSkipped, n)
		}
	}

	fn, name, err := st.callee(n.Callee)
	if err != nil {
		return Undefined(), err
	}
	if fn == nil {
		return Undefined(), st.record(StepCall, fmt.Sprintf("Call %s() (not found)", name), n)
	}
	args, err := st.arguments(n.ArgumentList)
	if err != nil {
		return Undefined(), err
	}
	return st.call(fn, name, args, n)
}

// callee resolves the function a call invokes.  A nil object with a nil
// error means the callee does not name a function.
func (st *runState) callee(expr ast.Expression) (*HeapObject, string, error) {
	var (
		v    Value
		name string
	)
	switch n := expr.(type) {
	case *ast.Identifier:
		name = n.Name.String()
		x, ok := st.scope.Lookup(name)
		if !ok {
			return nil, name, nil
		}
		if !x.Initialized && x.Kind != DeclVar {
			return nil, name, errUninitialized(name)
		}
		v = x.Value
	case *ast.DotExpression, *ast.BracketExpression:
		name = calleeName(expr)
		obj, key, ok, err := st.memberTarget(expr)
		if err != nil || !ok {
			return nil, name, err
		}
		v = st.member(obj, key)
	default:
		var err error
		if v, err = st.eval(expr); err != nil {
			return nil, anonymous, err
		}
		name = anonymous
		if v.Kind == VReference {
			if obj := st.mem.Object(v.Ref); obj != nil && obj.Name != "" {
				name = obj.Name
			}
		}
	}
	if v.Kind != VReference {
		return nil, name, nil
	}
	obj := st.mem.Object(v.Ref)
	if obj == nil || obj.Type != TypeFunction || obj.Func == nil {
		return nil, name, nil
	}
	return obj, name, nil
}

// memberTarget evaluates the object and key of a member expression.  An
// unbound identifier at the root of the expression yields ok == false
// instead of a ReferenceError.
func (st *runState) memberTarget(expr ast.Expression) (obj Value, key string, ok bool, err error) {
	var left ast.Expression
	switch n := expr.(type) {
	case *ast.DotExpression:
		left = n.Left
		key = n.Identifier.Name.String()
	case *ast.BracketExpression:
		left = n.Left
		k, err := st.eval(n.Member)
		if err != nil {
			return Undefined(), "", false, err
		}
		key = st.toString(k)
	default:
		return Undefined(), "", false, nil
	}
	if id, isIdent := left.(*ast.Identifier); isIdent {
		if _, bound := st.scope.Lookup(id.Name.String()); !bound {
			return Undefined(), key, false, nil
		}
	}
	obj, err = st.eval(left)
	if err != nil {
		return Undefined(), "", false, err
	}
	return obj, key, true, nil
}

// rootName returns the identifier a chain of member accesses and calls
// starts from, or "" when the chain starts from anything else.
func rootName(expr ast.Expression) string {
	for {
		switch n := expr.(type) {
		case *ast.Identifier:
			return n.Name.String()
		case *ast.DotExpression:
			expr = n.Left
		case *ast.BracketExpression:
			expr = n.Left
		case *ast.CallExpression:
			expr = n.Callee
		default:
			return ""
		}
	}
}

// calleeName renders a member callee as a dotted path, e.g. Math.max.
func calleeName(expr ast.Expression) string {
	switch n := expr.(type) {
	case *ast.Identifier:
		return n.Name.String()
	case *ast.DotExpression:
		return calleeName(n.Left) + "." + n.Identifier.Name.String()
	case *ast.BracketExpression:
		var key string
		switch m := n.Member.(type) {
		case *ast.StringLiteral:
			key = m.Value.String()
		case *ast.NumberLiteral:
			key = m.Literal
		case *ast.Identifier:
			key = m.Name.String()
		default:
			key = "..."
		}
		return calleeName(n.Left) + "[" + key + "]"
	case *ast.CallExpression:
		return calleeName(n.Callee) + "()"
	}
	return anonymous
}

func (st *runState) arguments(list []ast.Expression) ([]Value, error) {
	var args []Value
	for _, e := range list {
		if spread, ok := e.(*ast.SpreadElement); ok {
			v, err := st.eval(spread.Expression)
			if err != nil {
				return nil, err
			}
			args = append(args, st.spread(v)...)
			continue
		}
		v, err := st.eval(e)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// call invokes fn.  The frame pushed for the call records the line of the
// call site as its return address.
func (st *runState) call(obj *HeapObject, name string, args []Value, node ast.Node) (Value, error) {
	if st.calls >= st.interp.maxCallDepth {
		return Undefined(), errCallStack()
	}
	st.calls++
	defer func() { st.calls-- }()

	fn := obj.Func
	scope := st.newScope(FunctionScope, name, fn.Scope)
	prev := st.scope
	st.scope = scope
	defer func() { st.scope = prev }()

	for i, p := range fn.Params {
		v := Undefined()
		if i < len(args) {
			v = args[i]
		}
		if v.IsUndefined() && fn.Defaults[i] != nil {
			var err error
			if v, err = st.eval(fn.Defaults[i]); err != nil {
				return Undefined(), err
			}
		}
		// parameters are var bindings, a var or function of the same
		// name in the body rebinds them
		if err := scope.DeclareValue(p, DeclVar, v); err != nil {
			return Undefined(), err
		}
	}

	pos := st.prog.NodePosition(node)
	st.mem.PushFrame(name, scope.ID, pos.Line)
	if err := st.hoistVars(scope, fn.Body); err != nil {
		return Undefined(), err
	}
	if err := st.hoistLexical(scope, fn.Body); err != nil {
		return Undefined(), err
	}
	formatted := make([]string, len(args))
	for i, a := range args {
		formatted[i] = a.Format()
	}
	desc := fmt.Sprintf("Call %s(%s)", name, strings.Join(formatted, ", "))
	if err := st.record(StepCall, desc, node); err != nil {
		return Undefined(), err
	}

	end := st.profile(name, fn, pos.Line, pos.Column)
	if err := st.hoistFunctions(fn.Body); err != nil {
		end()
		return Undefined(), err
	}
	c, err := st.execList(fn.Body)
	end()
	if err != nil {
		return Undefined(), err
	}

	st.mem.PopFrame()
	st.scope = prev
	ret := Undefined()
	if c.returned {
		ret = c.value
	}
	desc = fmt.Sprintf("Return %s from %s", ret.Format(), name)
	if err := st.record(StepReturn, desc, node); err != nil {
		return Undefined(), err
	}
	return ret, nil
}

func (st *runState) profile(name string, fn *Function, line, col int) func() {
	p := st.interp.profiler
	if p == nil || !p.IsEnabled() {
		return func() {}
	}
	return p.Start(&CallInfo{
		Name:   name,
		Params: fn.Params,
		File:   st.prog.Name,
		Line:   line,
		Column: col,
		Depth:  st.mem.Depth(),
	})
}
