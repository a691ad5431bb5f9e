// Copyright © 2024 The ELPS authors

package js

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

func (st *runState) eval(expr ast.Expression) (Value, error) {
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		switch x := n.Value.(type) {
		case int64:
			return Number(float64(x)), nil
		case float64:
			return Number(x), nil
		}
		return Number(stringToNumber(n.Literal)), nil
	case *ast.StringLiteral:
		return String(n.Value.String()), nil
	case *ast.BooleanLiteral:
		return Bool(n.Value), nil
	case *ast.NullLiteral:
		return Null(), nil
	case *ast.Identifier:
		return st.identifier(n.Name.String())
	case *ast.BinaryExpression:
		return st.evalBinary(n)
	case *ast.UnaryExpression:
		return st.evalUnary(n)
	case *ast.AssignExpression:
		return st.evalAssign(n)
	case *ast.CallExpression:
		return st.evalCall(n)
	case *ast.DotExpression:
		obj, err := st.eval(n.Left)
		if err != nil {
			return Undefined(), err
		}
		return st.member(obj, n.Identifier.Name.String()), nil
	case *ast.BracketExpression:
		obj, err := st.eval(n.Left)
		if err != nil {
			return Undefined(), err
		}
		key, err := st.eval(n.Member)
		if err != nil {
			return Undefined(), err
		}
		return st.member(obj, st.toString(key)), nil
	case *ast.ArrayLiteral:
		return st.evalArray(n)
	case *ast.ObjectLiteral:
		return st.evalObject(n)
	case *ast.FunctionLiteral:
		name := "anonymous"
		if n.Name != nil {
			name = n.Name.Name.String()
		}
		return st.makeFunction(name, n.ParameterList, n.Body.List, n, n.Source), nil
	case *ast.ArrowFunctionLiteral:
		var body []ast.Statement
		switch b := n.Body.(type) {
		case *ast.BlockStatement:
			body = b.List
		case *ast.ExpressionBody:
			body = []ast.Statement{&ast.ReturnStatement{Return: b.Expression.Idx0(), Argument: b.Expression}}
		}
		return st.makeFunction("anonymous", n.ParameterList, body, n, n.Source), nil
	case *ast.ConditionalExpression:
		test, err := st.eval(n.Test)
		if err != nil {
			return Undefined(), err
		}
		if test.Truthy() {
			return st.eval(n.Consequent)
		}
		return st.eval(n.Alternate)
	case *ast.SequenceExpression:
		v := Undefined()
		for _, e := range n.Sequence {
			var err error
			if v, err = st.eval(e); err != nil {
				return Undefined(), err
			}
		}
		return v, nil
	}
	st.unsupported(fmt.Sprintf("%T", expr), expr)
	return Undefined(), nil
}

// identifier reads name.  The global value properties undefined, NaN and
// Infinity resolve even though no scope binds them.
func (st *runState) identifier(name string) (Value, error) {
	v, err := st.scope.Get(name)
	if err != nil && IsKind(err, ReferenceError) {
		switch name {
		case "undefined":
			return Undefined(), nil
		case "NaN":
			return Number(math.NaN()), nil
		case "Infinity":
			return Number(math.Inf(1)), nil
		}
	}
	return v, err
}

func (st *runState) evalBinary(n *ast.BinaryExpression) (Value, error) {
	left, err := st.eval(n.Left)
	if err != nil {
		return Undefined(), err
	}
	switch n.Operator {
	case token.LOGICAL_AND:
		if !left.Truthy() {
			return left, nil
		}
		return st.eval(n.Right)
	case token.LOGICAL_OR:
		if left.Truthy() {
			return left, nil
		}
		return st.eval(n.Right)
	case token.COALESCE:
		if !left.IsNullish() {
			return left, nil
		}
		return st.eval(n.Right)
	}
	right, err := st.eval(n.Right)
	if err != nil {
		return Undefined(), err
	}
	v, ok := st.binary(n.Operator, left, right)
	if !ok {
		st.unsupported("operator "+n.Operator.String(), n)
	}
	return v, nil
}

// binary applies a non-short-circuit binary operator.
func (st *runState) binary(op token.Token, a, b Value) (Value, bool) {
	switch op {
	case token.PLUS:
		if isStringy(a) || isStringy(b) {
			return String(st.toString(a) + st.toString(b)), true
		}
		return Number(a.ToNumber() + b.ToNumber()), true
	case token.MINUS:
		return Number(a.ToNumber() - b.ToNumber()), true
	case token.MULTIPLY:
		return Number(a.ToNumber() * b.ToNumber()), true
	case token.SLASH:
		return Number(a.ToNumber() / b.ToNumber()), true
	case token.REMAINDER:
		return Number(math.Mod(a.ToNumber(), b.ToNumber())), true
	case token.EXPONENT:
		return Number(math.Pow(a.ToNumber(), b.ToNumber())), true
	case token.EQUAL:
		return Bool(LooseEquals(a, b)), true
	case token.NOT_EQUAL:
		return Bool(!LooseEquals(a, b)), true
	case token.STRICT_EQUAL:
		return Bool(StrictEquals(a, b)), true
	case token.STRICT_NOT_EQUAL:
		return Bool(!StrictEquals(a, b)), true
	case token.LESS, token.GREATER, token.LESS_OR_EQUAL, token.GREATER_OR_EQUAL:
		return Bool(st.compare(op, a, b)), true
	case token.AND:
		return Number(float64(toInt32(a.ToNumber()) & toInt32(b.ToNumber()))), true
	case token.OR:
		return Number(float64(toInt32(a.ToNumber()) | toInt32(b.ToNumber()))), true
	case token.EXCLUSIVE_OR:
		return Number(float64(toInt32(a.ToNumber()) ^ toInt32(b.ToNumber()))), true
	case token.SHIFT_LEFT:
		return Number(float64(toInt32(a.ToNumber()) << (uint32(toInt32(b.ToNumber())) & 31))), true
	case token.SHIFT_RIGHT:
		return Number(float64(toInt32(a.ToNumber()) >> (uint32(toInt32(b.ToNumber())) & 31))), true
	case token.UNSIGNED_SHIFT_RIGHT:
		return Number(float64(uint32(toInt32(a.ToNumber())) >> (uint32(toInt32(b.ToNumber())) & 31))), true
	}
	return Undefined(), false
}

func isStringy(v Value) bool {
	return v.Kind == VString || v.Kind == VReference
}

func (st *runState) compare(op token.Token, a, b Value) bool {
	if isStringy(a) && isStringy(b) {
		x, y := st.toString(a), st.toString(b)
		switch op {
		case token.LESS:
			return x < y
		case token.GREATER:
			return x > y
		case token.LESS_OR_EQUAL:
			return x <= y
		}
		return x >= y
	}
	x, y := a.ToNumber(), b.ToNumber()
	if a.Kind == VReference {
		x = stringToNumber(st.toString(a))
	}
	if b.Kind == VReference {
		y = stringToNumber(st.toString(b))
	}
	switch op {
	case token.LESS:
		return x < y
	case token.GREATER:
		return x > y
	case token.LESS_OR_EQUAL:
		return x <= y
	}
	return x >= y
}

func toInt32(x float64) int32 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int32(uint32(int64(math.Mod(math.Trunc(x), 1<<32))))
}

func (st *runState) evalUnary(n *ast.UnaryExpression) (Value, error) {
	switch n.Operator {
	case token.INCREMENT, token.DECREMENT:
		return st.evalUpdate(n)
	case token.TYPEOF:
		if id, ok := n.Operand.(*ast.Identifier); ok {
			if _, found := st.scope.Lookup(id.Name.String()); !found {
				v, err := st.identifier(id.Name.String())
				if err != nil {
					return String("undefined"), nil
				}
				return String(st.typeOf(v)), nil
			}
		}
	}
	v, err := st.eval(n.Operand)
	if err != nil {
		return Undefined(), err
	}
	switch n.Operator {
	case token.NOT:
		return Bool(!v.Truthy()), nil
	case token.MINUS:
		return Number(-v.ToNumber()), nil
	case token.PLUS:
		return Number(v.ToNumber()), nil
	case token.BITWISE_NOT:
		return Number(float64(^toInt32(v.ToNumber()))), nil
	case token.VOID:
		return Undefined(), nil
	case token.TYPEOF:
		return String(st.typeOf(v)), nil
	}
	st.unsupported("operator "+n.Operator.String(), n)
	return Undefined(), nil
}

func (st *runState) typeOf(v Value) string {
	switch v.Kind {
	case VNull:
		return "object"
	case VReference:
		if obj := st.mem.Object(v.Ref); obj != nil && obj.Type == TypeFunction {
			return "function"
		}
		return "object"
	}
	return v.Kind.String()
}

// evalUpdate executes ++ and --.  Only identifier operands are updated.
func (st *runState) evalUpdate(n *ast.UnaryExpression) (Value, error) {
	id, ok := n.Operand.(*ast.Identifier)
	if !ok {
		st.unsupported("update of a non-identifier", n)
		return Undefined(), nil
	}
	name := id.Name.String()
	cur, err := st.scope.Get(name)
	if err != nil {
		return Undefined(), err
	}
	old := cur.ToNumber()
	next := old + 1
	if n.Operator == token.DECREMENT {
		next = old - 1
	}
	if err := st.scope.Assign(name, Number(next)); err != nil {
		return Undefined(), err
	}
	if err := st.record(StepAssignment, fmt.Sprintf("Update %s to %s", name, FormatNumber(next)), n); err != nil {
		return Undefined(), err
	}
	if n.Postfix {
		return Number(old), nil
	}
	return Number(next), nil
}

func (st *runState) evalAssign(n *ast.AssignExpression) (Value, error) {
	v, err := st.eval(n.Right)
	if err != nil {
		return Undefined(), err
	}
	switch left := n.Left.(type) {
	case *ast.Identifier:
		name := left.Name.String()
		if n.Operator != token.ASSIGN {
			cur, err := st.scope.Get(name)
			if err != nil {
				return Undefined(), err
			}
			next, ok := st.binary(n.Operator, cur, v)
			if !ok {
				st.unsupported("operator "+n.Operator.String()+"=", n)
			}
			v = next
		}
		if err := st.scope.Assign(name, v); err != nil {
			return Undefined(), err
		}
		if err := st.record(StepAssignment, fmt.Sprintf("Assign %s = %s", name, v.Format()), n); err != nil {
			return Undefined(), err
		}
		return v, nil
	case *ast.DotExpression:
		if n.Operator == token.ASSIGN {
			return v, st.assignDOM(n, left.Left, left.Identifier.Name.String(), v)
		}
		return v, nil
	case *ast.BracketExpression:
		if n.Operator == token.ASSIGN {
			key, err := st.eval(left.Member)
			if err != nil {
				return Undefined(), err
			}
			return v, st.assignDOM(n, left.Left, st.toString(key), v)
		}
		return v, nil
	}
	st.unsupported(fmt.Sprintf("assignment to %T", n.Left), n)
	return v, nil
}

// member reads key from obj.  Property access on a primitive yields
// undefined except for the length of a string.
func (st *runState) member(obj Value, key string) Value {
	switch obj.Kind {
	case VReference:
		return st.mem.Property(obj.Ref, key)
	case VString:
		if key == "length" {
			return Number(float64(len(utf16.Encode([]rune(obj.Str)))))
		}
	}
	return Undefined()
}

func (st *runState) evalArray(n *ast.ArrayLiteral) (Value, error) {
	var elems []Value
	for _, e := range n.Value {
		if e == nil {
			elems = append(elems, Undefined())
			continue
		}
		if spread, ok := e.(*ast.SpreadElement); ok {
			v, err := st.eval(spread.Expression)
			if err != nil {
				return Undefined(), err
			}
			elems = append(elems, st.spread(v)...)
			continue
		}
		v, err := st.eval(e)
		if err != nil {
			return Undefined(), err
		}
		elems = append(elems, v)
	}
	props := make([]Property, 0, len(elems)+1)
	for i, v := range elems {
		props = append(props, Property{Key: strconv.Itoa(i), Value: v})
	}
	props = append(props, Property{Key: "length", Value: Number(float64(len(elems)))})
	return Ref(st.mem.Allocate(TypeArray, props, "", nil)), nil
}

// spread returns the elements of an array, or v alone for anything else.
func (st *runState) spread(v Value) []Value {
	if v.Kind != VReference {
		return []Value{v}
	}
	obj := st.mem.Object(v.Ref)
	if obj == nil || obj.Type != TypeArray {
		return []Value{v}
	}
	n, _ := obj.Property("length")
	elems := make([]Value, 0, int(n.Num))
	for i := 0; i < int(n.Num); i++ {
		e, _ := obj.Property(strconv.Itoa(i))
		elems = append(elems, e)
	}
	return elems
}

func (st *runState) evalObject(n *ast.ObjectLiteral) (Value, error) {
	var props []Property
	for _, p := range n.Value {
		switch p := p.(type) {
		case *ast.PropertyKeyed:
			if p.Computed || (p.Kind != ast.PropertyKindValue && p.Kind != ast.PropertyKindMethod) {
				st.unsupported("computed or accessor property", p)
				continue
			}
			var key string
			switch k := p.Key.(type) {
			case *ast.StringLiteral:
				key = k.Value.String()
			case *ast.NumberLiteral:
				v, err := st.eval(k)
				if err != nil {
					return Undefined(), err
				}
				key = v.ToString()
			case *ast.Identifier:
				key = k.Name.String()
			default:
				st.unsupported(fmt.Sprintf("property key %T", p.Key), p)
				continue
			}
			v, err := st.eval(p.Value)
			if err != nil {
				return Undefined(), err
			}
			props = setProperty(props, key, v)
		case *ast.PropertyShort:
			name := p.Name.Name.String()
			v, err := st.identifier(name)
			if err != nil {
				return Undefined(), err
			}
			props = setProperty(props, name, v)
		default:
			st.unsupported(fmt.Sprintf("%T", p), p)
		}
	}
	return Ref(st.mem.Allocate(TypeObject, props, "", nil)), nil
}

// setProperty sets key in props, keeping the position of an earlier
// definition of key.
func setProperty(props []Property, key string, v Value) []Property {
	for i := range props {
		if props[i].Key == key {
			props[i].Value = v
			return props
		}
	}
	return append(props, Property{Key: key, Value: v})
}

// makeFunction allocates a function object closing over the current scope.
func (st *runState) makeFunction(name string, params *ast.ParameterList, body []ast.Statement, node ast.Node, source string) Value {
	fn := &Function{
		Name:   name,
		Body:   body,
		Scope:  st.scope,
		Node:   node,
		Source: source,
	}
	if params != nil {
		for _, b := range params.List {
			pname, ok := bindingName(b)
			if !ok {
				st.unsupported("destructuring parameter", b)
				pname = "_"
			}
			fn.Params = append(fn.Params, pname)
			fn.Defaults = append(fn.Defaults, b.Initializer)
		}
		if params.Rest != nil {
			st.unsupported("rest parameter", params.Rest)
		}
	}
	id := st.mem.Allocate(TypeFunction, nil, name, captureClosure(st.scope))
	st.mem.Object(id).Func = fn
	return Ref(id)
}

// toString converts v to a string the way string concatenation does,
// rendering arrays by their elements.
func (st *runState) toString(v Value) string {
	if v.Kind != VReference {
		return v.ToString()
	}
	obj := st.mem.Object(v.Ref)
	if obj == nil {
		return v.ToString()
	}
	switch obj.Type {
	case TypeArray:
		elems := st.spread(v)
		parts := make([]string, len(elems))
		for i, e := range elems {
			if !e.IsNullish() {
				parts[i] = st.toString(e)
			}
		}
		return strings.Join(parts, ",")
	case TypeFunction:
		if obj.Func != nil && obj.Func.Source != "" {
			return obj.Func.Source
		}
		return "function " + obj.Name + "() { [native code] }"
	}
	return "[object Object]"
}
