// Copyright © 2024 The ELPS authors

package js

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/luthersystems/jsviz/dom"
)

const domSkipped = "DOM operation (skipped in visualization)"

// elementLookup recognizes document.getElementById(x) and
// document.querySelector(s) and returns the selector of the element they
// look up.  isLookup is false for any other expression.  An invalid selector
// yields isLookup == true and valid == false.
func (st *runState) elementLookup(expr ast.Expression) (selector string, isLookup, valid bool, err error) {
	call, ok := expr.(*ast.CallExpression)
	if !ok || len(call.ArgumentList) != 1 {
		return "", false, false, nil
	}
	dot, ok := call.Callee.(*ast.DotExpression)
	if !ok {
		return "", false, false, nil
	}
	root, ok := dot.Left.(*ast.Identifier)
	if !ok || root.Name.String() != "document" {
		return "", false, false, nil
	}
	method := dot.Identifier.Name.String()
	if method != "getElementById" && method != "querySelector" {
		return "", false, false, nil
	}
	arg, err := st.eval(call.ArgumentList[0])
	if err != nil {
		return "", true, false, err
	}
	text := st.toString(arg)
	if method == "getElementById" {
		return dom.ByIDSelector(text), true, true, nil
	}
	if _, err := dom.ParseSelector(text); err != nil {
		pos := st.prog.NodePosition(call)
		st.interp.logger.Warn("invalid selector", "selector", text, "err", err, "line", pos.Line)
		return text, true, false, nil
	}
	return text, true, true, nil
}

// assignDOM handles an assignment of v to the property prop of target.
// Assignments to anything but a looked up element have no effect.
func (st *runState) assignDOM(node ast.Node, target ast.Expression, prop string, v Value) error {
	sel, isLookup, valid, err := st.elementLookup(target)
	if err != nil || !isLookup {
		return err
	}
	if !valid {
		return st.record(StepCall, domSkipped, node)
	}
	op := dom.PropertyOperation(sel, prop, st.toString(v))
	return st.recordOperation(op, node)
}

// setAttributeDOM handles target.setAttribute(name, value).  handled is
// false when target is not a looked up element.
func (st *runState) setAttributeDOM(call *ast.CallExpression, target ast.Expression) (handled bool, err error) {
	sel, isLookup, valid, err := st.elementLookup(target)
	if err != nil || !isLookup {
		return isLookup, err
	}
	args, err := st.arguments(call.ArgumentList)
	if err != nil {
		return true, err
	}
	if !valid || len(args) < 2 {
		return true, st.record(StepCall, domSkipped, call)
	}
	op := dom.AttributeOperation(sel, st.toString(args[0]), st.toString(args[1]))
	return true, st.recordOperation(op, call)
}

func (st *runState) recordOperation(op dom.Operation, node ast.Node) error {
	desc := fmt.Sprintf("DOM %s %s", op.Type, op.Selector)
	return st.recordDOM(StepCall, desc, node, &op)
}
