// Copyright © 2024 The ELPS authors

package js

import (
	"errors"
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
)

// completion is how a statement finished.  The zero completion is normal
// completion.
type completion struct {
	returned bool
	brk      bool
	cont     bool
	value    Value
}

func (c completion) abrupt() bool {
	return c.returned || c.brk || c.cont
}

// execList executes a statement list whose function declarations have
// already been hoisted.
func (st *runState) execList(list []ast.Statement) (completion, error) {
	for _, stmt := range list {
		if _, ok := stmt.(*ast.FunctionDeclaration); ok {
			continue
		}
		c, err := st.exec(stmt)
		if err != nil || c.abrupt() {
			return c, err
		}
	}
	return completion{}, nil
}

func (st *runState) exec(stmt ast.Statement) (c completion, err error) {
	defer func() {
		if err != nil {
			err = st.locate(err, stmt)
		}
	}()
	switch n := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err = st.eval(n.Expression)
		return completion{}, err
	case *ast.VariableStatement:
		return completion{}, st.execBindings(DeclVar, n.List, n)
	case *ast.LexicalDeclaration:
		return completion{}, st.execBindings(lexicalKind(n.Token), n.List, n)
	case *ast.FunctionDeclaration:
		// Only reached for a declaration that is the direct body of an if or
		// loop; declarations in statement lists are hoisted.
		return completion{}, st.declareFunction(n)
	case *ast.IfStatement:
		return st.execIf(n)
	case *ast.WhileStatement:
		return st.execWhile(n)
	case *ast.ForStatement:
		return st.execFor(n)
	case *ast.BlockStatement:
		return st.execBlock(n)
	case *ast.ReturnStatement:
		v := Undefined()
		if n.Argument != nil {
			v, err = st.eval(n.Argument)
			if err != nil {
				return completion{}, err
			}
		}
		return completion{returned: true, value: v}, nil
	case *ast.BranchStatement:
		if n.Label != nil {
			st.unsupported("labeled "+n.Token.String(), n)
		}
		switch n.Token {
		case token.BREAK:
			return completion{brk: true}, nil
		case token.CONTINUE:
			return completion{cont: true}, nil
		}
	case *ast.EmptyStatement:
	default:
		st.unsupported(fmt.Sprintf("%T", stmt), stmt)
	}
	return completion{}, nil
}

func lexicalKind(tok token.Token) DeclKind {
	if tok == token.CONST {
		return DeclConst
	}
	return DeclLet
}

func bindingName(b *ast.Binding) (string, bool) {
	id, ok := b.Target.(*ast.Identifier)
	if !ok {
		return "", false
	}
	return id.Name.String(), true
}

// execBindings executes the declarators of one declaration, recording a
// step for each.
func (st *runState) execBindings(kind DeclKind, list []*ast.Binding, node ast.Node) error {
	for _, b := range list {
		name, ok := bindingName(b)
		if !ok {
			st.unsupported("destructuring declaration", b)
			continue
		}
		v := Undefined()
		if b.Initializer != nil {
			var err error
			v, err = st.eval(b.Initializer)
			if err != nil {
				return err
			}
		}
		var err error
		if b.Initializer == nil && kind == DeclVar {
			err = st.scope.Declare(name, kind)
		} else {
			err = st.scope.DeclareValue(name, kind, v)
		}
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Declare %s %s", kind, name)
		if !v.IsUndefined() {
			desc += " = " + v.Format()
		}
		if err := st.record(StepDeclaration, desc, node); err != nil {
			return err
		}
	}
	return nil
}

// hoistVars declares every var binding of body in scope's function scope.
// Nested functions are not entered.
func (st *runState) hoistVars(scope *Scope, body []ast.Statement) error {
	for _, stmt := range body {
		if err := st.hoistVarsIn(scope, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (st *runState) hoistVarsIn(scope *Scope, stmt ast.Statement) error {
	declare := func(list []*ast.Binding) error {
		for _, b := range list {
			if name, ok := bindingName(b); ok {
				if err := scope.Declare(name, DeclVar); err != nil {
					return err
				}
			}
		}
		return nil
	}
	switch n := stmt.(type) {
	case *ast.VariableStatement:
		return declare(n.List)
	case *ast.BlockStatement:
		return st.hoistVars(scope, n.List)
	case *ast.IfStatement:
		if err := st.hoistVarsIn(scope, n.Consequent); err != nil {
			return err
		}
		if n.Alternate != nil {
			return st.hoistVarsIn(scope, n.Alternate)
		}
	case *ast.WhileStatement:
		return st.hoistVarsIn(scope, n.Body)
	case *ast.ForStatement:
		if init, ok := n.Initializer.(*ast.ForLoopInitializerVarDeclList); ok {
			if err := declare(init.List); err != nil {
				return err
			}
		}
		return st.hoistVarsIn(scope, n.Body)
	}
	return nil
}

// hoistLexical puts the let and const bindings declared directly in body
// into their temporal dead zone.
func (st *runState) hoistLexical(scope *Scope, body []ast.Statement) error {
	for _, stmt := range body {
		decl, ok := stmt.(*ast.LexicalDeclaration)
		if !ok {
			continue
		}
		if err := st.declareLexical(scope, decl); err != nil {
			return err
		}
	}
	return nil
}

func (st *runState) declareLexical(scope *Scope, decl *ast.LexicalDeclaration) error {
	kind := lexicalKind(decl.Token)
	for _, b := range decl.List {
		if name, ok := bindingName(b); ok {
			if err := scope.Declare(name, kind); err != nil {
				return st.locate(err, b)
			}
		}
	}
	return nil
}

// hoistFunctions binds every function declared directly in body before any
// statement of body executes.
func (st *runState) hoistFunctions(body []ast.Statement) error {
	for _, stmt := range body {
		decl, ok := stmt.(*ast.FunctionDeclaration)
		if !ok {
			continue
		}
		if err := st.declareFunction(decl); err != nil {
			return st.locate(err, decl)
		}
	}
	return nil
}

func (st *runState) declareFunction(decl *ast.FunctionDeclaration) error {
	fn := decl.Function
	if fn.Name == nil {
		return nil
	}
	name := fn.Name.Name.String()
	ref := st.makeFunction(name, fn.ParameterList, fn.Body.List, fn, fn.Source)
	if err := st.scope.DeclareValue(name, DeclVar, ref); err != nil {
		return err
	}
	return st.record(StepDeclaration, "Declare function "+name, decl)
}

func (st *runState) execIf(n *ast.IfStatement) (completion, error) {
	test, err := st.eval(n.Test)
	if err != nil {
		return completion{}, err
	}
	if err := st.record(StepExpression, "If condition: "+test.Format(), n); err != nil {
		return completion{}, err
	}
	if test.Truthy() {
		return st.exec(n.Consequent)
	}
	if n.Alternate != nil {
		return st.exec(n.Alternate)
	}
	return completion{}, nil
}

func (st *runState) execWhile(n *ast.WhileStatement) (completion, error) {
	for i := 0; i < st.interp.maxIterations; i++ {
		test, err := st.eval(n.Test)
		if err != nil {
			return completion{}, err
		}
		if err := st.record(StepExpression, "While condition: "+test.Format(), n); err != nil {
			return completion{}, err
		}
		if !test.Truthy() {
			break
		}
		c, err := st.exec(n.Body)
		if err != nil || c.returned {
			return c, err
		}
		if c.brk {
			break
		}
	}
	return completion{}, nil
}

func (st *runState) execFor(n *ast.ForStatement) (completion, error) {
	prev := st.scope
	st.scope = st.newScope(BlockScope, "for", prev)
	defer func() { st.scope = prev }()

	if err := st.record(StepBlockEnter, "Enter for loop", n); err != nil {
		return completion{}, err
	}
	switch init := n.Initializer.(type) {
	case nil:
	case *ast.ForLoopInitializerExpression:
		if _, err := st.eval(init.Expression); err != nil {
			return completion{}, err
		}
	case *ast.ForLoopInitializerVarDeclList:
		if err := st.execBindings(DeclVar, init.List, init); err != nil {
			return completion{}, err
		}
	case *ast.ForLoopInitializerLexicalDecl:
		decl := &init.LexicalDeclaration
		if err := st.declareLexical(st.scope, decl); err != nil {
			return completion{}, err
		}
		if err := st.execBindings(lexicalKind(decl.Token), decl.List, decl); err != nil {
			return completion{}, err
		}
	}
	for i := 0; i < st.interp.maxIterations; i++ {
		if n.Test != nil {
			test, err := st.eval(n.Test)
			if err != nil {
				return completion{}, err
			}
			if err := st.record(StepExpression, "For condition: "+test.Format(), n); err != nil {
				return completion{}, err
			}
			if !test.Truthy() {
				break
			}
		}
		c, err := st.exec(n.Body)
		if err != nil || c.returned {
			return c, err
		}
		if c.brk {
			break
		}
		if n.Update != nil {
			if _, err := st.eval(n.Update); err != nil {
				return completion{}, err
			}
		}
	}
	st.scope = prev
	return completion{}, st.record(StepBlockExit, "Exit for loop", n)
}

func (st *runState) execBlock(n *ast.BlockStatement) (completion, error) {
	prev := st.scope
	st.scope = st.newScope(BlockScope, "block", prev)
	defer func() { st.scope = prev }()

	if err := st.hoistLexical(st.scope, n.List); err != nil {
		return completion{}, err
	}
	if err := st.hoistFunctions(n.List); err != nil {
		return completion{}, err
	}
	return st.execList(n.List)
}

// locate attaches the position of node to err unless err already has one.
func (st *runState) locate(err error, node ast.Node) error {
	var jserr *Error
	if !errors.As(err, &jserr) {
		return err
	}
	if jserr.File == "" {
		jserr.File = st.prog.Name
	}
	if !jserr.HasPosition() && node != nil {
		pos := st.prog.NodePosition(node)
		jserr.Line = pos.Line
		jserr.Column = pos.Column
	}
	return err
}

func (st *runState) unsupported(what string, node ast.Node) {
	pos := st.prog.NodePosition(node)
	st.interp.logger.Warn("unsupported syntax", "node", what, "line", pos.Line, "column", pos.Column)
}
