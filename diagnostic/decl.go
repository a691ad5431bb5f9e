// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"fmt"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/parser"
)

type declKind string

const (
	declVar      declKind = "var"
	declLet      declKind = "let"
	declConst    declKind = "const"
	declFunction declKind = "function"
	declParam    declKind = "parameter"
)

// declaration is one place a name is bound in the source.  Col is 1-based.
type declaration struct {
	kind      declKind
	line, col int
}

func (d declaration) before(line, col int) bool {
	return d.line < line || (d.line == line && d.col < col)
}

func (d declaration) label(text string) Label {
	return Label{Line: d.line, Col: d.col, Text: text, Secondary: true}
}

// relatedLabel points at the declaration an error is about: the let or
// const a TDZ read precedes, the const an assignment targets or the first
// of two conflicting declarations.
func relatedLabel(prog *parser.Program, e *js.Error) (Label, bool) {
	decls := declarationsOf(prog, e.Name)
	line, col := e.Line, e.Column+1
	switch e.Kind {
	case js.UninitializedAccess:
		var first *declaration
		for i := range decls {
			d := &decls[i]
			if d.kind != declLet && d.kind != declConst {
				continue
			}
			if !d.before(line, col) {
				return d.label(fmt.Sprintf("'%s' declared here", e.Name)), true
			}
			if first == nil {
				first = d
			}
		}
		if first != nil {
			return first.label(fmt.Sprintf("'%s' declared here", e.Name)), true
		}
	case js.ConstReassignment:
		var found *declaration
		for i := range decls {
			d := &decls[i]
			if d.kind != declConst {
				continue
			}
			if found == nil || d.before(line, col) {
				found = d
			}
		}
		if found != nil {
			return found.label("declared const here"), true
		}
	case js.DuplicateDeclaration:
		for _, d := range decls {
			if d.before(line, col) {
				return d.label("first declared here"), true
			}
		}
	}
	return Label{}, false
}

// declarationsOf lists the bindings of name in source order.  Function
// bodies are entered so nested declarations are found too.
func declarationsOf(prog *parser.Program, name string) []declaration {
	c := &declCollector{prog: prog, name: name}
	c.statements(prog.Body)
	return c.found
}

type declCollector struct {
	prog  *parser.Program
	name  string
	found []declaration
}

func (c *declCollector) add(kind declKind, id *ast.Identifier) {
	if id == nil || id.Name.String() != c.name {
		return
	}
	pos := c.prog.NodePosition(id)
	c.found = append(c.found, declaration{kind: kind, line: pos.Line, col: pos.Column + 1})
}

func (c *declCollector) bindings(kind declKind, list []*ast.Binding) {
	for _, b := range list {
		if id, ok := b.Target.(*ast.Identifier); ok {
			c.add(kind, id)
		}
		if b.Initializer != nil {
			c.expression(b.Initializer)
		}
	}
}

func (c *declCollector) lexical(decl *ast.LexicalDeclaration) {
	kind := declLet
	if decl.Token == token.CONST {
		kind = declConst
	}
	c.bindings(kind, decl.List)
}

func (c *declCollector) function(params *ast.ParameterList, body []ast.Statement) {
	if params != nil {
		c.bindings(declParam, params.List)
	}
	c.statements(body)
}

func (c *declCollector) statements(list []ast.Statement) {
	for _, s := range list {
		c.statement(s)
	}
}

func (c *declCollector) statement(s ast.Statement) {
	switch n := s.(type) {
	case *ast.VariableStatement:
		c.bindings(declVar, n.List)
	case *ast.LexicalDeclaration:
		c.lexical(n)
	case *ast.FunctionDeclaration:
		c.add(declFunction, n.Function.Name)
		c.function(n.Function.ParameterList, n.Function.Body.List)
	case *ast.BlockStatement:
		c.statements(n.List)
	case *ast.IfStatement:
		c.statement(n.Consequent)
		if n.Alternate != nil {
			c.statement(n.Alternate)
		}
	case *ast.WhileStatement:
		c.statement(n.Body)
	case *ast.ForStatement:
		switch init := n.Initializer.(type) {
		case *ast.ForLoopInitializerVarDeclList:
			c.bindings(declVar, init.List)
		case *ast.ForLoopInitializerLexicalDecl:
			c.lexical(&init.LexicalDeclaration)
		}
		c.statement(n.Body)
	case *ast.ExpressionStatement:
		c.expression(n.Expression)
	case *ast.ReturnStatement:
		if n.Argument != nil {
			c.expression(n.Argument)
		}
	}
}

// expression enters the function literals an expression defines inline.
func (c *declCollector) expression(e ast.Expression) {
	switch n := e.(type) {
	case *ast.FunctionLiteral:
		c.function(n.ParameterList, n.Body.List)
	case *ast.ArrowFunctionLiteral:
		if body, ok := n.Body.(*ast.BlockStatement); ok {
			c.function(n.ParameterList, body.List)
		} else {
			c.function(n.ParameterList, nil)
		}
	case *ast.AssignExpression:
		c.expression(n.Right)
	case *ast.CallExpression:
		c.expression(n.Callee)
		for _, arg := range n.ArgumentList {
			c.expression(arg)
		}
	}
}
