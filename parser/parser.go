// Copyright © 2024 The ELPS authors

/*
Package parser reads JavaScript source into an abstract syntax tree.

Parsing is delegated to the goja ECMAScript parser.  The returned Program
keeps the source file so node offsets can be resolved to line and column
positions.
*/
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	jsparser "github.com/dop251/goja/parser"
)

// Program is a parsed source file.
type Program struct {
	*ast.Program
	Name   string
	Source string
}

// Position is a resolved source location.  Line is 1-based and Column is
// 0-based.
type Position struct {
	Line   int
	Column int
}

// Position resolves the offset idx of a node in p.
func (p *Program) Position(idx file.Idx) Position {
	if p == nil || p.File == nil || idx <= 0 {
		return Position{Line: 1}
	}
	pos := p.File.Position(int(idx) - p.File.Base())
	col := pos.Column - 1
	if col < 0 {
		col = 0
	}
	return Position{Line: pos.Line, Column: col}
}

// NodePosition resolves the start of node in p.
func (p *Program) NodePosition(node ast.Node) Position {
	if node == nil {
		return Position{Line: 1}
	}
	return p.Position(node.Idx0())
}

// Error is a syntax error.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d:%d)", e.Message, e.Line, e.Column)
}

// ErrorList is every syntax error reported for a source file.
type ErrorList []*Error

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
}

// Parse parses src, naming the file name in positions and errors.  Syntax
// errors are returned as an ErrorList.
func Parse(name string, src string) (*Program, error) {
	prog, err := jsparser.ParseFile(nil, name, src, 0)
	if err != nil {
		return nil, convertError(name, err)
	}
	return &Program{Program: prog, Name: name, Source: src}, nil
}

// Read parses the source read from r.
func Read(name string, r io.Reader) (*Program, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(name, string(b))
}

func convertError(name string, err error) error {
	var list jsparser.ErrorList
	if errors.As(err, &list) {
		out := make(ErrorList, 0, len(list))
		for _, e := range list {
			out = append(out, fromParserError(name, e))
		}
		return out
	}
	var single *jsparser.Error
	if errors.As(err, &single) {
		return ErrorList{fromParserError(name, single)}
	}
	return err
}

func fromParserError(name string, e *jsparser.Error) *Error {
	col := e.Position.Column - 1
	if col < 0 {
		col = 0
	}
	return &Error{
		File:    name,
		Line:    e.Position.Line,
		Column:  col,
		Message: e.Message,
	}
}
