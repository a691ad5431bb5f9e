// Copyright © 2024 The ELPS authors

package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/dop251/goja/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	prog, err := Parse("test.js", "let x = 1;\nx = x + 2;")
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)
	assert.Equal(t, "test.js", prog.Name)
	_, ok := prog.Body[0].(*ast.LexicalDeclaration)
	assert.True(t, ok, "first statement is %T", prog.Body[0])
}

func TestPosition(t *testing.T) {
	prog, err := Parse("test.js", "let a = 1;\n  a = 2;")
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)

	pos := prog.NodePosition(prog.Body[0])
	assert.Equal(t, Position{Line: 1, Column: 0}, pos)

	stmt := prog.Body[1].(*ast.ExpressionStatement)
	pos = prog.NodePosition(stmt.Expression)
	assert.Equal(t, Position{Line: 2, Column: 2}, pos)
}

func TestPositionNil(t *testing.T) {
	var prog *Program
	assert.Equal(t, Position{Line: 1}, prog.Position(5))
}

func TestParseError(t *testing.T) {
	_, err := Parse("bad.js", "let x = ;")
	require.Error(t, err)
	var list ErrorList
	require.True(t, errors.As(err, &list))
	require.NotEmpty(t, list)
	assert.Equal(t, "bad.js", list[0].File)
	assert.Equal(t, 1, list[0].Line)
	assert.NotEmpty(t, list[0].Message)
	assert.Contains(t, err.Error(), "(1:")
}

func TestRead(t *testing.T) {
	prog, err := Read("r.js", strings.NewReader("function f() { return 1 }"))
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)
	_, ok := prog.Body[0].(*ast.FunctionDeclaration)
	assert.True(t, ok)
}
