// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"
	"github.com/luthersystems/jsviz/parser"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// declaration is a top-level binding of a program.
type declaration struct {
	name   string
	kind   protocol.SymbolKind
	detail string
	stmt   ast.Statement
	ident  *ast.Identifier
}

// declarations returns the top-level function and variable declarations
// of prog in source order.
func declarations(prog *parser.Program) []declaration {
	var decls []declaration
	for _, stmt := range prog.Body {
		switch n := stmt.(type) {
		case *ast.FunctionDeclaration:
			fn := n.Function
			if fn.Name == nil {
				continue
			}
			name := fn.Name.Name.String()
			decls = append(decls, declaration{
				name:   name,
				kind:   protocol.SymbolKindFunction,
				detail: "function " + name + "(" + strings.Join(paramNames(fn.ParameterList), ", ") + ")",
				stmt:   n,
				ident:  fn.Name,
			})
		case *ast.VariableStatement:
			decls = appendBindings(decls, n, n.List, protocol.SymbolKindVariable, "var")
		case *ast.LexicalDeclaration:
			if n.Token == token.CONST {
				decls = appendBindings(decls, n, n.List, protocol.SymbolKindConstant, "const")
			} else {
				decls = appendBindings(decls, n, n.List, protocol.SymbolKindVariable, "let")
			}
		}
	}
	return decls
}

func appendBindings(decls []declaration, stmt ast.Statement, list []*ast.Binding, kind protocol.SymbolKind, detail string) []declaration {
	for _, b := range list {
		id, ok := b.Target.(*ast.Identifier)
		if !ok {
			continue
		}
		decls = append(decls, declaration{
			name:   id.Name.String(),
			kind:   kind,
			detail: detail,
			stmt:   stmt,
			ident:  id,
		})
	}
	return decls
}

func paramNames(params *ast.ParameterList) []string {
	if params == nil {
		return nil
	}
	var names []string
	for _, b := range params.List {
		if id, ok := b.Target.(*ast.Identifier); ok {
			names = append(names, id.Name.String())
		}
	}
	return names
}

func (d *declaration) selectionRange(prog *parser.Program) protocol.Range {
	start := idxPosition(prog, d.ident.Idx0())
	end := start
	end.Character += safeUint(len(d.name))
	return protocol.Range{Start: start, End: end}
}

func (d *declaration) fullRange(prog *parser.Program) protocol.Range {
	return protocol.Range{
		Start: idxPosition(prog, d.stmt.Idx0()),
		End:   idxPosition(prog, d.stmt.Idx1()),
	}
}

// textDocumentDocumentSymbol handles the textDocument/documentSymbol request.
func (s *Server) textDocumentDocumentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	prog := doc.prog
	doc.mu.Unlock()
	if prog == nil {
		return nil, nil
	}

	var symbols []protocol.DocumentSymbol
	for _, d := range declarations(prog) {
		detail := d.detail
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           d.name,
			Detail:         &detail,
			Kind:           d.kind,
			Range:          d.fullRange(prog),
			SelectionRange: d.selectionRange(prog),
		})
	}
	return symbols, nil
}
