// Copyright © 2024 The ELPS authors

package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentDefinition handles the textDocument/definition request by
// resolving the identifier under the cursor against the document's
// top-level declarations.
func (s *Server) textDocumentDefinition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	doc.mu.Lock()
	prog := doc.prog
	content := doc.Content
	doc.mu.Unlock()
	if prog == nil {
		return nil, nil
	}

	name := wordAt(content, int(params.Position.Line), int(params.Position.Character))
	if name == "" {
		return nil, nil
	}
	for _, d := range declarations(prog) {
		if d.name == name {
			return protocol.Location{
				URI:   params.TextDocument.URI,
				Range: d.selectionRange(prog),
			}, nil
		}
	}
	return nil, nil
}
