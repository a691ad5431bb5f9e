// Copyright © 2024 The ELPS authors

package lsp

import (
	"fmt"
	"strings"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/render"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// maxHoverSteps caps the steps listed in a hover.
const maxHoverSteps = 5

// textDocumentHover handles the textDocument/hover request.  The hover
// lists the steps recorded on the hovered line and the scope chain after
// the last of them.
func (s *Server) textDocumentHover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	s.ensureRun(doc)
	doc.mu.Lock()
	tl := doc.timeline
	doc.mu.Unlock()
	if tl == nil {
		return nil, nil
	}

	content := buildHoverContent(tl, int(params.Position.Line)+1)
	if content == "" {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: content,
		},
	}, nil
}

func buildHoverContent(tl *js.Timeline, line int) string {
	var steps []*js.Step
	for i := range tl.Steps {
		if tl.Steps[i].Line == line {
			steps = append(steps, &tl.Steps[i])
		}
	}
	if len(steps) == 0 {
		return ""
	}

	var b strings.Builder
	shown := steps
	if len(shown) > maxHoverSteps {
		shown = shown[len(shown)-maxHoverSteps:]
		fmt.Fprintf(&b, "_%d earlier steps_\n\n", len(steps)-maxHoverSteps)
	}
	for _, step := range shown {
		fmt.Fprintf(&b, "- **%d** `%s` %s\n", step.ID, step.Kind, step.Description)
	}
	last := shown[len(shown)-1]
	if len(last.Scope.Scopes) > 0 {
		b.WriteString("\n```\n")
		for _, d := range last.Scope.Scopes {
			b.WriteString(render.FormatScope(d))
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}
	return b.String()
}
