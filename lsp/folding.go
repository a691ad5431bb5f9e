// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line top-level statements and
// consecutive line comment blocks.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}

	doc.mu.Lock()
	prog := doc.prog
	content := doc.Content
	doc.mu.Unlock()

	var ranges []protocol.FoldingRange
	if prog != nil {
		kind := string(protocol.FoldingRangeKindRegion)
		for _, stmt := range prog.Body {
			start := prog.Position(stmt.Idx0()).Line - 1
			end := prog.Position(stmt.Idx1()-1).Line - 1
			if end > start {
				ranges = append(ranges, protocol.FoldingRange{
					StartLine: safeUint(start),
					EndLine:   safeUint(end),
					Kind:      &kind,
				})
			}
		}
	}
	ranges = append(ranges, commentFoldingRanges(content)...)
	return ranges, nil
}

// commentFoldingRanges detects consecutive lines starting with "//" and
// produces a folding range for each block of 2+ lines.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	lines := strings.Split(content, "\n")
	var ranges []protocol.FoldingRange

	kind := string(protocol.FoldingRangeKindComment)
	flush := func(start, end int) {
		if start >= 0 && end > start {
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(start),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
	}
	blockStart := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			if blockStart < 0 {
				blockStart = i
			}
			continue
		}
		flush(blockStart, i-1)
		blockStart = -1
	}
	flush(blockStart, len(lines)-1)
	return ranges
}
