// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"
	"unicode"

	"github.com/dop251/goja/file"
	"github.com/luthersystems/jsviz/parser"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// jsToLSPPosition converts a 1-based line and 0-based column to a 0-based
// LSP position.
func jsToLSPPosition(line, col int) protocol.Position {
	if line > 0 {
		line--
	}
	return protocol.Position{
		Line:      safeUint(line),
		Character: safeUint(col),
	}
}

// idxPosition converts a source offset of prog to an LSP position.
func idxPosition(prog *parser.Program, idx file.Idx) protocol.Position {
	pos := prog.Position(idx)
	return jsToLSPPosition(pos.Line, pos.Column)
}

// safeUint converts a non-negative int to protocol.UInteger, clamping
// negative values to zero.
func safeUint(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) // #nosec G115 -- line/col are always small positive ints
}

// identRange returns the range of name when it appears at line:col of
// content, or an empty range at line:col.
func identRange(content string, line, col int, name string) protocol.Range {
	start := jsToLSPPosition(line, col)
	end := start
	if name != "" {
		text := lineText(content, line)
		if col <= len(text) && strings.HasPrefix(text[col:], name) {
			end.Character += safeUint(len(name))
		}
	}
	return protocol.Range{Start: start, End: end}
}

// lineText returns the 1-based line of content.
func lineText(content string, line int) string {
	lines := strings.Split(content, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[line-1], "\r")
}

func isIdentRune(ch byte) bool {
	return ch == '_' || ch == '$' || unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch))
}

// wordAt returns the identifier under the 0-based position line:col.
func wordAt(content string, line, col int) string {
	text := lineText(content, line+1)
	if col > len(text) {
		return ""
	}
	start := col
	for start > 0 && isIdentRune(text[start-1]) {
		start--
	}
	end := col
	for end < len(text) && isIdentRune(text[end]) {
		end++
	}
	return text[start:end]
}

// uriToPath converts a file:// URI to a filesystem path.
func uriToPath(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	return uri
}

// pathToURI converts a filesystem path to a file:// URI.
func pathToURI(path string) string {
	if strings.HasPrefix(path, "/") {
		return "file://" + path
	}
	return path
}
