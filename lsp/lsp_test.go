// Copyright © 2024 The ELPS authors

package lsp

import (
	"sync"
	"testing"
	"time"

	"github.com/luthersystems/jsviz/jstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testURI = "file:///tmp/lsp-test/test.js"

const squares = `// squares a number
// and returns it
function sq(x) {
  return x * x;
}
let a = sq(2);
const b = [a, 1];
`

func testServer(t *testing.T) *Server {
	return New(WithLogger(jstest.NewCharmLogger(t)))
}

// diagnosticRecorder collects published diagnostics.  Debounced analysis
// publishes from a timer goroutine so access is locked.
type diagnosticRecorder struct {
	mu        sync.Mutex
	published []*protocol.PublishDiagnosticsParams
}

func (r *diagnosticRecorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			if method == protocol.ServerTextDocumentPublishDiagnostics {
				r.mu.Lock()
				r.published = append(r.published, params.(*protocol.PublishDiagnosticsParams))
				r.mu.Unlock()
			}
		},
	}
}

func (r *diagnosticRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.published)
}

func (r *diagnosticRecorder) last() *protocol.PublishDiagnosticsParams {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.published) == 0 {
		return nil
	}
	return r.published[len(r.published)-1]
}

func openDoc(t *testing.T, s *Server, rec *diagnosticRecorder, content string) {
	t.Helper()
	err := s.textDocumentDidOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, LanguageID: "javascript", Version: 1, Text: content},
	})
	require.NoError(t, err)
}

func TestDiagnosticsClean(t *testing.T) {
	s := testServer(t)
	rec := &diagnosticRecorder{}
	openDoc(t, s, rec, squares)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, testURI, rec.last().URI)
	assert.Empty(t, rec.last().Diagnostics)
	assert.NotNil(t, rec.last().Diagnostics, "clean documents publish an empty list")
}

func TestDiagnosticsRuntimeError(t *testing.T) {
	s := testServer(t)
	rec := &diagnosticRecorder{}
	openDoc(t, s, rec, "let a = 1;\ncount = a;")
	diags := rec.last().Diagnostics
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, "count is not defined", d.Message)
	assert.Equal(t, "reference-error", d.Code.Value)
	assert.Equal(t, "jsviz", *d.Source)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 1, Character: 0},
		End:   protocol.Position{Line: 1, Character: 5},
	}, d.Range)
}

func TestDiagnosticsParseError(t *testing.T) {
	s := testServer(t)
	rec := &diagnosticRecorder{}
	openDoc(t, s, rec, "let x = 1;\nlet y = ;")
	diags := rec.last().Diagnostics
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[0].Message, "SyntaxError: ")
	assert.Equal(t, "parse-failure", diags[0].Code.Value)
	assert.Equal(t, protocol.UInteger(1), diags[0].Range.Start.Line)
}

func TestDiagnosticsLifecycle(t *testing.T) {
	s := testServer(t)
	rec := &diagnosticRecorder{}
	openDoc(t, s, rec, squares)

	err := s.textDocumentDidChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
			Version:                2,
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "const c = 1;\nc = 2;"}},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() == 2 }, 5*time.Second, 10*time.Millisecond)
	require.Len(t, rec.last().Diagnostics, 1)
	assert.Equal(t, "const-reassignment", rec.last().Diagnostics[0].Code.Value)

	err = s.textDocumentDidSave(rec.context(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, rec.count())
	assert.Len(t, rec.last().Diagnostics, 1)

	err = s.textDocumentDidClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.count())
	assert.Empty(t, rec.last().Diagnostics)
	assert.Nil(t, s.docs.Get(testURI))
}

func TestHover(t *testing.T) {
	s := testServer(t)
	openDoc(t, s, &diagnosticRecorder{}, squares)

	hover, err := s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 5, Character: 4},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)
	markup, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Equal(t, protocol.MarkupKindMarkdown, markup.Kind)
	assert.Contains(t, markup.Value, "Call sq(2)")
	assert.Contains(t, markup.Value, "Declare let a = 4")
	assert.Contains(t, markup.Value, "global {")

	hover, err = s.textDocumentHover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 4, Character: 0},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover, "closing braces record no steps")
}

func TestDocumentSymbols(t *testing.T) {
	s := testServer(t)
	openDoc(t, s, &diagnosticRecorder{}, squares)

	result, err := s.textDocumentDocumentSymbol(nil, &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	symbols, ok := result.([]protocol.DocumentSymbol)
	require.True(t, ok, "got %T", result)
	require.Len(t, symbols, 3)

	assert.Equal(t, "sq", symbols[0].Name)
	assert.Equal(t, protocol.SymbolKindFunction, symbols[0].Kind)
	assert.Equal(t, "function sq(x)", *symbols[0].Detail)
	assert.Equal(t, protocol.UInteger(2), symbols[0].Range.Start.Line)
	assert.Equal(t, protocol.UInteger(4), symbols[0].Range.End.Line)
	assert.Equal(t, protocol.Position{Line: 2, Character: 9}, symbols[0].SelectionRange.Start)
	assert.Equal(t, protocol.Position{Line: 2, Character: 11}, symbols[0].SelectionRange.End)

	assert.Equal(t, "a", symbols[1].Name)
	assert.Equal(t, protocol.SymbolKindVariable, symbols[1].Kind)
	assert.Equal(t, "b", symbols[2].Name)
	assert.Equal(t, protocol.SymbolKindConstant, symbols[2].Kind)
}

func TestDefinition(t *testing.T) {
	s := testServer(t)
	openDoc(t, s, &diagnosticRecorder{}, squares)

	result, err := s.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 5, Character: 9},
		},
	})
	require.NoError(t, err)
	loc, ok := result.(protocol.Location)
	require.True(t, ok, "got %T", result)
	assert.Equal(t, testURI, loc.URI)
	assert.Equal(t, protocol.Position{Line: 2, Character: 9}, loc.Range.Start)

	result, err = s.textDocumentDefinition(nil, &protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 3, Character: 10},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, result, "parameters are not top-level declarations")
}

func TestFoldingRange(t *testing.T) {
	s := testServer(t)
	openDoc(t, s, &diagnosticRecorder{}, squares)

	ranges, err := s.textDocumentFoldingRange(nil, &protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, protocol.UInteger(2), ranges[0].StartLine)
	assert.Equal(t, protocol.UInteger(4), ranges[0].EndLine)
	assert.Equal(t, string(protocol.FoldingRangeKindRegion), *ranges[0].Kind)
	assert.Equal(t, protocol.UInteger(0), ranges[1].StartLine)
	assert.Equal(t, protocol.UInteger(1), ranges[1].EndLine)
	assert.Equal(t, string(protocol.FoldingRangeKindComment), *ranges[1].Kind)
}

func TestUnknownDocument(t *testing.T) {
	s := testServer(t)
	ranges, err := s.textDocumentFoldingRange(nil, &protocol.FoldingRangeParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: "file:///nope.js"},
	})
	require.NoError(t, err)
	assert.Nil(t, ranges)
}

func TestPositionHelpers(t *testing.T) {
	assert.Equal(t, protocol.Position{Line: 4, Character: 9}, jsToLSPPosition(5, 9))
	assert.Equal(t, protocol.Position{}, jsToLSPPosition(0, -1))
	assert.Equal(t, "total", wordAt("let total = 1;", 0, 6))
	assert.Equal(t, "$el", wordAt("x = $el;", 0, 4))
	assert.Equal(t, "", wordAt("a = 1;", 3, 0))
	assert.Equal(t, "/tmp/a.js", uriToPath(pathToURI("/tmp/a.js")))
	assert.Equal(t, "relative.js", pathToURI("relative.js"))

	r := identRange("if (a) {\n  b = 2;\n}", 2, 2, "b")
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, r.Start)
	assert.Equal(t, protocol.Position{Line: 1, Character: 3}, r.End)
	r = identRange("x = 1;", 1, 0, "y")
	assert.Equal(t, r.Start, r.End)
}

func TestExit(t *testing.T) {
	s := testServer(t)
	code := -1
	s.exitFn = func(c int) { code = c }
	require.NoError(t, s.shutdown(nil))
	require.NoError(t, s.exit(nil))
	assert.Equal(t, 0, code)
}
