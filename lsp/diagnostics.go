// Copyright © 2024 The ELPS authors

package lsp

import (
	"errors"
	"time"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/parser"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const debounceDelay = 300 * time.Millisecond

const diagnosticSource = "jsviz"

// textDocumentDidOpen handles the textDocument/didOpen notification.
func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.captureNotify(ctx)
	doc := s.docs.Open(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		params.TextDocument.Text,
	)
	s.analyzeAndPublish(doc)
	return nil
}

// textDocumentDidChange handles the textDocument/didChange notification.
func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.captureNotify(ctx)
	// With full sync, the last content change is the complete document.
	var content string
	for _, change := range params.ContentChanges {
		switch c := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			content = c.Text
		case protocol.TextDocumentContentChangeEvent:
			content = c.Text
		}
	}

	doc := s.docs.Change(
		params.TextDocument.URI,
		int32(params.TextDocument.Version),
		content,
	)

	s.debounceMu.Lock()
	if t, ok := s.debounce[doc.URI]; ok {
		t.Stop()
	}
	s.debounce[doc.URI] = time.AfterFunc(debounceDelay, func() {
		defer func() { _ = recover() }() // don't crash the server on a faulty run
		d := s.docs.Get(doc.URI)
		if d != nil {
			s.analyzeAndPublish(d)
		}
	})
	s.debounceMu.Unlock()
	return nil
}

// textDocumentDidSave handles the textDocument/didSave notification.
func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.captureNotify(ctx)
	s.cancelDebounce(params.TextDocument.URI)
	doc := s.docs.Get(params.TextDocument.URI)
	if doc != nil {
		s.analyzeAndPublish(doc)
	}
	return nil
}

// textDocumentDidClose handles the textDocument/didClose notification.
func (s *Server) textDocumentDidClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cancelDebounce(params.TextDocument.URI)

	// Clear diagnostics for the closed file.
	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})

	s.docs.Close(params.TextDocument.URI)
	return nil
}

func (s *Server) cancelDebounce(uri string) {
	s.debounceMu.Lock()
	if t, ok := s.debounce[uri]; ok {
		t.Stop()
		delete(s.debounce, uri)
	}
	s.debounceMu.Unlock()
}

// analyzeAndPublish runs the document and publishes its syntax or runtime
// errors to the client.
func (s *Server) analyzeAndPublish(doc *Document) {
	s.ensureRun(doc)

	doc.mu.Lock()
	parseErr := doc.parseErr
	tl := doc.timeline
	content := doc.Content
	uri := doc.URI
	doc.mu.Unlock()

	diags := []protocol.Diagnostic{}
	if parseErr != nil {
		diags = append(diags, parseDiagnostics(parseErr)...)
	} else if tl != nil && tl.Err != nil {
		diags = append(diags, runtimeDiagnostic(tl.Err, content))
	}
	s.logger.Debug("publish diagnostics", "uri", uri, "count", len(diags))

	s.sendNotification(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func parseDiagnostics(err error) []protocol.Diagnostic {
	var list parser.ErrorList
	if !errors.As(err, &list) {
		return []protocol.Diagnostic{{
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(diagnosticSource),
			Message:  err.Error(),
		}}
	}
	diags := make([]protocol.Diagnostic, len(list))
	for i, e := range list {
		start := jsToLSPPosition(e.Line, e.Column)
		diags[i] = protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: start},
			Severity: severity(protocol.DiagnosticSeverityError),
			Source:   strPtr(diagnosticSource),
			Code:     &protocol.IntegerOrString{Value: js.ParseFailure.String()},
			Message:  "SyntaxError: " + e.Message,
		}
	}
	return diags
}

// runtimeDiagnostic converts the error that aborted a run.  The range
// covers the identifier the error names when it starts at the error
// position.
func runtimeDiagnostic(err error, content string) protocol.Diagnostic {
	d := protocol.Diagnostic{
		Severity: severity(protocol.DiagnosticSeverityError),
		Source:   strPtr(diagnosticSource),
		Message:  err.Error(),
	}
	var jserr *js.Error
	if !errors.As(err, &jserr) {
		return d
	}
	d.Code = &protocol.IntegerOrString{Value: jserr.Kind.String()}
	if jserr.HasPosition() {
		d.Range = identRange(content, jserr.Line, jserr.Column, jserr.Name)
	}
	return d
}

func severity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func strPtr(s string) *string {
	return &s
}
