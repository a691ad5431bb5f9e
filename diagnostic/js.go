// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/parser"
)

// FromError converts an error produced by parsing or running a program into
// diagnostics.  Every syntax error of a parser.ErrorList becomes its own
// diagnostic.  Errors of unknown type produce a single diagnostic without
// a source location.
func FromError(err error) []Diagnostic {
	if err == nil {
		return nil
	}
	var list parser.ErrorList
	if errors.As(err, &list) {
		diags := make([]Diagnostic, len(list))
		for i, e := range list {
			diags[i] = Diagnostic{
				Severity: SeverityError,
				Code:     js.ParseFailure.String(),
				Message:  "SyntaxError: " + e.Message,
				File:     e.File,
				Labels:   []Label{{Line: e.Line, Col: e.Column + 1}},
			}
		}
		return diags
	}
	var jserr *js.Error
	if errors.As(err, &jserr) {
		return []Diagnostic{fromJSError(jserr)}
	}
	return []Diagnostic{{Severity: SeverityError, Message: err.Error()}}
}

func fromJSError(e *js.Error) Diagnostic {
	d := Diagnostic{
		Severity: SeverityError,
		Code:     e.Kind.String(),
		Message:  errorName(e.Kind) + ": " + e.Message,
		File:     e.File,
	}
	if e.HasPosition() {
		d.Labels = []Label{{Line: e.Line, Col: e.Column + 1, Text: labelText(e.Kind)}}
	}
	for _, c := range e.Stack {
		d.Stack = append(d.Stack, Frame{Name: c.Name, Line: c.Line})
	}
	switch e.Kind {
	case js.UninitializedAccess:
		d.Notes = append(d.Notes, fmt.Sprintf("'%s' is in its temporal dead zone until its declaration runs", e.Name))
	case js.RangeError:
		d.Help = append(d.Help, "raise the limit with --max-call-depth")
	case js.StepLimit:
		d.Help = append(d.Help, "raise the limit with --max-steps")
	}
	return d
}

func labelText(kind js.ErrorKind) string {
	switch kind {
	case js.ReferenceError:
		return "not defined"
	case js.UninitializedAccess:
		return "read before initialization"
	case js.ConstReassignment:
		return "assignment to a constant"
	case js.DuplicateDeclaration:
		return "redeclared here"
	}
	return ""
}

// errorName returns the JavaScript error constructor a kind is reported as.
func errorName(kind js.ErrorKind) string {
	switch kind {
	case js.ParseFailure, js.DuplicateDeclaration:
		return "SyntaxError"
	case js.ReferenceError, js.UninitializedAccess:
		return "ReferenceError"
	case js.ConstReassignment:
		return "TypeError"
	case js.RangeError:
		return "RangeError"
	}
	return "Error"
}

// FromTimeline returns the diagnostics of a failed run, or nil when tl
// completed.  The source of the run moves the primary label onto the
// offending identifier and adds a label at the related declaration.
func FromTimeline(tl *js.Timeline) []Diagnostic {
	if !tl.Failed() {
		return nil
	}
	diags := FromError(tl.Err)
	var jserr *js.Error
	if !errors.As(tl.Err, &jserr) || jserr.Name == "" || len(diags) != 1 {
		return diags
	}
	d := &diags[0]
	if len(d.Labels) == 1 {
		d.Labels[0].Col = identColumn(sourceLines(tl.Source), d.Labels[0], jserr.Name)
	}
	prog, err := parser.Parse(tl.Name, tl.Source)
	if err != nil {
		return diags
	}
	if l, ok := relatedLabel(prog, jserr); ok {
		d.Labels = append(d.Labels, l)
	}
	return diags
}

// identColumn finds name as a whole identifier on the line of l, at or
// after l.Col.  It returns l.Col when the line does not contain it.
func identColumn(lines []string, l Label, name string) int {
	if l.Line < 1 || l.Line > len(lines) {
		return l.Col
	}
	line := lines[l.Line-1]
	from := l.Col - 1
	if from < 0 {
		from = 0
	}
	for from <= len(line) {
		i := strings.Index(line[from:], name)
		if i < 0 {
			break
		}
		at := from + i
		if tokenWidth(line, at) == len(name) && (at == 0 || !isIdentByte(line[at-1])) {
			return at + 1
		}
		from = at + 1
	}
	return l.Col
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || isDigit(b) || (b|0x20 >= 'a' && b|0x20 <= 'z') || b >= 0x80
}

// RenderTimeline writes the diagnostics of a failed timeline using the
// timeline's own source.  It writes nothing when tl completed.
func (r *Renderer) RenderTimeline(w io.Writer, tl *js.Timeline) error {
	return r.RenderAll(w, tl.Source, FromTimeline(tl))
}
