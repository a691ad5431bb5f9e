// Copyright © 2024 The ELPS authors

// Package diagnostic renders the errors of jsviz runs as annotated source
// snippets:
//
//	error[const-reassignment]: TypeError: Assignment to constant variable 'c'
//	  --> inline.js:2:1
//	   |
//	 1 | const c = 1;
//	   |       - declared const here
//	 2 | c = 2;
//	   | ^ assignment to a constant
//	   |
//	   = at global
//
// FromTimeline builds diagnostics for a failed run, using the run's source
// to point at related declarations.
package diagnostic

import "fmt"

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Label marks a token of the source.  The primary label locates the
// diagnostic, secondary labels point at related code.
type Label struct {
	Line      int // 1-based
	Col       int // 1-based byte column
	Width     int // bytes to mark, 0 = the JavaScript token at Col
	Text      string
	Secondary bool
}

// Frame is one call of the stack a runtime error unwound.
type Frame struct {
	Name string
	Line int // line of the call site, 0 for the global frame
}

func (f Frame) String() string {
	if f.Line == 0 {
		return f.Name
	}
	return fmt.Sprintf("%s, called from line %d", f.Name, f.Line)
}

// Diagnostic is an error, warning or note about one source file.
type Diagnostic struct {
	Severity Severity
	// Code is the error kind, e.g. "reference-error".  Optional.
	Code    string
	Message string
	File    string
	Labels  []Label
	// Stack is innermost first.
	Stack []Frame
	Notes []string
	Help  []string
}

// Primary returns the first primary label of d.
func (d Diagnostic) Primary() (Label, bool) {
	for _, l := range d.Labels {
		if !l.Secondary {
			return l, true
		}
	}
	return Label{}, false
}
