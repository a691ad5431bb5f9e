// Copyright © 2024 The ELPS authors

package js

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the errors that abort a run.
type ErrorKind uint

// Possible ErrorKind values.
const (
	ParseFailure ErrorKind = iota
	ReferenceError
	UninitializedAccess
	ConstReassignment
	DuplicateDeclaration
	RangeError
	StepLimit
)

var errorKindStrings = []string{
	ParseFailure:         "parse-failure",
	ReferenceError:       "reference-error",
	UninitializedAccess:  "uninitialized-access",
	ConstReassignment:    "const-reassignment",
	DuplicateDeclaration: "duplicate-declaration",
	RangeError:           "range-error",
	StepLimit:            "step-limit",
}

func (k ErrorKind) String() string {
	if int(k) >= len(errorKindStrings) {
		return "unknown-error"
	}
	return errorKindStrings[k]
}

// CallSite is one frame of the call stack an error unwound.  Line is the
// line the frame was called from, zero for the global frame.
type CallSite struct {
	Name string
	Line int
}

// Error is a JavaScript runtime or parse error.  Line and Column locate the
// node being evaluated when the error was raised; zero means unknown.
type Error struct {
	Kind    ErrorKind
	Name    string
	Message string
	File    string
	Line    int
	Column  int
	// Stack lists the active calls when the error was raised, innermost
	// first.  Parse failures have no stack.
	Stack []CallSite
}

func (e *Error) Error() string {
	return e.Message
}

// HasPosition returns true if the error carries a source location.
func (e *Error) HasPosition() bool {
	return e.Line > 0
}

// ErrorKindOf returns the kind of the first *Error in err's chain.
func ErrorKindOf(err error) (ErrorKind, bool) {
	var jserr *Error
	if errors.As(err, &jserr) {
		return jserr.Kind, true
	}
	return 0, false
}

// IsKind returns true if err wraps an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := ErrorKindOf(err)
	return ok && k == kind
}

func errNotDefined(name string) *Error {
	return &Error{
		Kind:    ReferenceError,
		Name:    name,
		Message: fmt.Sprintf("%s is not defined", name),
	}
}

func errUninitialized(name string) *Error {
	return &Error{
		Kind:    UninitializedAccess,
		Name:    name,
		Message: fmt.Sprintf("Cannot access '%s' before initialization", name),
	}
}

func errConstAssign(name string) *Error {
	return &Error{
		Kind:    ConstReassignment,
		Name:    name,
		Message: fmt.Sprintf("Assignment to constant variable '%s'", name),
	}
}

func errDuplicate(name string) *Error {
	return &Error{
		Kind:    DuplicateDeclaration,
		Name:    name,
		Message: fmt.Sprintf("Identifier '%s' has already been declared", name),
	}
}

func errCallStack() *Error {
	return &Error{
		Kind:    RangeError,
		Message: "Maximum call stack size exceeded",
	}
}

func errStepLimit(n int) *Error {
	return &Error{
		Kind:    StepLimit,
		Message: fmt.Sprintf("step limit of %d exceeded", n),
	}
}
