// Copyright © 2024 The ELPS authors

package profiler

import (
	"fmt"
	"path"
	"regexp"

	"github.com/luthersystems/jsviz/js"
)

// FunLabeler provides an alternative name for a function label in the trace.
type FunLabeler func(call *js.CallInfo) string

// WithFunLabeler sets the labeler for tracing spans.
func WithFunLabeler(funLabeler FunLabeler) Option {
	return func(p *profiler) {
		p.funLabeler = funLabeler
	}
}

// WithQualifiedLabeler labels spans "file:name", using the base name of the
// source file.
func WithQualifiedLabeler() Option {
	return WithFunLabeler(qualifiedFunLabeler)
}

// WithSignatureLabeler labels spans with the function name and its
// parameter names, "name(a, b)".
func WithSignatureLabeler() Option {
	return WithFunLabeler(signatureFunLabeler)
}

var (
	sanitizeRegExp   = regexp.MustCompile(`[\s_]+`)
	validLabelRegExp = regexp.MustCompile(`[[:graph:]]*`)
)

func sanitizeLabel(userLabel string) string {
	if userLabel == "" {
		return ""
	}

	// Replace spaces with underscores
	userLabel = sanitizeRegExp.ReplaceAllString(userLabel, "_")

	matches := validLabelRegExp.FindStringSubmatch(userLabel)
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

func qualifiedFunLabeler(call *js.CallInfo) string {
	if call.File == "" {
		return call.Name
	}
	return fmt.Sprintf("%s:%s", path.Base(call.File), call.Name)
}

func signatureFunLabeler(call *js.CallInfo) string {
	sig := call.Name + "("
	for i, param := range call.Params {
		if i > 0 {
			sig += ","
		}
		sig += param
	}
	return sig + ")"
}
