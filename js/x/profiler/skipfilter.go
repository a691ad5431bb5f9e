// Copyright © 2024 The ELPS authors

package profiler

import (
	"regexp"

	"github.com/luthersystems/jsviz/js"
)

// SkipFilter returns true for calls that should not be traced.
type SkipFilter func(call *js.CallInfo) bool

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// WithNameFilter only traces functions whose name matches pattern.  The
// pattern is compiled immediately and an invalid pattern panics, as with
// regexp.MustCompile.
func WithNameFilter(pattern string) Option {
	re := regexp.MustCompile(pattern)
	return WithSkipFilter(func(call *js.CallInfo) bool {
		return !re.MatchString(call.Name)
	})
}

// WithMaxDepth skips calls made while more than depth frames, including the
// global frame, are on the stack.  It keeps deep recursion from flooding a
// trace.
func WithMaxDepth(depth int) Option {
	return WithSkipFilter(func(call *js.CallInfo) bool {
		return call.Depth > depth
	})
}
