// Copyright © 2024 The ELPS authors

/*
Package profiler contains js.Profiler implementations that report the
function calls of a run to tracing and profiling backends.
*/
package profiler

import (
	"fmt"

	"github.com/luthersystems/jsviz/js"
)

// profiler is a minimal js.Profiler
type profiler struct {
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

var _ js.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

// Option configures the profilers of this package.
type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) Complete() error {
	return nil
}

func (p *profiler) Start(call *js.CallInfo) func() {
	return func() {}
}

// prettyFunName returns a display label and the plain name of the called
// function.  Without a labeler, or when the labeler returns "", both are the
// function name.
func (p *profiler) prettyFunName(call *js.CallInfo) (string, string) {
	origLabel := call.Name
	if origLabel == "" {
		origLabel = "anonymous"
	}
	prettyLabel := origLabel
	if p.funLabeler != nil {
		prettyLabel = sanitizeLabel(p.funLabeler(call))
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
	}
	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(call *js.CallInfo) bool {
	return !p.enabled || call == nil || p.skipFilter != nil && p.skipFilter(call)
}
