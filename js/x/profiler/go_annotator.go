// Copyright © 2024 The ELPS authors

package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/jsviz/js"
)

// This profiler type appends tags to pprof output if pprof is enabled.  It
// does not start pprof itself.  Samples are taken at 100Hz so only long
// running calls are likely to show up under their label.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ js.Profiler = &pprofAnnotator{}

// NewPprofAnnotator returns a profiler that labels the goroutine running
// the interpreter with the function being called.
func NewPprofAnnotator(parentContext context.Context, opts ...Option) *pprofAnnotator {
	p := &pprofAnnotator{
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

// Labels returns the pprof labels currently applied.
func (p *pprofAnnotator) Labels() map[string]string {
	labels := make(map[string]string)
	pprof.ForLabels(p.currentContext, func(k, v string) bool {
		labels[k] = v
		return true
	})
	return labels
}

func (p *pprofAnnotator) Start(call *js.CallInfo) func() {
	if p.skipTrace(call) {
		return func() {}
	}
	// The context is kept on a stack rather than using pprof.Do so that the
	// interpreter does not need to run each call inside a closure.
	oldContext := p.currentContext
	prettyLabel, _ := p.prettyFunName(call)
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("function", prettyLabel))
	pprof.SetGoroutineLabels(p.currentContext)

	return func() {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
