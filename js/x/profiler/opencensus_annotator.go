// Copyright © 2024 The ELPS authors

package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/jsviz/js"
	"go.opencensus.io/trace"
)

type ocAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    *trace.Span
	contexts       []context.Context
}

var _ js.Profiler = &ocAnnotator{}

// NewOpenCensusAnnotator returns a profiler that starts an OpenCensus span
// for every function call.
func NewOpenCensusAnnotator(parentContext context.Context, opts ...Option) *ocAnnotator {
	p := &ocAnnotator{
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

// EnableWithContext enables the profiler with ctx as the parent of every
// span.
func (p *ocAnnotator) EnableWithContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("set a context to use this function")
	}
	p.currentContext = ctx
	return p.profiler.Enable()
}

func (p *ocAnnotator) Enable() error {
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opencensus")
	}
	return p.profiler.Enable()
}

func (p *ocAnnotator) Complete() error {
	if p.currentSpan != nil && len(p.contexts) > 0 {
		p.currentSpan.End()
	}
	return nil
}

func (p *ocAnnotator) Start(call *js.CallInfo) func() {
	if p.skipTrace(call) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(call)
	p.contexts = append(p.contexts, p.currentContext)
	p.currentContext, p.currentSpan = trace.StartSpan(p.currentContext, prettyLabel)
	return func() {
		p.currentSpan.Annotate([]trace.Attribute{
			trace.StringAttribute("file", call.File),
			trace.Int64Attribute("line", int64(call.Line)),
		}, "source")
		p.currentSpan.End()
		// And pop the current context back
		n := len(p.contexts) - 1
		p.currentContext = p.contexts[n]
		p.contexts = p.contexts[:n]
		p.currentSpan = trace.FromContext(p.currentContext)
	}
}
