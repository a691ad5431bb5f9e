// Copyright © 2024 The ELPS authors

package profiler

import (
	"context"
	"errors"

	"github.com/luthersystems/jsviz/js"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

type tracerKey struct{}

// ContextOpenTelemetryTracerKey looks up a parent tracer name from a context
// key.
var ContextOpenTelemetryTracerKey = tracerKey{}

// DefaultTracerName is the tracer used when the context names none.
const DefaultTracerName = "jsviz"

var _ js.Profiler = &otelAnnotator{}

type otelAnnotator struct {
	profiler
	currentContext context.Context
	currentSpan    trace.Span
}

// NewOpenTelemetryAnnotator returns a profiler that starts a span for every
// function call, as a child of the span in parentContext.
func NewOpenTelemetryAnnotator(parentContext context.Context, opts ...Option) *otelAnnotator {
	p := &otelAnnotator{
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *otelAnnotator) Enable() error {
	if p.currentContext == nil {
		return errors.New("we can only append spans to a context that is linked to opentelemetry")
	}
	return p.profiler.Enable()
}

func (p *otelAnnotator) Complete() error {
	if p.currentSpan != nil && p.currentSpan.IsRecording() {
		p.currentSpan.End()
	}
	return nil
}

func contextTracer(ctx context.Context) trace.Tracer {
	tracerName, ok := ctx.Value(ContextOpenTelemetryTracerKey).(string)
	if !ok {
		tracerName = DefaultTracerName
	}
	return otel.GetTracerProvider().Tracer(tracerName)
}

func (p *otelAnnotator) Start(call *js.CallInfo) func() {
	if p.skipTrace(call) {
		return func() {}
	}
	oldContext := p.currentContext
	prettyLabel, funName := p.prettyFunName(call)
	p.currentContext, p.currentSpan = contextTracer(p.currentContext).Start(p.currentContext, prettyLabel)
	p.addCodeAttributes(call, funName)
	return func() {
		p.currentSpan.End()
		// And pop the current context back
		p.currentContext = oldContext
		p.currentSpan = trace.SpanFromContext(p.currentContext)
	}
}

func (p *otelAnnotator) addCodeAttributes(call *js.CallInfo, funName string) {
	attrs := []attribute.KeyValue{
		semconv.CodeFunction(funName),
		attribute.Int("jsviz.depth", call.Depth),
	}
	if call.Line > 0 {
		attrs = append(attrs,
			semconv.CodeColumn(call.Column),
			semconv.CodeFilepath(call.File),
			semconv.CodeLineNumber(call.Line),
		)
	}
	if len(call.Params) > 0 {
		attrs = append(attrs, attribute.StringSlice("jsviz.params", call.Params))
	}
	p.currentSpan.SetAttributes(attrs...)
}
