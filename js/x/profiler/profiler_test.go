// Copyright © 2024 The ELPS authors

package profiler_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/js/x/profiler"
	"github.com/luthersystems/jsviz/jstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testJS = `function add(a, b) {
  return a + b;
}
function twice(x) {
  return add(x, x);
}
let r = twice(add(1, 2));
`

func newExporter(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func TestOpenTelemetryAnnotator(t *testing.T) {
	exporter := newExporter(t)
	p := profiler.NewOpenTelemetryAnnotator(context.Background())
	assert.False(t, p.IsEnabled())
	require.NoError(t, p.Enable())
	assert.Error(t, p.Enable())
	tl := jstest.Run(t, testJS, js.WithProfiler(p))
	assert.NoError(t, p.Complete())
	r, _ := tl.Final().Lookup("r")
	assert.Equal(t, js.Number(6), r.Value)

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "add", spans[0].Name)
	assert.Equal(t, "add", spans[1].Name)
	assert.Equal(t, "twice", spans[2].Name)
	assert.False(t, spans[0].Parent.IsValid())
	assert.Equal(t, spans[2].SpanContext.SpanID(), spans[1].Parent.SpanID())
	assert.Contains(t, spans[1].Attributes, semconv.CodeFunction("add"))
	assert.Contains(t, spans[1].Attributes, semconv.CodeLineNumber(5))
	assert.Contains(t, spans[1].Attributes, semconv.CodeFilepath("test.js"))
}

func TestOpenTelemetryAnnotatorOptions(t *testing.T) {
	exporter := newExporter(t)
	p := profiler.NewOpenTelemetryAnnotator(context.Background(),
		profiler.WithNameFilter("^add$"),
		profiler.WithQualifiedLabeler())
	require.NoError(t, p.Enable())
	jstest.Run(t, testJS, js.WithProfiler(p))
	require.NoError(t, p.Complete())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "test.js:add", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, semconv.CodeFunction("add"))
}

func TestOpenTelemetryAnnotatorMaxDepth(t *testing.T) {
	exporter := newExporter(t)
	p := profiler.NewOpenTelemetryAnnotator(context.Background(),
		profiler.WithMaxDepth(2),
		profiler.WithSignatureLabeler())
	require.NoError(t, p.Enable())
	jstest.Run(t, testJS, js.WithProfiler(p))
	require.NoError(t, p.Complete())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "add(a,b)", spans[0].Name)
	assert.Equal(t, "twice(x)", spans[1].Name)
}

func TestOpenTelemetryAnnotatorNilContext(t *testing.T) {
	//nolint:staticcheck
	p := profiler.NewOpenTelemetryAnnotator(nil)
	assert.Error(t, p.Enable())
	assert.False(t, p.IsEnabled())
}

type spanCollector struct {
	mu    sync.Mutex
	spans []*octrace.SpanData
}

func (c *spanCollector) ExportSpan(sd *octrace.SpanData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, sd)
}

func TestOpenCensusAnnotator(t *testing.T) {
	octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
	c := &spanCollector{}
	octrace.RegisterExporter(c)
	t.Cleanup(func() { octrace.UnregisterExporter(c) })

	p := profiler.NewOpenCensusAnnotator(context.Background())
	require.NoError(t, p.Enable())
	jstest.Run(t, testJS, js.WithProfiler(p))
	require.NoError(t, p.Complete())

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.spans, 3)
	assert.Equal(t, "add", c.spans[0].Name)
	assert.Equal(t, "twice", c.spans[2].Name)
	assert.Equal(t, c.spans[2].SpanID, c.spans[1].ParentSpanID)
	require.NotEmpty(t, c.spans[1].Annotations)
	assert.Equal(t, "source", c.spans[1].Annotations[0].Message)
	assert.Equal(t, int64(5), c.spans[1].Annotations[0].Attributes["line"])
}

func TestOpenCensusAnnotatorEnableWithContext(t *testing.T) {
	//nolint:staticcheck
	p := profiler.NewOpenCensusAnnotator(nil)
	assert.Error(t, p.Enable())
	//nolint:staticcheck
	assert.Error(t, p.EnableWithContext(nil))
	assert.NoError(t, p.EnableWithContext(context.Background()))
	assert.True(t, p.IsEnabled())
}

func TestCallgrindProfiler(t *testing.T) {
	var buf bytes.Buffer
	p := profiler.NewCallgrindProfiler(&buf)
	require.NoError(t, p.Enable())
	jstest.Run(t, testJS, js.WithProfiler(p))
	require.NoError(t, p.Complete())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "version: 1\n"), out)
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, out, ") add\n")
	assert.Contains(t, out, ") twice\n")
	assert.Contains(t, out, ") ENTRYPOINT\n")
	assert.Equal(t, 3, strings.Count(out, "calls=1 0 0\n"), out)
	assert.Contains(t, out, "\nsummary ")
}

func TestCallgrindProfilerNoWriter(t *testing.T) {
	p := profiler.NewCallgrindProfiler(nil)
	assert.Error(t, p.Enable())
	assert.Error(t, p.Complete())
}

func TestPprofAnnotator(t *testing.T) {
	p := profiler.NewPprofAnnotator(nil)
	require.NoError(t, p.Enable())
	end := p.Start(&js.CallInfo{Name: "work", Depth: 2})
	assert.Equal(t, map[string]string{"function": "work"}, p.Labels())
	end()
	assert.Empty(t, p.Labels())
	jstest.Run(t, testJS, js.WithProfiler(p))
	assert.Empty(t, p.Labels())
	assert.NoError(t, p.Complete())
}
