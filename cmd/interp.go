// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/js/x/profiler"
	"github.com/spf13/viper"
	octrace "go.opencensus.io/trace"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// interpreterConfig returns the interpreter options selected by flags,
// environment variables and configuration files.
func interpreterConfig(logger *log.Logger) []js.Config {
	return []js.Config{
		js.WithLogger(logger),
		js.WithMaxIterations(viper.GetInt("max-iterations")),
		js.WithMaxCallDepth(viper.GetInt("max-call-depth")),
		js.WithMaxSteps(viper.GetInt("max-steps")),
	}
}

// runSource runs src with an interpreter configured from the command line.
// The tracer selected with --trace observes the run.
func runSource(ctx context.Context, name, src string, extra ...js.Config) (*js.Timeline, error) {
	logger := log.Default()
	config := interpreterConfig(logger)
	prof, complete, err := newProfiler(ctx, viper.GetString("trace"), viper.GetString("trace-file"), logger)
	if err != nil {
		return nil, err
	}
	if prof != nil {
		if err := prof.Enable(); err != nil {
			return nil, err
		}
		config = append(config, js.WithProfiler(prof))
	}
	config = append(config, extra...)

	tl := js.NewInterpreter(config...).Run(name, src)
	logger.Debug("run complete", "name", name, "steps", tl.Len(), "failed", tl.Failed())
	if err := complete(ctx); err != nil {
		return tl, fmt.Errorf("trace: %w", err)
	}
	return tl, nil
}

// newProfiler returns the profiler for a --trace kind and a function
// flushing it once the run is over.  The "none" kind returns a nil
// profiler.
func newProfiler(ctx context.Context, kind, traceFile string, logger *log.Logger) (js.Profiler, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	switch strings.ToLower(kind) {
	case "", "none":
		return nil, noop, nil
	case "otel":
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(&logSpanExporter{logger: logger}))
		otel.SetTracerProvider(tp)
		p := profiler.NewOpenTelemetryAnnotator(ctx)
		return p, func(ctx context.Context) error {
			if err := p.Complete(); err != nil {
				return err
			}
			return tp.Shutdown(ctx)
		}, nil
	case "opencensus":
		exp := &ocLogExporter{logger: logger}
		octrace.RegisterExporter(exp)
		octrace.ApplyConfig(octrace.Config{DefaultSampler: octrace.AlwaysSample()})
		p := profiler.NewOpenCensusAnnotator(ctx)
		return p, func(context.Context) error {
			defer octrace.UnregisterExporter(exp)
			return p.Complete()
		}, nil
	case "pprof":
		p := profiler.NewPprofAnnotator(ctx)
		return p, func(context.Context) error { return p.Complete() }, nil
	case "callgrind":
		f, err := os.Create(traceFile) //nolint:gosec // user-specified output file
		if err != nil {
			return nil, nil, err
		}
		p := profiler.NewCallgrindProfiler(f)
		return p, func(context.Context) error {
			logger.Info("callgrind profile written", "path", traceFile)
			return p.Complete()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown trace kind %q (expected none, otel, opencensus, pprof or callgrind)", kind)
}

// logSpanExporter writes finished OpenTelemetry spans to a logger.
type logSpanExporter struct {
	logger *log.Logger
}

var _ sdktrace.SpanExporter = (*logSpanExporter)(nil)

func (e *logSpanExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		e.logger.Info("span",
			"name", s.Name(),
			"trace", s.SpanContext().TraceID().String(),
			"parent", s.Parent().SpanID().String(),
			"duration", s.EndTime().Sub(s.StartTime()))
	}
	return nil
}

func (e *logSpanExporter) Shutdown(context.Context) error {
	return nil
}

// ocLogExporter writes finished OpenCensus spans to a logger.
type ocLogExporter struct {
	logger *log.Logger
}

var _ octrace.Exporter = (*ocLogExporter)(nil)

func (e *ocLogExporter) ExportSpan(s *octrace.SpanData) {
	e.logger.Info("span",
		"name", s.Name,
		"trace", s.TraceID.String(),
		"parent", s.ParentSpanID.String(),
		"duration", s.EndTime.Sub(s.StartTime))
}

// readSource returns the program named by args, or expr when it is set.
// The path "-" reads standard input.
func readSource(args []string, expr string, stdin io.Reader) (name, src string, err error) {
	if expr != "" {
		if len(args) > 0 {
			return "", "", fmt.Errorf("cannot combine --expression with a file argument")
		}
		return "<expr>", expr, nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("expected one source file (or --expression)")
	}
	if args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", err
		}
		return "<stdin>", string(b), nil
	}
	b, err := os.ReadFile(args[0]) //nolint:gosec // user-specified source file
	if err != nil {
		return "", "", err
	}
	return args[0], string(b), nil
}
