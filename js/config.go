// Copyright © 2024 The ELPS authors

package js

import "github.com/charmbracelet/log"

// Default limits of an Interpreter.
const (
	DefaultMaxIterations = 1000
	DefaultMaxCallDepth  = 1000
)

// Config is a function that configures an Interpreter.
type Config func(in *Interpreter)

// WithMaxIterations returns a Config that stops every while and for loop
// after n executions of its body.  Loops stop silently, the remaining
// program continues to run.
func WithMaxIterations(n int) Config {
	return func(in *Interpreter) {
		in.maxIterations = n
	}
}

// WithMaxCallDepth returns a Config that limits the number of nested
// function calls.  Exceeding the limit aborts the run with a RangeError.
func WithMaxCallDepth(n int) Config {
	return func(in *Interpreter) {
		in.maxCallDepth = n
	}
}

// WithMaxSteps returns a Config that aborts a run with a StepLimit error
// when it would record more than n steps.  A value of 0 means unlimited (the
// default).
func WithMaxSteps(n int) Config {
	return func(in *Interpreter) {
		in.maxSteps = n
	}
}

// WithLogger returns a Config that makes the interpreter report unsupported
// syntax to logger instead of the default logger.
func WithLogger(logger *log.Logger) Config {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithProfiler returns a Config that attaches p to the interpreter.  The
// profiler is notified of every function call of every run.
func WithProfiler(p Profiler) Config {
	return func(in *Interpreter) {
		in.profiler = p
	}
}
