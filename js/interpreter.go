// Copyright © 2024 The ELPS authors

/*
Package js implements a step-recording interpreter for a subset of
JavaScript.

Running a program produces a Timeline: one Step per observable event
(declarations, assignments, calls, returns, branch and loop tests, block
boundaries), each holding an independent snapshot of the scope chain, the
heap and the call stack at that moment.  Timelines are deterministic, the
same source always produces the same steps and identifiers.
*/
package js

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/luthersystems/jsviz/parser"
)

// Interpreter runs programs.  An Interpreter holds configuration only, every
// run gets a private state, so a single Interpreter may run programs from
// multiple goroutines as long as its Profiler (if any) allows it.
type Interpreter struct {
	maxIterations int
	maxCallDepth  int
	maxSteps      int
	logger        *log.Logger
	profiler      Profiler
}

// NewInterpreter returns an Interpreter configured by config.
func NewInterpreter(config ...Config) *Interpreter {
	in := &Interpreter{
		maxIterations: DefaultMaxIterations,
		maxCallDepth:  DefaultMaxCallDepth,
	}
	for _, fn := range config {
		fn(in)
	}
	if in.logger == nil {
		in.logger = log.Default()
	}
	return in
}

// Logger returns the logger the interpreter reports to.
func (in *Interpreter) Logger() *log.Logger {
	return in.logger
}

// Timeline is the result of a run.  A failed run has Err set and a single
// step describing the failure.
type Timeline struct {
	Name   string `json:"name" yaml:"name"`
	Source string `json:"-" yaml:"-"`
	Steps  []Step `json:"steps" yaml:"steps"`
	Err    error  `json:"-" yaml:"-"`
}

// Len returns the number of steps in t.
func (t *Timeline) Len() int {
	return len(t.Steps)
}

// Final returns the last step of t, or nil if t is empty.
func (t *Timeline) Final() *Step {
	if len(t.Steps) == 0 {
		return nil
	}
	return &t.Steps[len(t.Steps)-1]
}

// Failed returns true if the run that produced t did not complete.
func (t *Timeline) Failed() bool {
	return t.Err != nil
}

// runState is everything a single run mutates.
type runState struct {
	interp *Interpreter
	prog   *parser.Program
	ids    *IDGenerator
	global *Scope
	scope  *Scope
	mem    *Memory
	scopes map[ScopeID]*Scope
	steps  []Step
	calls  int
}

// Run parses src and executes it.  Run never returns a nil Timeline; errors
// are reported through Timeline.Err.
func (in *Interpreter) Run(name string, src string) *Timeline {
	prog, err := parser.Parse(name, src)
	if err != nil {
		return failed(name, src, parseError(name, err))
	}
	return in.RunProgram(prog)
}

// RunProgram executes a parsed program.
func (in *Interpreter) RunProgram(prog *parser.Program) *Timeline {
	st := &runState{
		interp: in,
		prog:   prog,
		ids:    NewIDGenerator(),
		scopes: make(map[ScopeID]*Scope),
	}
	st.mem = NewMemory(st.ids)
	st.global = st.newScope(GlobalScope, "global", nil)
	st.scope = st.global
	st.mem.PushFrame("global", st.global.ID, 0)

	if err := st.run(); err != nil {
		return failed(prog.Name, prog.Source, st.traceback(st.locate(err, nil)))
	}
	return &Timeline{
		Name:   prog.Name,
		Source: prog.Source,
		Steps:  st.steps,
	}
}

func (st *runState) run() error {
	if err := st.record(StepBlockEnter, "Start execution", nil); err != nil {
		return err
	}
	body := st.prog.Body
	if err := st.hoistVars(st.global, body); err != nil {
		return err
	}
	if err := st.hoistLexical(st.global, body); err != nil {
		return err
	}
	if err := st.hoistFunctions(body); err != nil {
		return err
	}
	if _, err := st.execList(body); err != nil {
		return err
	}
	return st.record(StepBlockExit, "End execution", nil)
}

func (st *runState) newScope(kind ScopeKind, name string, parent *Scope) *Scope {
	s := NewScope(st.ids.Scope(), kind, name, parent)
	st.scopes[s.ID] = s
	return s
}

// traceback attaches the call stack of the failed run to err.
func (st *runState) traceback(err error) error {
	var jserr *Error
	if !errors.As(err, &jserr) || jserr.Stack != nil {
		return err
	}
	jserr.Stack = make([]CallSite, 0, len(st.mem.stack))
	for i := len(st.mem.stack) - 1; i >= 0; i-- {
		f := st.mem.stack[i]
		jserr.Stack = append(jserr.Stack, CallSite{Name: f.Name, Line: f.ReturnAddress})
	}
	return err
}

func failed(name, src string, err error) *Timeline {
	return &Timeline{
		Name:   name,
		Source: src,
		Steps:  []Step{errorStep(err)},
		Err:    err,
	}
}

func parseError(name string, err error) *Error {
	jserr := &Error{
		Kind:    ParseFailure,
		File:    name,
		Message: err.Error(),
	}
	var list parser.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		jserr.Message = list[0].Message
		jserr.Line = list[0].Line
		jserr.Column = list[0].Column
	}
	return jserr
}
