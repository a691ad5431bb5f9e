// Copyright © 2024 The ELPS authors

package js

import (
	"github.com/dop251/goja/ast"
	"github.com/luthersystems/jsviz/dom"
)

// StepKind classifies a recorded step.
type StepKind uint

// Possible StepKind values.
const (
	StepDeclaration StepKind = iota
	StepAssignment
	StepCall
	StepReturn
	StepExpression
	StepBlockEnter
	StepBlockExit
)

var stepKindStrings = []string{
	StepDeclaration: "declaration",
	StepAssignment:  "assignment",
	StepCall:        "call",
	StepReturn:      "return",
	StepExpression:  "expression",
	StepBlockEnter:  "block-enter",
	StepBlockExit:   "block-exit",
}

func (k StepKind) String() string {
	if int(k) >= len(stepKindStrings) {
		return "invalid"
	}
	return stepKindStrings[k]
}

// MarshalText implements encoding.TextMarshaler.
func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Step is the state of a program after one observable event.  Steps are
// never modified once they are recorded.
type Step struct {
	ID          int            `json:"id" yaml:"id"`
	Kind        StepKind       `json:"type" yaml:"type"`
	Description string         `json:"description" yaml:"description"`
	Line        int            `json:"line" yaml:"line"`
	Column      int            `json:"column" yaml:"column"`
	Scope       ScopeSnapshot  `json:"scopeSnapshot" yaml:"scopeSnapshot"`
	Memory      MemorySnapshot `json:"memorySnapshot" yaml:"memorySnapshot"`
	DOM         *dom.Operation `json:"dom,omitempty" yaml:"dom,omitempty"`
}

// Depth returns the height of the call stack at s, including the global
// frame.
func (s *Step) Depth() int {
	return len(s.Memory.Stack)
}

// Lookup resolves name through the scope chain captured by s.
func (s *Step) Lookup(name string) (Variable, bool) {
	return s.Scope.Lookup(name)
}

func (st *runState) record(kind StepKind, desc string, node ast.Node) error {
	return st.recordDOM(kind, desc, node, nil)
}

func (st *runState) recordDOM(kind StepKind, desc string, node ast.Node, op *dom.Operation) error {
	if max := st.interp.maxSteps; max > 0 && len(st.steps) >= max {
		return errStepLimit(max)
	}
	refreshClosures(st.mem)
	refreshFrames(st.mem, st.scopes)
	pos := st.prog.NodePosition(node)
	st.steps = append(st.steps, Step{
		ID:          len(st.steps),
		Kind:        kind,
		Description: desc,
		Line:        pos.Line,
		Column:      pos.Column,
		Scope:       st.scope.Snapshot(),
		Memory:      st.mem.Snapshot(),
		DOM:         op,
	})
	return nil
}

// errorStep is the lone step of a failed run.
func errorStep(err error) Step {
	return Step{
		Kind:        StepExpression,
		Description: "Error: " + err.Error(),
		Line:        1,
		Column:      0,
		Scope:       ScopeSnapshot{Scopes: []ScopeData{}},
		Memory:      MemorySnapshot{Heap: []ObjectData{}, Stack: []StackFrame{}},
	}
}
