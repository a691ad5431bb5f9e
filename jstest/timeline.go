// Copyright © 2024 The ELPS authors

package jstest

import (
	"testing"

	"github.com/luthersystems/jsviz/js"
	"github.com/stretchr/testify/assert"
)

// AssertTimeline runs tests to ensure that a completed timeline tl has the
// properties every timeline must have.  The following properties are tested
// by AssertTimeline:
//
//		Step ids are the indices of the steps.
//
//		The first step is "Start execution" and the last is "End execution".
//
//		The bottom frame of every step is the global frame.
//
//		Every scope chain ends at the global scope, the parent of each scope
//		is the next scope of the chain and the current scope is the first.
//
// AssertTimeline does not test whether the steps are the correct steps for
// the program that produced tl.
func AssertTimeline(t *testing.T, tl *js.Timeline) bool {
	t.Helper()
	if !assert.NoError(t, tl.Err) || !assert.NotEmpty(t, tl.Steps, "Cannot test an empty timeline") {
		return false
	}
	if !assert.Equal(t, "Start execution", tl.Steps[0].Description) {
		return false
	}
	if !assert.Equal(t, "End execution", tl.Final().Description) {
		return false
	}
	for i := range tl.Steps {
		step := &tl.Steps[i]
		if !assert.Equal(t, i, step.ID, "step id") {
			return false
		}
		if !testStack(t, step) || !testScopeChain(t, step) {
			return false
		}
	}
	return true
}

func testStack(t *testing.T, step *js.Step) bool {
	t.Helper()
	if !assert.NotEmpty(t, step.Memory.Stack, "step %d: empty stack", step.ID) {
		return false
	}
	return assert.Equal(t, "global", step.Memory.Stack[0].Name, "step %d: bottom frame", step.ID)
}

func testScopeChain(t *testing.T, step *js.Step) bool {
	t.Helper()
	chain := step.Scope.Scopes
	if !assert.NotEmpty(t, chain, "step %d: empty scope chain", step.ID) {
		return false
	}
	if !assert.Equal(t, step.Scope.Current, chain[0].ID, "step %d: current scope", step.ID) {
		return false
	}
	for i := range chain[:len(chain)-1] {
		parent := chain[i].ParentID
		if !assert.NotNil(t, parent, "step %d: scope %v has no parent", step.ID, chain[i].ID) {
			return false
		}
		if !assert.Equal(t, chain[i+1].ID, *parent, "step %d: parent of %v", step.ID, chain[i].ID) {
			return false
		}
	}
	last := chain[len(chain)-1]
	return assert.Equal(t, js.GlobalScope, last.Kind, "step %d: root scope", step.ID) &&
		assert.Nil(t, last.ParentID, "step %d: root scope parent", step.ID)
}

// AssertDeterministic runs src twice with fresh interpreters and asserts the
// timelines are identical.
func AssertDeterministic(t *testing.T, src string, config ...js.Config) bool {
	t.Helper()
	a := NewInterpreter(t, config...).Run("test.js", src)
	b := NewInterpreter(t, config...).Run("test.js", src)
	return assert.Equal(t, a.Steps, b.Steps)
}
