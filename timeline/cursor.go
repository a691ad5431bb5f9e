// Copyright © 2024 The ELPS authors

/*
Package timeline navigates the steps recorded by the interpreter.

A Cursor points at one step of a timeline and moves in either direction,
which is what makes a recorded run scrubbable: stepping backward is as cheap
as stepping forward because every step carries its own snapshot.
*/
package timeline

import (
	"fmt"

	"github.com/luthersystems/jsviz/js"
)

// Cursor is a position within a timeline.  Every move reports whether the
// position changed.
//
// Thread safety: Cursor is NOT safe for concurrent use.  Its breakpoints
// are.
type Cursor struct {
	steps       []js.Step
	pos         int
	breakpoints *BreakpointStore
}

// NewCursor returns a cursor at the first step of tl.
func NewCursor(tl *js.Timeline) *Cursor {
	return &Cursor{
		steps:       tl.Steps,
		breakpoints: NewBreakpointStore(),
	}
}

// Len returns the number of steps.
func (c *Cursor) Len() int {
	return len(c.steps)
}

// Index returns the index of the current step.
func (c *Cursor) Index() int {
	return c.pos
}

// Current returns the current step, or nil for an empty timeline.
func (c *Cursor) Current() *js.Step {
	if len(c.steps) == 0 {
		return nil
	}
	return &c.steps[c.pos]
}

// Step returns the step at index i, or nil.
func (c *Cursor) Step(i int) *js.Step {
	if i < 0 || i >= len(c.steps) {
		return nil
	}
	return &c.steps[i]
}

// AtStart returns true if the cursor is on the first step.
func (c *Cursor) AtStart() bool {
	return c.pos == 0
}

// AtEnd returns true if the cursor is on the last step.
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.steps)-1
}

func (c *Cursor) moveTo(i int) bool {
	if i == c.pos {
		return false
	}
	c.pos = i
	return true
}

// Next moves to the following step.
func (c *Cursor) Next() bool {
	if c.AtEnd() {
		return false
	}
	return c.moveTo(c.pos + 1)
}

// Prev moves to the preceding step.
func (c *Cursor) Prev() bool {
	if c.AtStart() {
		return false
	}
	return c.moveTo(c.pos - 1)
}

// Seek moves to step i.
func (c *Cursor) Seek(i int) (bool, error) {
	if i < 0 || i >= len(c.steps) {
		return false, fmt.Errorf("step %d out of range [0, %d)", i, len(c.steps))
	}
	return c.moveTo(i), nil
}

// Reset moves to the first step.
func (c *Cursor) Reset() bool {
	return c.moveTo(0)
}

// End moves to the last step.
func (c *Cursor) End() bool {
	if len(c.steps) == 0 {
		return false
	}
	return c.moveTo(len(c.steps) - 1)
}

// Breakpoints returns the breakpoints consulted by Continue and
// ReverseContinue.
func (c *Cursor) Breakpoints() *BreakpointStore {
	return c.breakpoints
}

// SetBreakpoints replaces every breakpoint with breakpoints on lines.
func (c *Cursor) SetBreakpoints(lines []int) []*Breakpoint {
	return c.breakpoints.SetLines(lines)
}

// Continue moves forward to the next step on a breakpoint line, or to the
// last step when no later step is on one.
func (c *Cursor) Continue() bool {
	for i := c.pos + 1; i < len(c.steps); i++ {
		if c.breakpoints.Match(c.steps[i].Line) != nil {
			return c.moveTo(i)
		}
	}
	return c.End()
}

// ReverseContinue moves backward to the previous step on a breakpoint line,
// or to the first step when no earlier step is on one.
func (c *Cursor) ReverseContinue() bool {
	for i := c.pos - 1; i >= 0; i-- {
		if c.breakpoints.Match(c.steps[i].Line) != nil {
			return c.moveTo(i)
		}
	}
	return c.Reset()
}

// StepOver moves forward to the next step whose stack is no deeper than the
// current one, skipping the steps of calls made from the current frame.
func (c *Cursor) StepOver() bool {
	cur := c.Current()
	if cur == nil {
		return false
	}
	depth := cur.Depth()
	for i := c.pos + 1; i < len(c.steps); i++ {
		if c.steps[i].Depth() <= depth {
			return c.moveTo(i)
		}
	}
	return c.End()
}

// StepBack moves backward to the previous step whose stack is no deeper
// than the current one.
func (c *Cursor) StepBack() bool {
	cur := c.Current()
	if cur == nil {
		return false
	}
	depth := cur.Depth()
	for i := c.pos - 1; i >= 0; i-- {
		if c.steps[i].Depth() <= depth {
			return c.moveTo(i)
		}
	}
	return c.Reset()
}

// StepOut moves forward to the first step after the current frame has been
// popped.
func (c *Cursor) StepOut() bool {
	cur := c.Current()
	if cur == nil {
		return false
	}
	depth := cur.Depth()
	for i := c.pos + 1; i < len(c.steps); i++ {
		if c.steps[i].Depth() < depth {
			return c.moveTo(i)
		}
	}
	return c.End()
}
