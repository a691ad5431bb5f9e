// Copyright © 2024 The ELPS authors

package js

import "fmt"

// ScopeID identifies a Scope within a single run.
type ScopeID uint

func (id ScopeID) String() string {
	return fmt.Sprintf("scope_%d", uint(id))
}

// MarshalText implements encoding.TextMarshaler.
func (id ScopeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// HeapID identifies a HeapObject within a single run.
type HeapID uint

func (id HeapID) String() string {
	return fmt.Sprintf("heap_%d", uint(id))
}

// MarshalText implements encoding.TextMarshaler.
func (id HeapID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// FrameID identifies a StackFrame within a single run.
type FrameID uint

func (id FrameID) String() string {
	return fmt.Sprintf("frame_%d", uint(id))
}

// MarshalText implements encoding.TextMarshaler.
func (id FrameID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// IDGenerator hands out scope, heap and frame identifiers.  Every run owns
// a fresh generator so identifiers restart from zero and repeated runs of
// the same source produce identical timelines.
type IDGenerator struct {
	scope uint
	heap  uint
	frame uint
}

// NewIDGenerator returns a generator whose counters all start at zero.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// Scope returns the next ScopeID.
func (g *IDGenerator) Scope() ScopeID {
	id := g.scope
	g.scope++
	return ScopeID(id)
}

// Heap returns the next HeapID.
func (g *IDGenerator) Heap() HeapID {
	id := g.heap
	g.heap++
	return HeapID(id)
}

// Frame returns the next FrameID.
func (g *IDGenerator) Frame() FrameID {
	id := g.frame
	g.frame++
	return FrameID(id)
}
