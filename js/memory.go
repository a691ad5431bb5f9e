// Copyright © 2024 The ELPS authors

package js

import (
	"github.com/dop251/goja/ast"
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// ObjectType is the type of a heap object.
type ObjectType uint

// Possible ObjectType values.
const (
	TypeObject ObjectType = iota
	TypeArray
	TypeFunction
)

var objectTypeStrings = []string{
	TypeObject:   "object",
	TypeArray:    "array",
	TypeFunction: "function",
}

func (t ObjectType) String() string {
	if int(t) >= len(objectTypeStrings) {
		return "invalid"
	}
	return objectTypeStrings[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t ObjectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Property is one key/value pair of a heap object.
type Property struct {
	Key   string `json:"key" yaml:"key"`
	Value Value  `json:"value" yaml:"value"`
}

// ClosureVariable is a read-only view of a variable captured by a function.
type ClosureVariable struct {
	Name      string `json:"name" yaml:"name"`
	Value     Value  `json:"value" yaml:"value"`
	FromScope string `json:"fromScope" yaml:"fromScope"`
}

// Function is the code of a function object.  Scope is the scope the
// function was created in, which keeps that scope alive for as long as the
// function is reachable.
type Function struct {
	Name   string
	Params []string
	// Defaults holds the default value expression of each parameter, nil
	// where a parameter has none.
	Defaults []ast.Expression
	Body     []ast.Statement
	Scope    *Scope
	Node     ast.Node
	Source   string
}

// HeapObject is a reference-typed value.  Heap objects are never freed
// during a run.
type HeapObject struct {
	ID      HeapID
	Type    ObjectType
	Name    string
	Closure []ClosureVariable
	Func    *Function
	props   *linkedhashmap.Map
	capture bool
}

// Property returns the value of key and whether it is set.
func (obj *HeapObject) Property(key string) (Value, bool) {
	v, ok := obj.props.Get(key)
	if !ok {
		return Undefined(), false
	}
	return v.(Value), true
}

// Properties returns the properties of obj in insertion order.
func (obj *HeapObject) Properties() []Property {
	props := make([]Property, 0, obj.props.Size())
	it := obj.props.Iterator()
	for it.Next() {
		props = append(props, Property{Key: it.Key().(string), Value: it.Value().(Value)})
	}
	return props
}

// StackFrame is one activation on the call stack.  Variables holds the
// locals of the frame's scope as of the latest snapshot.
type StackFrame struct {
	ID            FrameID    `json:"id" yaml:"id"`
	Name          string     `json:"name" yaml:"name"`
	ScopeID       ScopeID    `json:"scopeId" yaml:"scopeId"`
	ReturnAddress int        `json:"returnAddress,omitempty" yaml:"returnAddress,omitempty"`
	Variables     []Variable `json:"variables" yaml:"variables"`
}

// Memory is the heap and call stack of a run.
type Memory struct {
	ids   *IDGenerator
	heap  *linkedhashmap.Map
	stack []*StackFrame
}

// NewMemory returns an empty Memory drawing identifiers from ids.
func NewMemory(ids *IDGenerator) *Memory {
	return &Memory{
		ids:  ids,
		heap: linkedhashmap.New(),
	}
}

// Allocate creates a heap object and returns its id.  A function allocated
// with a non-empty closure has its closure refreshed before every snapshot.
func (m *Memory) Allocate(typ ObjectType, props []Property, name string, closure []ClosureVariable) HeapID {
	obj := &HeapObject{
		ID:      m.ids.Heap(),
		Type:    typ,
		Name:    name,
		Closure: closure,
		props:   linkedhashmap.New(),
		capture: len(closure) > 0,
	}
	for _, p := range props {
		obj.props.Put(p.Key, p.Value)
	}
	m.heap.Put(obj.ID, obj)
	return obj.ID
}

// Object returns the heap object id, or nil if there is none.
func (m *Memory) Object(id HeapID) *HeapObject {
	obj, ok := m.heap.Get(id)
	if !ok {
		return nil
	}
	return obj.(*HeapObject)
}

// SetProperty sets key on object id.  A missing object is ignored.
func (m *Memory) SetProperty(id HeapID, key string, v Value) {
	obj := m.Object(id)
	if obj == nil {
		return
	}
	obj.props.Put(key, v)
}

// Property reads key from object id.  A missing object or key reads as
// undefined.
func (m *Memory) Property(id HeapID, key string) Value {
	obj := m.Object(id)
	if obj == nil {
		return Undefined()
	}
	v, _ := obj.Property(key)
	return v
}

// Objects returns every heap object in allocation order.
func (m *Memory) Objects() []*HeapObject {
	objs := make([]*HeapObject, 0, m.heap.Size())
	it := m.heap.Iterator()
	for it.Next() {
		objs = append(objs, it.Value().(*HeapObject))
	}
	return objs
}

// PushFrame pushes a new frame and returns its id.  A returnAddress of zero
// means the frame has none.
func (m *Memory) PushFrame(name string, scope ScopeID, returnAddress int) FrameID {
	f := &StackFrame{
		ID:            m.ids.Frame(),
		Name:          name,
		ScopeID:       scope,
		ReturnAddress: returnAddress,
	}
	m.stack = append(m.stack, f)
	return f.ID
}

// PopFrame pops the top frame.  Popping an empty stack is a bug in the
// evaluator and panics.
func (m *Memory) PopFrame() *StackFrame {
	if len(m.stack) == 0 {
		panic("pop called on an empty stack")
	}
	top := m.stack[len(m.stack)-1]
	m.stack[len(m.stack)-1] = nil
	m.stack = m.stack[:len(m.stack)-1]
	return top
}

// Top returns the frame on top of the stack, or nil.
func (m *Memory) Top() *StackFrame {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Depth returns the number of frames on the stack.
func (m *Memory) Depth() int {
	return len(m.stack)
}

// ObjectData is the frozen state of one heap object.
type ObjectData struct {
	ID         HeapID            `json:"id" yaml:"id"`
	Type       ObjectType        `json:"type" yaml:"type"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Params     []string          `json:"params,omitempty" yaml:"params,omitempty"`
	Properties []Property        `json:"properties" yaml:"properties"`
	Closure    []ClosureVariable `json:"closure,omitempty" yaml:"closure,omitempty"`
}

// Property returns the frozen value of key.
func (d *ObjectData) Property(key string) (Value, bool) {
	for _, p := range d.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return Undefined(), false
}

// ClosureVariable returns the captured variable name.
func (d *ObjectData) ClosureVariable(name string) (ClosureVariable, bool) {
	for _, c := range d.Closure {
		if c.Name == name {
			return c, true
		}
	}
	return ClosureVariable{}, false
}

// MemorySnapshot is the frozen heap and stack of a step.  Stack is ordered
// bottom first.
type MemorySnapshot struct {
	Heap  []ObjectData `json:"heap" yaml:"heap"`
	Stack []StackFrame `json:"stack" yaml:"stack"`
}

// Object returns the frozen heap object id.
func (ms MemorySnapshot) Object(id HeapID) (*ObjectData, bool) {
	for i := range ms.Heap {
		if ms.Heap[i].ID == id {
			return &ms.Heap[i], true
		}
	}
	return nil, false
}

// Snapshot deep-copies the heap and the stack.
func (m *Memory) Snapshot() MemorySnapshot {
	snap := MemorySnapshot{
		Heap:  make([]ObjectData, 0, m.heap.Size()),
		Stack: make([]StackFrame, 0, len(m.stack)),
	}
	for _, obj := range m.Objects() {
		d := ObjectData{
			ID:         obj.ID,
			Type:       obj.Type,
			Name:       obj.Name,
			Properties: obj.Properties(),
		}
		if obj.Func != nil {
			d.Params = append([]string(nil), obj.Func.Params...)
		}
		if len(obj.Closure) > 0 {
			d.Closure = append([]ClosureVariable(nil), obj.Closure...)
		}
		snap.Heap = append(snap.Heap, d)
	}
	for _, f := range m.stack {
		frame := *f
		frame.Variables = append([]Variable(nil), f.Variables...)
		snap.Stack = append(snap.Stack, frame)
	}
	return snap
}
