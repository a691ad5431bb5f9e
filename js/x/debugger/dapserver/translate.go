// Copyright © 2024 The ELPS authors

package dapserver

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/google/go-dap"
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/timeline"
)

// threadID is the single thread ID used for the replayed program.
const threadID = 1

func sourceFor(path string) *dap.Source {
	if path == "" {
		return nil
	}
	return &dap.Source{
		Name: filepath.Base(path),
		Path: path,
	}
}

// translateStackFrames converts the call stack of step to DAP StackFrame
// objects, most recent first.  Frame IDs are the 1-based stack index with
// the global frame at 1.  The top frame is located at the step itself and
// every other frame at the line it made its call from.
func translateStackFrames(step *js.Step, src *dap.Source) []dap.StackFrame {
	stack := step.Memory.Stack
	if len(stack) == 0 {
		return nil
	}
	frames := make([]dap.StackFrame, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		sf := dap.StackFrame{
			Id:     i + 1,
			Name:   stack[i].Name,
			Source: src,
			Column: 1,
		}
		if i == len(stack)-1 {
			sf.Line = step.Line
			sf.Column = step.Column + 1
		} else {
			sf.Line = stack[i+1].ReturnAddress
		}
		frames = append(frames, sf)
	}
	return frames
}

func frameByID(step *js.Step, id int) *js.StackFrame {
	if id < 1 || id > len(step.Memory.Stack) {
		return nil
	}
	return &step.Memory.Stack[id-1]
}

func scopeName(d js.ScopeData) string {
	switch d.Kind {
	case js.GlobalScope:
		return "Global"
	case js.FunctionScope:
		return "Local: " + d.Name
	}
	return "Block: " + d.Name
}

func scopeHint(d js.ScopeData) string {
	if d.Kind == js.GlobalScope {
		return ""
	}
	return "locals"
}

// translateBreakpoints converts breakpoints to DAP breakpoints.  A
// breakpoint is verified when at least one step was recorded on its line.
func translateBreakpoints(bps []*timeline.Breakpoint, steps []js.Step, src *dap.Source) []dap.Breakpoint {
	lines := make(map[int]bool)
	for i := range steps {
		lines[steps[i].Line] = true
	}
	out := make([]dap.Breakpoint, len(bps))
	for i, bp := range bps {
		out[i] = dap.Breakpoint{
			Id:       bp.ID,
			Verified: lines[bp.Line],
			Line:     bp.Line,
			Source:   src,
		}
		if !out[i].Verified {
			out[i].Message = "no step was recorded on this line"
		}
	}
	return out
}

// translateVariables converts bindings to DAP Variable objects.  allocRef
// assigns a variable reference for expandable values.
func translateVariables(vars []js.Variable, mem *js.MemorySnapshot, allocRef func(js.Value) int) []dap.Variable {
	out := make([]dap.Variable, len(vars))
	for i, v := range vars {
		out[i] = dap.Variable{
			Name:         v.Name,
			EvaluateName: v.Name,
		}
		if !v.Initialized {
			out[i].Value = "<uninitialized>"
			out[i].Type = v.Kind.String()
			continue
		}
		out[i].Value = formatValue(v.Value, mem)
		out[i].Type = valueTypeName(v.Value, mem)
		out[i].VariablesReference = allocRef(v.Value)
	}
	return out
}

// expandObject returns the child variables of a heap object: its
// properties, and for functions the variables they capture.
func expandObject(obj *js.ObjectData, mem *js.MemorySnapshot, allocRef func(js.Value) int) []dap.Variable {
	out := make([]dap.Variable, 0, len(obj.Properties)+len(obj.Closure))
	for _, p := range obj.Properties {
		name := p.Key
		if obj.Type == js.TypeArray && p.Key != "length" {
			name = "[" + p.Key + "]"
		}
		out = append(out, dap.Variable{
			Name:               name,
			Value:              formatValue(p.Value, mem),
			Type:               valueTypeName(p.Value, mem),
			VariablesReference: allocRef(p.Value),
		})
	}
	for _, c := range obj.Closure {
		out = append(out, dap.Variable{
			Name:               fmt.Sprintf("%s (%s)", c.Name, c.FromScope),
			Value:              formatValue(c.Value, mem),
			Type:               valueTypeName(c.Value, mem),
			VariablesReference: allocRef(c.Value),
			PresentationHint:   &dap.VariablePresentationHint{Kind: "data", Attributes: []string{"readOnly"}},
		})
	}
	return out
}

func expandable(obj *js.ObjectData) bool {
	return len(obj.Properties) > 0 || len(obj.Closure) > 0
}

// formatValue renders v for display.  Arrays and objects are shown one
// level deep.
func formatValue(v js.Value, mem *js.MemorySnapshot) string {
	if v.Kind != js.VReference {
		return v.Format()
	}
	obj, ok := mem.Object(v.Ref)
	if !ok {
		return v.Format()
	}
	switch obj.Type {
	case js.TypeFunction:
		return summarize(obj)
	case js.TypeArray:
		var elems []string
		for _, p := range obj.Properties {
			if p.Key == "length" {
				continue
			}
			elems = append(elems, formatShallow(p.Value, mem))
		}
		return fmt.Sprintf("Array(%d) [%s]", len(elems), strings.Join(elems, ", "))
	}
	props := make([]string, len(obj.Properties))
	for i, p := range obj.Properties {
		props[i] = p.Key + ": " + formatShallow(p.Value, mem)
	}
	return "{" + strings.Join(props, ", ") + "}"
}

func formatShallow(v js.Value, mem *js.MemorySnapshot) string {
	if v.Kind != js.VReference {
		return v.Format()
	}
	obj, ok := mem.Object(v.Ref)
	if !ok {
		return v.Format()
	}
	return summarize(obj)
}

func summarize(obj *js.ObjectData) string {
	switch obj.Type {
	case js.TypeFunction:
		return fmt.Sprintf("function %s(%s)", obj.Name, strings.Join(obj.Params, ", "))
	case js.TypeArray:
		n := len(obj.Properties)
		if _, ok := obj.Property("length"); ok {
			n--
		}
		return fmt.Sprintf("Array(%d)", n)
	}
	return "{…}"
}

func valueTypeName(v js.Value, mem *js.MemorySnapshot) string {
	if v.Kind != js.VReference {
		return v.Kind.String()
	}
	if obj, ok := mem.Object(v.Ref); ok {
		return obj.Type.String()
	}
	return v.Kind.String()
}

// evaluate resolves a variable path such as "counter", "point.x" or
// "items[2]" against the bindings visible in frame frameID of step.  Frame
// 0 and the top frame resolve through the step's scope chain.
func evaluate(step *js.Step, frameID int, expr string) (js.Value, error) {
	path := splitPath(expr)
	if len(path) == 0 {
		return js.Value{}, fmt.Errorf("empty expression")
	}
	var (
		v     js.Variable
		found bool
	)
	if frameID == 0 || frameID == len(step.Memory.Stack) {
		v, found = step.Lookup(path[0])
	} else if frame := frameByID(step, frameID); frame != nil {
		for _, fv := range frame.Variables {
			if fv.Name == path[0] {
				v, found = fv, true
				break
			}
		}
	}
	if !found {
		return js.Value{}, fmt.Errorf("%s is not defined", path[0])
	}
	if !v.Initialized {
		return js.Value{}, fmt.Errorf("cannot access '%s' before initialization", path[0])
	}
	val := v.Value
	for _, key := range path[1:] {
		if val.Kind != js.VReference {
			if val.Kind == js.VString && key == "length" {
				val = js.Number(float64(len(utf16.Encode([]rune(val.Str)))))
				continue
			}
			return js.Value{}, fmt.Errorf("cannot read property %q of %s", key, val.Kind)
		}
		obj, ok := step.Memory.Object(val.Ref)
		if !ok {
			return js.Value{}, fmt.Errorf("dangling reference %s", val.Ref)
		}
		val, _ = obj.Property(key)
	}
	return val, nil
}

// splitPath splits a member expression into its root name and keys.
// Bracketed keys may be quoted.
func splitPath(expr string) []string {
	fields := strings.FieldsFunc(strings.TrimSpace(expr), func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if s, err := strconv.Unquote(f); err == nil {
			f = s
		} else if len(f) >= 2 && f[0] == '\'' && f[len(f)-1] == '\'' {
			f = f[1 : len(f)-1]
		}
		fields[i] = f
	}
	return fields
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
