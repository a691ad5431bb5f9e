// Copyright © 2024 The ELPS authors

package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/luthersystems/jsviz/dom"
	"github.com/luthersystems/jsviz/js"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultWidth is the column descriptions are wrapped at.
const DefaultWidth = 72

// TextRenderer writes steps as indented plain text.
type TextRenderer struct {
	// Width is the wrap column for descriptions.  Zero disables wrapping.
	Width int
	// Scope includes the scope chain of each step.
	Scope bool
	// Memory includes the call stack and heap of each step.
	Memory bool
}

// NewTextRenderer returns a renderer that wraps at DefaultWidth and shows
// scopes but not memory.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{Width: DefaultWidth, Scope: true}
}

// Timeline writes every step of tl followed by the run's error, if any.
func (r *TextRenderer) Timeline(w io.Writer, tl *js.Timeline) error {
	for i := range tl.Steps {
		if err := r.Step(w, &tl.Steps[i]); err != nil {
			return err
		}
	}
	if tl.Err != nil {
		_, err := fmt.Fprintf(w, "error: %v\n", tl.Err)
		return err
	}
	return nil
}

// Step writes one step.
func (r *TextRenderer) Step(w io.Writer, step *js.Step) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %d:%d\n", step.ID, step.Kind, step.Line, step.Column)
	b.WriteString(r.block(step.Description))
	if step.DOM != nil {
		b.WriteString(r.block("dom: " + step.DOM.String()))
	}
	if r.Scope {
		b.WriteString(r.block("scope: " + FormatScopes(step.Scope)))
	}
	if r.Memory {
		b.WriteString(r.block("stack: " + FormatStack(step.Memory.Stack)))
		for _, obj := range step.Memory.Heap {
			b.WriteString(r.block(FormatObject(obj)))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Elements writes the final state of DOM elements, one per line.
func (r *TextRenderer) Elements(w io.Writer, elems []*dom.Element) error {
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(e.Selector)
		b.WriteString("\n")
		if e.Text != "" {
			b.WriteString(r.block("text: " + e.Text))
		}
		if e.HTML != "" {
			b.WriteString(r.block("html: " + e.HTML))
		}
		for _, k := range sortedKeys(e.Properties) {
			b.WriteString(r.block(fmt.Sprintf("property %s = %q", k, e.Properties[k])))
		}
		for _, k := range sortedKeys(e.Attributes) {
			b.WriteString(r.block(fmt.Sprintf("attribute %s = %q", k, e.Attributes[k])))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *TextRenderer) block(s string) string {
	if r.Width > 0 {
		s = wordwrap.String(s, r.Width)
	}
	return indent.String(s, 2) + "\n"
}

// FormatVariable renders a binding as "name = value".  A binding in its
// temporal dead zone renders as "name (uninitialized)".
func FormatVariable(v js.Variable) string {
	if !v.Initialized {
		return v.Name + " (uninitialized)"
	}
	return v.Name + " = " + v.Value.Format()
}

// FormatScope renders one frozen scope.
func FormatScope(d js.ScopeData) string {
	vars := make([]string, len(d.Variables))
	for i, v := range d.Variables {
		vars[i] = FormatVariable(v)
	}
	if len(vars) == 0 {
		return d.Name + " {}"
	}
	return d.Name + " { " + strings.Join(vars, ", ") + " }"
}

// FormatScopes renders a frozen scope chain, nearest scope first.
func FormatScopes(ss js.ScopeSnapshot) string {
	parts := make([]string, len(ss.Scopes))
	for i, d := range ss.Scopes {
		parts[i] = FormatScope(d)
	}
	return strings.Join(parts, " -> ")
}

// FormatStack renders a call stack bottom first.
func FormatStack(stack []js.StackFrame) string {
	names := make([]string, len(stack))
	for i, f := range stack {
		names[i] = f.Name
	}
	return strings.Join(names, " > ")
}

// FormatObject renders a frozen heap object on one line.
func FormatObject(obj js.ObjectData) string {
	var b strings.Builder
	b.WriteString(obj.ID.String())
	b.WriteString(" ")
	b.WriteString(obj.Type.String())
	if obj.Type == js.TypeFunction {
		fmt.Fprintf(&b, " %s(%s)", obj.Name, strings.Join(obj.Params, ", "))
		if len(obj.Closure) > 0 {
			captured := make([]string, len(obj.Closure))
			for i, c := range obj.Closure {
				captured[i] = fmt.Sprintf("%s = %s (%s)", c.Name, c.Value.Format(), c.FromScope)
			}
			b.WriteString(" closure { " + strings.Join(captured, ", ") + " }")
		}
		return b.String()
	}
	props := make([]string, len(obj.Properties))
	for i, p := range obj.Properties {
		props[i] = p.Key + ": " + p.Value.Format()
	}
	if len(props) == 0 {
		b.WriteString(" {}")
		return b.String()
	}
	b.WriteString(" { " + strings.Join(props, ", ") + " }")
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
