// Copyright © 2024 The ELPS authors

/*
Package render writes timelines for people and for other programs.

The text format is meant for terminals and wraps long descriptions.  The json
and yaml formats encode the full step records including their scope and
memory snapshots.
*/
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/jsviz/dom"
	"github.com/luthersystems/jsviz/js"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding for timelines.
type Format string

// Supported formats.
const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists every supported format name.
var Formats = []Format{Text, JSON, YAML}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (expected one of text, json, yaml)", s)
}

// Timeline writes every step of tl to w.
func Timeline(w io.Writer, tl *js.Timeline, f Format) error {
	switch f {
	case JSON:
		return encodeJSON(w, tl)
	case YAML:
		return encodeYAML(w, tl)
	case Text, "":
		return NewTextRenderer().Timeline(w, tl)
	}
	return fmt.Errorf("unknown format %q", f)
}

// Steps writes steps to w.  Unlike Timeline, structured formats encode a
// bare list.
func Steps(w io.Writer, steps []js.Step, f Format) error {
	switch f {
	case JSON:
		return encodeJSON(w, steps)
	case YAML:
		return encodeYAML(w, steps)
	case Text, "":
		r := NewTextRenderer()
		for i := range steps {
			if err := r.Step(w, &steps[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", f)
}

// DOM writes the final element state produced by the DOM operations of tl.
func DOM(w io.Writer, tl *js.Timeline, f Format) error {
	elems := dom.Apply(Operations(tl))
	switch f {
	case JSON:
		return encodeJSON(w, elems)
	case YAML:
		return encodeYAML(w, elems)
	case Text, "":
		return NewTextRenderer().Elements(w, elems)
	}
	return fmt.Errorf("unknown format %q", f)
}

// Operations returns the DOM operations attached to the steps of tl in
// step order.
func Operations(tl *js.Timeline) []dom.Operation {
	var ops []dom.Operation
	for i := range tl.Steps {
		if op := tl.Steps[i].DOM; op != nil {
			ops = append(ops, *op)
		}
	}
	return ops
}

func encodeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func encodeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(v)
	if err != nil {
		return err
	}
	return enc.Close()
}
