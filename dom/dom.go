// Copyright © 2024 The ELPS authors

/*
Package dom describes the declarative DOM operations produced by scripts and
folds them into the element state an external renderer would display.

The interpreter never mutates a document.  It recognizes assignments such as

	document.getElementById("out").textContent = "hi"
	document.querySelector("ul > li.done").setAttribute("title", "ok")

and attaches an Operation to the step that executed them.
*/
package dom

import "fmt"

// OpType is the kind of a DOM operation.
type OpType string

// Possible OpType values.
const (
	SetTextContent OpType = "setTextContent"
	SetInnerHTML   OpType = "setInnerHTML"
	SetProperty    OpType = "setProperty"
	SetAttribute   OpType = "setAttribute"
)

// Operation is one DOM mutation keyed by a CSS selector.  Property names the
// property or attribute for SetProperty and SetAttribute.
type Operation struct {
	Type     OpType `json:"type" yaml:"type"`
	Selector string `json:"selector" yaml:"selector"`
	Property string `json:"property,omitempty" yaml:"property,omitempty"`
	Value    string `json:"value" yaml:"value"`
}

func (op Operation) String() string {
	switch op.Type {
	case SetProperty, SetAttribute:
		return fmt.Sprintf("%s %s %s=%q", op.Type, op.Selector, op.Property, op.Value)
	}
	return fmt.Sprintf("%s %s %q", op.Type, op.Selector, op.Value)
}

// PropertyOperation returns the operation for assigning value to property
// of the element matched by selector.
func PropertyOperation(selector, property, value string) Operation {
	switch property {
	case "textContent", "innerText":
		return Operation{Type: SetTextContent, Selector: selector, Value: value}
	case "innerHTML":
		return Operation{Type: SetInnerHTML, Selector: selector, Value: value}
	}
	return Operation{Type: SetProperty, Selector: selector, Property: property, Value: value}
}

// AttributeOperation returns the operation for setAttribute(name, value).
func AttributeOperation(selector, name, value string) Operation {
	return Operation{Type: SetAttribute, Selector: selector, Property: name, Value: value}
}

// ByIDSelector returns the selector document.getElementById(id) matches.
func ByIDSelector(id string) string {
	return "#" + id
}
