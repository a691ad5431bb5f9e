// Copyright © 2024 The ELPS authors

package dom

// Element is the final state of the element matched by Selector after a
// sequence of operations.  Text and HTML are mutually exclusive: whichever
// was set last replaces the other.
type Element struct {
	Selector   string            `json:"selector" yaml:"selector"`
	Text       string            `json:"text,omitempty" yaml:"text,omitempty"`
	HTML       string            `json:"html,omitempty" yaml:"html,omitempty"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Apply folds ops into per-selector element state.  Elements are returned
// in the order their selector first appears in ops.
func Apply(ops []Operation) []*Element {
	var elems []*Element
	index := make(map[string]*Element)
	for _, op := range ops {
		el, ok := index[op.Selector]
		if !ok {
			el = &Element{Selector: op.Selector}
			index[op.Selector] = el
			elems = append(elems, el)
		}
		switch op.Type {
		case SetTextContent:
			el.Text = op.Value
			el.HTML = ""
		case SetInnerHTML:
			el.HTML = op.Value
			el.Text = ""
		case SetProperty:
			if el.Properties == nil {
				el.Properties = make(map[string]string)
			}
			el.Properties[op.Property] = op.Value
		case SetAttribute:
			if el.Attributes == nil {
				el.Attributes = make(map[string]string)
			}
			el.Attributes[op.Property] = op.Value
		}
	}
	return elems
}
