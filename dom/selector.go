// Copyright © 2024 The ELPS authors

package dom

import (
	"fmt"
	"regexp"
	"strings"

	parsec "github.com/prataprc/goparsec"
)

/*
The selector grammar accepted by ParseSelector.

	list      := complex (',' complex)*
	complex   := compound (combinator? compound)*
	combinator := '>' | '+' | '~'
	compound  := (tag | '*') simple* | simple+
	simple    := '#' name | '.' name | '[' name (op value)? ']'

Whitespace between compounds without an explicit combinator is the
descendant combinator.
*/

// Combinator relates two compound selectors.
type Combinator string

// Possible Combinator values.
const (
	Descendant Combinator = " "
	Child      Combinator = ">"
	Adjacent   Combinator = "+"
	Sibling    Combinator = "~"
)

// AttributeSelector matches [Name], or [Name Op Value] when Op is set.
type AttributeSelector struct {
	Name  string
	Op    string
	Value string
}

// Compound is a sequence of simple selectors matching a single element.
type Compound struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   []AttributeSelector
}

// Complex is a chain of compounds joined by combinators.
// len(Combinators) is always len(Compounds)-1.
type Complex struct {
	Compounds   []Compound
	Combinators []Combinator
}

// Selector is a parsed selector list.
type Selector struct {
	Text string
	List []Complex
}

const compoundPattern = `(?:(?:[a-zA-Z][a-zA-Z0-9-]*|\*)(?:#[\w-]+|\.[\w-]+|\[[^\]]*\])*|(?:#[\w-]+|\.[\w-]+|\[[^\]]*\])+)`

var attrPattern = regexp.MustCompile(`^\[\s*([a-zA-Z_][\w-]*)\s*(?:([~|^$*]?=)\s*("[^"]*"|'[^']*'|[\w-]+)\s*)?\]$`)

func newListParser() parsec.Parser {
	compound := parsec.Token(compoundPattern, "COMPOUND")
	combinator := parsec.Token(`[>+~]`, "COMBINATOR")
	comma := parsec.Atom(",", "COMMA")
	step := parsec.OrdChoice(nil,
		parsec.And(nil, combinator, compound),
		compound,
	)
	complexSel := parsec.And(complexNode, compound, parsec.Kleene(nil, step))
	return parsec.Kleene(nil, complexSel, comma)
}

func newCompoundParser() parsec.Parser {
	tag := parsec.Token(`(?:[a-zA-Z][a-zA-Z0-9-]*|\*)`, "TAG")
	id := parsec.Token(`#[\w-]+`, "ID")
	class := parsec.Token(`\.[\w-]+`, "CLASS")
	attr := parsec.Token(`\[[^\]]*\]`, "ATTR")
	simple := parsec.OrdChoice(nil, id, class, attr, tag)
	return parsec.Kleene(nil, simple)
}

// terminals flattens the node lists goparsec builds for sequences.
func terminals(nodes []parsec.ParsecNode) []*parsec.Terminal {
	var terms []*parsec.Terminal
	for _, n := range nodes {
		switch n := n.(type) {
		case *parsec.Terminal:
			terms = append(terms, n)
		case []parsec.ParsecNode:
			terms = append(terms, terminals(n)...)
		}
	}
	return terms
}

func complexNode(nodes []parsec.ParsecNode) parsec.ParsecNode {
	c := &complexNodeValue{}
	pending := Descendant
	for _, term := range terminals(nodes) {
		switch term.Name {
		case "COMBINATOR":
			pending = Combinator(term.Value)
		case "COMPOUND":
			if len(c.compounds) > 0 {
				c.combinators = append(c.combinators, pending)
			}
			c.compounds = append(c.compounds, term.Value)
			pending = Descendant
		}
	}
	return c
}

type complexNodeValue struct {
	compounds   []string
	combinators []Combinator
}

func collectComplex(nodes []parsec.ParsecNode) []*complexNodeValue {
	var out []*complexNodeValue
	for _, n := range nodes {
		switch n := n.(type) {
		case *complexNodeValue:
			out = append(out, n)
		case []parsec.ParsecNode:
			out = append(out, collectComplex(n)...)
		}
	}
	return out
}

// ParseSelector parses a CSS selector list.
func ParseSelector(text string) (*Selector, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("empty selector")
	}
	if strings.HasSuffix(trimmed, ",") || strings.HasPrefix(trimmed, ",") {
		return nil, fmt.Errorf("invalid selector %q: dangling comma", text)
	}
	s := parsec.NewScanner([]byte(trimmed))
	root, s := newListParser()(s)
	_, s = s.SkipWS()
	if root == nil || !s.Endof() {
		return nil, fmt.Errorf("invalid selector %q at offset %d", text, s.GetCursor())
	}
	var list []*complexNodeValue
	switch root := root.(type) {
	case []parsec.ParsecNode:
		list = collectComplex(root)
	case *complexNodeValue:
		list = []*complexNodeValue{root}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("invalid selector %q", text)
	}
	sel := &Selector{Text: trimmed}
	for _, cv := range list {
		c := Complex{Combinators: cv.combinators}
		for _, raw := range cv.compounds {
			comp, err := parseCompound(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid selector %q: %w", text, err)
			}
			c.Compounds = append(c.Compounds, comp)
		}
		sel.List = append(sel.List, c)
	}
	return sel, nil
}

func parseCompound(raw string) (Compound, error) {
	var comp Compound
	s := parsec.NewScanner([]byte(raw))
	root, s := newCompoundParser()(s)
	if !s.Endof() {
		return comp, fmt.Errorf("unexpected text in %q", raw)
	}
	var parts []*parsec.Terminal
	if nodes, ok := root.([]parsec.ParsecNode); ok {
		parts = terminals(nodes)
	}
	for i, term := range parts {
		switch term.Name {
		case "TAG":
			if i != 0 {
				return comp, fmt.Errorf("type selector %q must come first", term.Value)
			}
			comp.Tag = term.Value
		case "ID":
			if comp.ID != "" {
				return comp, fmt.Errorf("multiple id selectors in %q", raw)
			}
			comp.ID = term.Value[1:]
		case "CLASS":
			comp.Classes = append(comp.Classes, term.Value[1:])
		case "ATTR":
			m := attrPattern.FindStringSubmatch(term.Value)
			if m == nil {
				return comp, fmt.Errorf("malformed attribute selector %s", term.Value)
			}
			comp.Attrs = append(comp.Attrs, AttributeSelector{
				Name:  m[1],
				Op:    m[2],
				Value: strings.Trim(m[3], `"'`),
			})
		}
	}
	return comp, nil
}

func (c Compound) String() string {
	var b strings.Builder
	b.WriteString(c.Tag)
	if c.ID != "" {
		b.WriteString("#" + c.ID)
	}
	for _, class := range c.Classes {
		b.WriteString("." + class)
	}
	for _, a := range c.Attrs {
		b.WriteString("[" + a.Name)
		if a.Op != "" {
			fmt.Fprintf(&b, "%s%q", a.Op, a.Value)
		}
		b.WriteString("]")
	}
	return b.String()
}

func (c Complex) String() string {
	var b strings.Builder
	for i, comp := range c.Compounds {
		if i > 0 {
			if comb := c.Combinators[i-1]; comb == Descendant {
				b.WriteString(" ")
			} else {
				b.WriteString(" " + string(comb) + " ")
			}
		}
		b.WriteString(comp.String())
	}
	return b.String()
}

// String returns the canonical form of the selector list.
func (s *Selector) String() string {
	parts := make([]string, len(s.List))
	for i, c := range s.List {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
