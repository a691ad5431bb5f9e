// Copyright © 2024 The ELPS authors

package js

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind is the type tag of a runtime Value.
type ValueKind uint

// Possible ValueKind values.
const (
	VUndefined ValueKind = iota
	VNull
	VBoolean
	VNumber
	VString
	VReference
)

var valueKindStrings = []string{
	VUndefined: "undefined",
	VNull:      "null",
	VBoolean:   "boolean",
	VNumber:    "number",
	VString:    "string",
	VReference: "reference",
}

func (k ValueKind) String() string {
	if int(k) >= len(valueKindStrings) {
		return "invalid"
	}
	return valueKindStrings[k]
}

// Value is a runtime value.  References carry only the heap id of the object
// they point to, so objects are never copied by value.
type Value struct {
	Kind ValueKind
	Bool bool
	Num  float64
	Str  string
	Ref  HeapID
}

// Undefined returns the undefined value.
func Undefined() Value {
	return Value{Kind: VUndefined}
}

// Null returns the null value.
func Null() Value {
	return Value{Kind: VNull}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{Kind: VBoolean, Bool: b}
}

// Number returns a numeric Value.
func Number(x float64) Value {
	return Value{Kind: VNumber, Num: x}
}

// String returns a string Value.
func String(s string) Value {
	return Value{Kind: VString, Str: s}
}

// Ref returns a Value referencing heap object id.
func Ref(id HeapID) Value {
	return Value{Kind: VReference, Ref: id}
}

// IsUndefined returns true if v is undefined.
func (v Value) IsUndefined() bool {
	return v.Kind == VUndefined
}

// IsNullish returns true if v is null or undefined.
func (v Value) IsNullish() bool {
	return v.Kind == VUndefined || v.Kind == VNull
}

// Truthy converts v to a boolean.
func (v Value) Truthy() bool {
	switch v.Kind {
	case VBoolean:
		return v.Bool
	case VNumber:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case VString:
		return v.Str != ""
	case VReference:
		return true
	}
	return false
}

var numericLiteral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// ToNumber converts v to a number.  References convert to NaN.
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case VNull:
		return 0
	case VBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case VNumber:
		return v.Num
	case VString:
		return stringToNumber(v.Str)
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	if !numericLiteral.MatchString(s) {
		return math.NaN()
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return x
}

// ToString converts a primitive v to a string.  References produce a generic
// object tag; callers with access to the heap should render them instead.
func (v Value) ToString() string {
	switch v.Kind {
	case VUndefined:
		return "undefined"
	case VNull:
		return "null"
	case VBoolean:
		return strconv.FormatBool(v.Bool)
	case VNumber:
		return FormatNumber(v.Num)
	case VString:
		return v.Str
	}
	return "[object Object]"
}

// Format renders v for step descriptions: strings are quoted and references
// print as <ref:heap_N>.
func (v Value) Format() string {
	switch v.Kind {
	case VString:
		return `"` + v.Str + `"`
	case VReference:
		return "<ref:" + v.Ref.String() + ">"
	}
	return v.ToString()
}

func (v Value) String() string {
	return v.Format()
}

// FormatNumber renders x the way JavaScript's Number.prototype.toString does
// for the common cases.
func FormatNumber(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case x == 0:
		return "0"
	}
	abs := math.Abs(x)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(x, 'g', -1, 64)
		mant, exp, ok := strings.Cut(s, "e")
		if !ok {
			return s
		}
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VUndefined, VNull:
		return true
	case VBoolean:
		return a.Bool == b.Bool
	case VNumber:
		return a.Num == b.Num
	case VString:
		return a.Str == b.Str
	case VReference:
		return a.Ref == b.Ref
	}
	return false
}

// LooseEquals implements == for primitives.  A reference is only loosely
// equal to a reference to the same object.
func LooseEquals(a, b Value) bool {
	if a.Kind == b.Kind {
		return StrictEquals(a, b)
	}
	if a.IsNullish() || b.IsNullish() {
		return a.IsNullish() && b.IsNullish()
	}
	if a.Kind == VReference || b.Kind == VReference {
		return false
	}
	return a.ToNumber() == b.ToNumber()
}

type jsonValue struct {
	Type  string      `json:"type" yaml:"type"`
	Value interface{} `json:"value" yaml:"value"`
}

func (v Value) encoded() jsonValue {
	enc := jsonValue{Type: v.Kind.String()}
	switch v.Kind {
	case VBoolean:
		enc.Value = v.Bool
	case VNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			enc.Value = FormatNumber(v.Num)
		} else {
			enc.Value = v.Num
		}
	case VString:
		enc.Value = v.Str
	case VReference:
		enc.Value = v.Ref.String()
	}
	return enc
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.encoded())
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (interface{}, error) {
	return v.encoded(), nil
}
