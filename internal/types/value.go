package types

import "fmt"

// ValueKind tags the variant carried by a Value.
type ValueKind string

const (
	ValueString   ValueKind = "string"
	ValueInt      ValueKind = "int"
	ValueFloat    ValueKind = "float"
	ValueBool     ValueKind = "bool"
	ValueKeyCombo ValueKind = "key-combo"
	ValueURL      ValueKind = "url"
	ValueRegex    ValueKind = "regex"
	ValueJSON     ValueKind = "json"
	ValueNone     ValueKind = "none"
)

// Value is a typed literal carried by an Intent: string / int / float /
// boolean / key-combo / URL / regex / JSON fragment.
type Value struct {
	Kind    ValueKind
	Str     string
	Int     int
	Float   float64
	Bool    bool
	Combo   []string // canonicalised modifiers + one non-modifier key, in order
	JSONRaw string
}

// String renders the value for diagnostics and canonical re-rendering.
func (v Value) String() string {
	switch v.Kind {
	case ValueString, ValueURL, ValueRegex:
		return v.Str
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueKeyCombo:
		out := ""
		for i, k := range v.Combo {
			if i > 0 {
				out += "+"
			}
			out += k
		}
		return out
	case ValueJSON:
		return v.JSONRaw
	default:
		return ""
	}
}

func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }
func IntValue(i int) Value       { return Value{Kind: ValueInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: ValueFloat, Float: f} }
func BoolValue(b bool) Value     { return Value{Kind: ValueBool, Bool: b} }
func ComboValue(keys []string) Value {
	return Value{Kind: ValueKeyCombo, Combo: keys}
}
