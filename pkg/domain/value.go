package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrValueType is returned when a Value is read as a kind it does not hold.
var ErrValueType = errors.New("attribute value has a different type")

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	ValueUnknown ValueKind = "unknown"
	ValueString  ValueKind = "string"
	ValueNumber  ValueKind = "number"
	ValueBool    ValueKind = "bool"
	ValueNodeRef ValueKind = "node"
)

// Value is a closed tagged union for attribute values.
// The zero Value is Unknown.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	ref  *ElementInfo
}

func StringValue(s string) Value  { return Value{kind: ValueString, str: s} }
func NumberValue(n float64) Value { return Value{kind: ValueNumber, num: n} }
func BoolValue(b bool) Value      { return Value{kind: ValueBool, b: b} }

// NodeRefValue references another provider element.
func NodeRefValue(ref ElementInfo) Value {
	return Value{kind: ValueNodeRef, ref: &ref}
}

// UnknownValue keeps a textual rendering of a value the provider could not type.
func UnknownValue(repr string) Value {
	return Value{kind: ValueUnknown, str: repr}
}

// FromAny converts a raw Go value into a Value.
// Unsupported types become Unknown with their fmt rendering.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{kind: ValueUnknown}
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return NumberValue(float64(t))
	case int32:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case uint:
		return NumberValue(float64(t))
	case uint64:
		return NumberValue(float64(t))
	case float32:
		return NumberValue(float64(t))
	case float64:
		return NumberValue(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f)
		}
		return UnknownValue(t.String())
	case ElementInfo:
		return NodeRefValue(t)
	case *ElementInfo:
		if t == nil {
			return Value{kind: ValueUnknown}
		}
		return NodeRefValue(*t)
	default:
		return UnknownValue(fmt.Sprintf("%v", t))
	}
}

// Kind reports the held variant.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return ValueUnknown
	}
	return v.kind
}

func (v Value) AsString() (string, error) {
	if v.kind != ValueString {
		return "", fmt.Errorf("%w: want string, have %s", ErrValueType, v.Kind())
	}
	return v.str, nil
}

func (v Value) AsNumber() (float64, error) {
	if v.kind != ValueNumber {
		return 0, fmt.Errorf("%w: want number, have %s", ErrValueType, v.Kind())
	}
	return v.num, nil
}

func (v Value) AsBool() (bool, error) {
	if v.kind != ValueBool {
		return false, fmt.Errorf("%w: want bool, have %s", ErrValueType, v.Kind())
	}
	return v.b, nil
}

func (v Value) AsNodeRef() (ElementInfo, error) {
	if v.kind != ValueNodeRef || v.ref == nil {
		return ElementInfo{}, fmt.Errorf("%w: want node, have %s", ErrValueType, v.Kind())
	}
	return *v.ref, nil
}

// String renders the value for display regardless of its kind.
func (v Value) String() string {
	switch v.Kind() {
	case ValueString:
		return strconv.Quote(v.str)
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.b)
	case ValueNodeRef:
		return "<" + v.ref.Label() + ">"
	default:
		if v.str == "" {
			return "<unknown>"
		}
		return v.str
	}
}

type valueJSON struct {
	Kind   ValueKind `json:"kind"`
	String *string   `json:"string,omitempty"`
	Number *float64  `json:"number,omitempty"`
	Bool   *bool     `json:"bool,omitempty"`
	Repr   string    `json:"repr,omitempty"`
}

// MarshalJSON encodes the tag alongside the payload.
// Node references lose their handle and are stored as unknown with their label.
func (v Value) MarshalJSON() ([]byte, error) {
	out := valueJSON{Kind: v.Kind()}
	switch v.Kind() {
	case ValueString:
		out.String = &v.str
	case ValueNumber:
		out.Number = &v.num
	case ValueBool:
		out.Bool = &v.b
	case ValueNodeRef:
		out.Kind = ValueUnknown
		out.Repr = v.String()
	default:
		out.Repr = v.str
	}
	return json.Marshal(out)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var in valueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case ValueString:
		if in.String == nil {
			return fmt.Errorf("string value without payload")
		}
		*v = StringValue(*in.String)
	case ValueNumber:
		if in.Number == nil {
			return fmt.Errorf("number value without payload")
		}
		*v = NumberValue(*in.Number)
	case ValueBool:
		if in.Bool == nil {
			return fmt.Errorf("bool value without payload")
		}
		*v = BoolValue(*in.Bool)
	default:
		*v = UnknownValue(in.Repr)
	}
	return nil
}
