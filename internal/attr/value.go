package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Value is a sealed interface representing the payload types a mutation
// request may carry. Only Null, String, Number, Bool, List, and Map
// implement it, so type checks in the validator are exhaustive switches
// rather than reflection.
type Value interface {
	attrValue() // sealed
}

// Null represents an explicit null payload.
type Null struct{}

func (Null) attrValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// String represents a string payload.
type String string

func (String) attrValue() {}

// Number represents a numeric payload as a decimal string, the store's
// wire convention. The compiler never performs arithmetic on Numbers, so
// ints and decimals of any precision pass through untouched.
type Number string

func (Number) attrValue() {}

// Bool represents a boolean payload.
type Bool bool

func (Bool) attrValue() {}

// List represents an ordered sequence of values. Append buckets require
// this variant.
type List []Value

func (List) attrValue() {}

// Map represents a string-keyed mapping of values.
type Map map[string]Value

func (Map) attrValue() {}

// NumberFromInt builds a Number from an int64.
func NumberFromInt(n int64) Number {
	return Number(fmt.Sprintf("%d", n))
}

// NumberFromFloat builds a Number from a float64 using the shortest
// round-trippable decimal form.
func NumberFromFloat(f float64) Number {
	return Number(fmt.Sprintf("%g", f))
}

// Decode parses arbitrary JSON into a Value. Numbers keep their exact
// decimal text (no float round-trip).
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}

// FromGo converts a decoded JSON value (string, bool, json.Number, nil,
// []any, map[string]any) to a Value. Values pass through unchanged.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		return Number(string(val)), nil
	case int:
		return NumberFromInt(int64(val)), nil
	case int64:
		return NumberFromInt(val), nil
	case float64:
		return NumberFromFloat(val), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			av, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = av
		}
		return list, nil
	case map[string]any:
		m := make(Map, len(val))
		for k, elem := range val {
			av, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			m[k] = av
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported value type: %T", v)
	}
}

// UnmarshalJSON implements json.Unmarshaler for Map.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	mv, ok := v.(Map)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*m = mv
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for List.
func (l *List) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	lv, ok := v.(List)
	if !ok {
		return fmt.Errorf("expected JSON array, got %T", v)
	}
	*l = lv
	return nil
}

// Marshal serializes a Value back to plain JSON (not the wire encoding).
// Map keys are sorted so output is deterministic.
func Marshal(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Number:
		return []byte(val), nil
	case Bool:
		return json.Marshal(bool(val))
	case List:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := Marshal(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Map:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := Marshal(val[k])
			if err != nil {
				return nil, fmt.Errorf("map[%q]: %w", k, err)
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// MarshalJSON implements json.Marshaler for Map.
func (m Map) MarshalJSON() ([]byte, error) {
	return Marshal(m)
}

// MarshalJSON implements json.Marshaler for List.
func (l List) MarshalJSON() ([]byte, error) {
	return Marshal(l)
}

// IsNumber reports whether v is a Number.
func IsNumber(v Value) bool {
	_, ok := v.(Number)
	return ok
}

// IsList reports whether v is a List.
func IsList(v Value) bool {
	_, ok := v.(List)
	return ok
}
