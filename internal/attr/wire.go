package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire type tags. The store encodes every attribute as a single-key object
// whose key names the type and whose value carries the payload.
const (
	wireString = "S"
	wireNumber = "N"
	wireBool   = "BOOL"
	wireNull   = "NULL"
	wireList   = "L"
	wireMap    = "M"
)

// EncodeWire serializes a Value to the store's attribute-tagged wire JSON.
// Output is canonical: map keys sorted, strings NFC-normalized, no HTML
// escaping. Compiling the same value twice yields identical bytes.
func EncodeWire(v Value) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := encodeWire(&buf, v); err != nil {
		return nil, err
	}
	return json.RawMessage(buf.Bytes()), nil
}

func encodeWire(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case Null:
		buf.WriteString(`{"NULL":true}`)
		return nil
	case String:
		b, err := marshalCanonicalString(string(val))
		if err != nil {
			return err
		}
		buf.WriteString(`{"S":`)
		buf.Write(b)
		buf.WriteByte('}')
		return nil
	case Number:
		b, err := marshalCanonicalString(string(val))
		if err != nil {
			return err
		}
		buf.WriteString(`{"N":`)
		buf.Write(b)
		buf.WriteByte('}')
		return nil
	case Bool:
		if val {
			buf.WriteString(`{"BOOL":true}`)
		} else {
			buf.WriteString(`{"BOOL":false}`)
		}
		return nil
	case List:
		buf.WriteString(`{"L":[`)
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeWire(buf, elem); err != nil {
				return fmt.Errorf("list[%d]: %w", i, err)
			}
		}
		buf.WriteString(`]}`)
		return nil
	case Map:
		buf.WriteString(`{"M":{`)
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalCanonicalString(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := encodeWire(buf, val[k]); err != nil {
				return fmt.Errorf("map[%q]: %w", k, err)
			}
		}
		buf.WriteString(`}}`)
		return nil
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}
}

// DecodeWire parses attribute-tagged wire JSON back into a Value. Used by
// store-side consumers of operation descriptors; the compiler itself only
// encodes.
func DecodeWire(data []byte) (Value, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("wire value: %w", err)
	}
	if len(raw) != 1 {
		return nil, fmt.Errorf("wire value must have exactly one type tag, got %d", len(raw))
	}

	for tag, payload := range raw {
		switch tag {
		case wireNull:
			return Null{}, nil
		case wireString:
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("wire S: %w", err)
			}
			return String(s), nil
		case wireNumber:
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("wire N: %w", err)
			}
			return Number(s), nil
		case wireBool:
			var b bool
			if err := json.Unmarshal(payload, &b); err != nil {
				return nil, fmt.Errorf("wire BOOL: %w", err)
			}
			return Bool(b), nil
		case wireList:
			var elems []json.RawMessage
			if err := json.Unmarshal(payload, &elems); err != nil {
				return nil, fmt.Errorf("wire L: %w", err)
			}
			list := make(List, len(elems))
			for i, e := range elems {
				v, err := DecodeWire(e)
				if err != nil {
					return nil, fmt.Errorf("wire L[%d]: %w", i, err)
				}
				list[i] = v
			}
			return list, nil
		case wireMap:
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(payload, &fields); err != nil {
				return nil, fmt.Errorf("wire M: %w", err)
			}
			m := make(Map, len(fields))
			for k, e := range fields {
				v, err := DecodeWire(e)
				if err != nil {
					return nil, fmt.Errorf("wire M[%q]: %w", k, err)
				}
				m[k] = v
			}
			return m, nil
		default:
			return nil, fmt.Errorf("unknown wire type tag %q", tag)
		}
	}
	return nil, fmt.Errorf("empty wire value")
}
