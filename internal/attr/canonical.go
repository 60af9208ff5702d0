package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/text/unicode/norm"
)

// SortedKeys returns the map's keys in lexicographic byte order. All
// serialization paths iterate maps through this so identical input always
// produces identical output.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// CanonicalString returns s in NFC form. Placeholder names and string
// payloads are normalized before serialization so that visually identical
// field names cannot produce distinct descriptors.
func CanonicalString(s string) string {
	return norm.NFC.String(s)
}

// marshalCanonicalString encodes s as a JSON string after NFC
// normalization, without HTML escaping.
func marshalCanonicalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(CanonicalString(s)); err != nil {
		return nil, fmt.Errorf("encode string: %w", err)
	}
	// Encoder appends a newline.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
