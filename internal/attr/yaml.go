package attr

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements yaml.Unmarshaler for Map. Scenario files and
// batch inputs declare request buckets as plain YAML mappings.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := FromGo(raw)
	if err != nil {
		return err
	}
	mv, ok := v.(Map)
	if !ok {
		return fmt.Errorf("expected mapping, got %T", v)
	}
	*m = mv
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for List.
func (l *List) UnmarshalYAML(node *yaml.Node) error {
	var raw []any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	v, err := FromGo(raw)
	if err != nil {
		return err
	}
	lv, ok := v.(List)
	if !ok {
		return fmt.Errorf("expected sequence, got %T", v)
	}
	*l = lv
	return nil
}
