// Package exprc compiles validated mutation requests into store-ready
// operation descriptors: a combined SET/REMOVE update expression plus the
// name and value placeholder maps. Compilation is a pure function of its
// inputs; the same request always yields byte-identical output.
package exprc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/patch"
)

// Key attribute names of the target table.
const (
	KeyAttrPartition = "pk"
	KeyAttrSort      = "sk"
)

// Shared value placeholders for the existence guards. The leading
// underscore keeps them out of the per-field ":name" namespace.
const (
	placeholderZero  = ":_zero"
	placeholderEmpty = ":_empty"
)

// Operation is the compiled, store-ready form of one validated request.
// Constructed once, never modified afterwards, never persisted here. The
// condition requires the record to exist already: this path never creates.
type Operation struct {
	Table            string                     `json:"table"`
	Key              patch.Key                  `json:"key"`
	UpdateExpression string                     `json:"updateExpression"`
	Names            map[string]string          `json:"names"`
	Values           map[string]json.RawMessage `json:"values,omitempty"`
	Condition        string                     `json:"condition"`
}

// Compile turns one classified, validated request into an Operation.
// Callers must have run the policy validator first; Compile assumes the
// type contracts hold and fails only on serialization problems.
func Compile(table string, c patch.Classified, r *patch.Request) (*Operation, error) {
	op := &Operation{
		Table: table,
		Key:   r.Key,
		Names: make(map[string]string),
		// The key attribute names are fixed and not reserved words, so the
		// existence guard references the partition attribute directly.
		Condition: fmt.Sprintf("attribute_exists(%s)", KeyAttrPartition),
	}

	var setParts []string

	for _, field := range c.Assign {
		n, v := op.register(field)
		if err := op.addValue(v, r.Assign[field]); err != nil {
			return nil, err
		}
		setParts = append(setParts, fmt.Sprintf("%s = %s", n, v))
	}

	for _, field := range c.Increment {
		n, v := op.register(field)
		if err := op.addValue(v, r.Increment[field]); err != nil {
			return nil, err
		}
		if err := op.addValue(placeholderZero, attr.NumberFromInt(0)); err != nil {
			return nil, err
		}
		setParts = append(setParts, fmt.Sprintf("%s = if_not_exists(%s, %s) + %s", n, n, placeholderZero, v))
	}

	for _, field := range c.Append {
		n, v := op.register(field)
		if err := op.addValue(v, r.Append[field]); err != nil {
			return nil, err
		}
		if err := op.addValue(placeholderEmpty, attr.List{}); err != nil {
			return nil, err
		}
		setParts = append(setParts, fmt.Sprintf("%s = list_append(if_not_exists(%s, %s), %s)", n, n, placeholderEmpty, v))
	}

	var clauses []string
	if len(setParts) > 0 {
		clauses = append(clauses, "SET "+strings.Join(setParts, ", "))
	}
	if len(c.Remove) > 0 {
		removeParts := make([]string, len(c.Remove))
		for i, field := range c.Remove {
			n, _ := op.register(field)
			removeParts[i] = n
		}
		clauses = append(clauses, "REMOVE "+strings.Join(removeParts, ", "))
	}
	op.UpdateExpression = strings.Join(clauses, " ")

	return op, nil
}

// register records the field's name placeholder and returns the name and
// value placeholder tokens. Every referenced field goes through the names
// map so reserved words in the store grammar can never collide.
func (op *Operation) register(field string) (name, value string) {
	name = namePlaceholder(field)
	op.Names[name] = field
	return name, valuePlaceholder(field)
}

// addValue serializes v to the wire encoding under the given placeholder.
func (op *Operation) addValue(placeholder string, v attr.Value) error {
	wire, err := attr.EncodeWire(v)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", placeholder, err)
	}
	if op.Values == nil {
		op.Values = make(map[string]json.RawMessage)
	}
	op.Values[placeholder] = wire
	return nil
}

func namePlaceholder(field string) string {
	return "#" + field
}

func valuePlaceholder(field string) string {
	return ":" + field
}
