package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/exprc"
)

// Apply submits one compiled operation as a conditional partial update.
// Returns a ConditionError when the target record does not exist; the
// update never creates records.
func (s *Store) Apply(ctx context.Context, op *exprc.Operation) error {
	plan, err := parseUpdate(op)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	var encoded string
	err = tx.QueryRowContext(ctx, `
		SELECT attrs FROM records WHERE tbl = ? AND pk = ? AND sk = ?
	`, op.Table, op.Key.Partition, op.Key.Sort).Scan(&encoded)
	if err == sql.ErrNoRows {
		return &ConditionError{Table: op.Table, Key: op.Key}
	}
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	attrs, err := decodeAttrs(encoded)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if err := applyPlan(attrs, plan, op); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	updated, err := encodeAttrs(attrs)
	if err != nil {
		return fmt.Errorf("apply: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE records SET attrs = ? WHERE tbl = ? AND pk = ? AND sk = ?
	`, updated, op.Table, op.Key.Partition, op.Key.Sort); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply: commit: %w", err)
	}
	return nil
}

// ApplyAll submits every operation in order and returns one result slot
// per operation (nil on success). A conditional failure on one item does
// not stop the rest.
func (s *Store) ApplyAll(ctx context.Context, ops []*exprc.Operation) []error {
	results := make([]error, len(ops))
	for i, op := range ops {
		results[i] = s.Apply(ctx, op)
	}
	return results
}

// applyPlan mutates the attribute map per the parsed plan.
func applyPlan(attrs attr.Map, plan *updatePlan, op *exprc.Operation) error {
	for _, step := range plan.sets {
		value, err := resolveValue(op, step.valueRef)
		if err != nil {
			return err
		}
		switch step.kind {
		case setAssign:
			attrs[step.field] = value

		case setAdd:
			delta, ok := value.(attr.Number)
			if !ok {
				return fmt.Errorf("attribute %q: add requires a numeric operand", step.field)
			}
			current := attr.NumberFromInt(0)
			if existing, present := attrs[step.field]; present {
				current, ok = existing.(attr.Number)
				if !ok {
					return fmt.Errorf("attribute %q: stored value is not numeric", step.field)
				}
			}
			sum, err := numAdd(current, delta)
			if err != nil {
				return fmt.Errorf("attribute %q: %w", step.field, err)
			}
			attrs[step.field] = sum

		case setAppend:
			tail, ok := value.(attr.List)
			if !ok {
				return fmt.Errorf("attribute %q: append requires a sequence operand", step.field)
			}
			var head attr.List
			if existing, present := attrs[step.field]; present {
				head, ok = existing.(attr.List)
				if !ok {
					return fmt.Errorf("attribute %q: stored value is not a sequence", step.field)
				}
			}
			merged := make(attr.List, 0, len(head)+len(tail))
			merged = append(merged, head...)
			merged = append(merged, tail...)
			attrs[step.field] = merged
		}
	}

	for _, field := range plan.removes {
		delete(attrs, field)
	}
	return nil
}

// resolveValue maps a ":value" placeholder through the descriptor's
// values map and decodes the wire payload.
func resolveValue(op *exprc.Operation, ref string) (attr.Value, error) {
	wire, ok := op.Values[ref]
	if !ok {
		return nil, fmt.Errorf("unresolved value placeholder %q", ref)
	}
	return attr.DecodeWire(wire)
}

// numAdd adds two decimal-string numbers. Integer operands stay integral;
// anything else goes through float64.
func numAdd(a, b attr.Number) (attr.Number, error) {
	ai, aerr := strconv.ParseInt(string(a), 10, 64)
	bi, berr := strconv.ParseInt(string(b), 10, 64)
	if aerr == nil && berr == nil {
		return attr.NumberFromInt(ai + bi), nil
	}

	af, err := strconv.ParseFloat(strings.TrimSpace(string(a)), 64)
	if err != nil {
		return "", fmt.Errorf("parse number %q: %w", a, err)
	}
	bf, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return "", fmt.Errorf("parse number %q: %w", b, err)
	}
	return attr.NumberFromFloat(af + bf), nil
}
