package store

import (
	"fmt"
	"strings"

	"github.com/fieldpatch/fieldpatch/internal/exprc"
)

// setKind distinguishes the three SET item shapes the compiler emits.
type setKind int

const (
	setAssign setKind = iota
	setAdd
	setAppend
)

// setStep is one resolved SET item: the target attribute plus the value
// placeholder to substitute.
type setStep struct {
	kind     setKind
	field    string
	valueRef string
}

// updatePlan is a parsed update expression with name placeholders already
// resolved through the descriptor's names map.
type updatePlan struct {
	sets    []setStep
	removes []string
}

// parseUpdate parses the descriptor's update expression. The grammar is
// exactly what the compiler produces: an optional SET clause of
// comma-separated items followed by an optional REMOVE clause of name
// placeholders.
func parseUpdate(op *exprc.Operation) (*updatePlan, error) {
	plan := &updatePlan{}
	expr := strings.TrimSpace(op.UpdateExpression)
	if expr == "" {
		return plan, nil
	}

	setPart, removePart, err := splitClauses(expr)
	if err != nil {
		return nil, err
	}

	for _, item := range splitTopLevel(setPart) {
		step, err := parseSetItem(op, item)
		if err != nil {
			return nil, err
		}
		plan.sets = append(plan.sets, step)
	}

	for _, ref := range splitTopLevel(removePart) {
		field, err := resolveName(op, ref)
		if err != nil {
			return nil, err
		}
		plan.removes = append(plan.removes, field)
	}

	return plan, nil
}

// splitClauses separates the SET and REMOVE clause bodies.
func splitClauses(expr string) (setPart, removePart string, err error) {
	switch {
	case strings.HasPrefix(expr, "SET "):
		body := expr[len("SET "):]
		if idx := strings.Index(body, " REMOVE "); idx >= 0 {
			return body[:idx], body[idx+len(" REMOVE "):], nil
		}
		return body, "", nil
	case strings.HasPrefix(expr, "REMOVE "):
		return "", expr[len("REMOVE "):], nil
	default:
		return "", "", fmt.Errorf("unsupported update expression: %q", expr)
	}
}

// splitTopLevel splits on ", " outside any parentheses, so function-call
// arguments inside a SET item stay intact.
func splitTopLevel(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 && i+1 < len(s) && s[i+1] == ' ' {
				parts = append(parts, s[start:i])
				i++
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// parseSetItem recognizes the three item shapes:
//
//	#f = :f
//	#f = if_not_exists(#f, :_zero) + :f
//	#f = list_append(if_not_exists(#f, :_empty), :f)
func parseSetItem(op *exprc.Operation, item string) (setStep, error) {
	lhs, rhs, found := strings.Cut(item, " = ")
	if !found {
		return setStep{}, fmt.Errorf("malformed SET item: %q", item)
	}
	field, err := resolveName(op, lhs)
	if err != nil {
		return setStep{}, err
	}

	switch {
	case strings.HasPrefix(rhs, "if_not_exists("):
		_, valueRef, found := strings.Cut(rhs, ") + ")
		if !found {
			return setStep{}, fmt.Errorf("malformed guarded add: %q", item)
		}
		return setStep{kind: setAdd, field: field, valueRef: valueRef}, nil

	case strings.HasPrefix(rhs, "list_append("):
		inner := strings.TrimPrefix(rhs, "list_append(")
		inner = strings.TrimSuffix(inner, ")")
		args := splitTopLevel(inner)
		if len(args) != 2 {
			return setStep{}, fmt.Errorf("malformed guarded append: %q", item)
		}
		return setStep{kind: setAppend, field: field, valueRef: args[1]}, nil

	default:
		return setStep{kind: setAssign, field: field, valueRef: rhs}, nil
	}
}

// resolveName maps a "#field" placeholder through the descriptor's names
// map.
func resolveName(op *exprc.Operation, ref string) (string, error) {
	field, ok := op.Names[ref]
	if !ok {
		return "", fmt.Errorf("unresolved name placeholder %q", ref)
	}
	return field, nil
}
