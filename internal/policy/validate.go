package policy

import (
	"fmt"
	"slices"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/patch"
)

// Validate enforces the policy against one classified request. It returns
// the first failure found, walking actions in the fixed order assign,
// remove, increment, append, then the cross-bucket duplicate check, then
// the per-kind type checks. A nil result means the request may compile.
//
// The duplicate check is cumulative over the whole request: it counts
// every occurrence of a field name across all four buckets, so a field
// repeated within one bucket fails the same way as one spread across two.
func Validate(c patch.Classified, r *patch.Request, p *Policy) *ValidationError {
	if !r.Key.Valid() {
		return &ValidationError{
			Code:    CodeInvalidKey,
			Message: "request key requires both partition and sort parts",
		}
	}

	for _, action := range patch.Actions {
		fields := c.Fields(action)
		if len(fields) == 0 {
			continue
		}

		rule := p.Rules[action]
		if rule == nil || !rule.grantsAnything() {
			return &ValidationError{
				Code:    CodeActionNotPermitted,
				Message: fmt.Sprintf("action %q is not permitted by policy", action),
				Action:  action.String(),
			}
		}

		for _, field := range fields {
			if err := rule.permits(field); err != nil {
				err.Action = action.String()
				return err
			}
		}

		for _, mandatory := range rule.Mandatory {
			if !slices.Contains(fields, mandatory) {
				return &ValidationError{
					Code:    CodeMissingMandatoryField,
					Message: fmt.Sprintf("mandatory field %q is missing", mandatory),
					Field:   mandatory,
					Action:  action.String(),
				}
			}
		}
	}

	if err := checkDuplicates(c); err != nil {
		return err
	}
	return checkValueTypes(c, r)
}

// checkDuplicates fails if any field name occurs more than once across the
// union of all buckets.
func checkDuplicates(c patch.Classified) *ValidationError {
	seen := make(map[string]bool)
	for _, field := range c.All() {
		if seen[field] {
			return &ValidationError{
				Code:    CodeDuplicateField,
				Message: "field appears in more than one mutation bucket",
				Field:   field,
			}
		}
		seen[field] = true
	}
	return nil
}

// checkValueTypes enforces the per-kind value contracts: increment deltas
// must be numeric, append values must be sequences.
func checkValueTypes(c patch.Classified, r *patch.Request) *ValidationError {
	for _, field := range c.Increment {
		if !attr.IsNumber(r.Increment[field]) {
			return &ValidationError{
				Code:    CodeInvalidIncrementType,
				Message: "increment delta must be numeric",
				Field:   field,
				Action:  patch.ActionIncrement.String(),
			}
		}
	}
	for _, field := range c.Append {
		if !attr.IsList(r.Append[field]) {
			return &ValidationError{
				Code:    CodeInvalidAppendType,
				Message: "append value must be a sequence",
				Field:   field,
				Action:  patch.ActionAppend.String(),
			}
		}
	}
	return nil
}
