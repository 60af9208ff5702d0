package policy

import (
	"slices"

	"github.com/fieldpatch/fieldpatch/internal/patch"
)

// Auto-injected bookkeeping fields.
const (
	// FieldLastUpdated is assigned the compile-time timestamp when
	// Policy.AutoTimestamp is set.
	FieldLastUpdated = "lastUpdated"

	// FieldVersion is incremented by one when Policy.AutoVersion is set.
	FieldVersion = "version"
)

// Rule grants fields to one action kind. AllowAll short-circuits the
// lists; otherwise a whitelist restricts to its members and a blacklist
// excludes its members. Mandatory fields must appear whenever the action
// is used at all, regardless of AllowAll.
type Rule struct {
	AllowAll  bool     `json:"allowAll,omitempty" yaml:"allowAll,omitempty"`
	Whitelist []string `json:"whitelist,omitempty" yaml:"whitelist,omitempty"`
	Blacklist []string `json:"blacklist,omitempty" yaml:"blacklist,omitempty"`
	Mandatory []string `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
}

// permits reports whether the rule grants the named field. Callers have
// already established that the rule exists and is consultable.
func (r *Rule) permits(field string) *ValidationError {
	if r.AllowAll {
		return nil
	}
	if r.Whitelist != nil && !slices.Contains(r.Whitelist, field) {
		return &ValidationError{
			Code:    CodeFieldNotWhitelisted,
			Message: "field is not on the whitelist",
			Field:   field,
		}
	}
	if slices.Contains(r.Blacklist, field) {
		return &ValidationError{
			Code:    CodeFieldBlacklisted,
			Message: "field is blacklisted",
			Field:   field,
		}
	}
	return nil
}

// grantsAnything reports whether the rule can permit at least some field.
// A bare rule with no allowAll and no lists grants nothing; using the
// action under it is ActionNotPermitted rather than a per-field failure.
func (r *Rule) grantsAnything() bool {
	return r.AllowAll || r.Whitelist != nil || r.Blacklist != nil
}

// Policy is the caller-supplied permission configuration for one compile
// call. Rules maps each action kind to its grant; a nil Rules map is a
// configuration error. The policy is read-only: auto-field handling works
// on a derived copy, never on this object.
type Policy struct {
	Rules         map[patch.Action]*Rule `json:"rules" yaml:"rules"`
	AutoTimestamp bool                   `json:"autoTimestamp,omitempty" yaml:"autoTimestamp,omitempty"`
	AutoVersion   bool                   `json:"autoVersion,omitempty" yaml:"autoVersion,omitempty"`
	FailOnError   bool                   `json:"failOnError,omitempty" yaml:"failOnError,omitempty"`
}

// Check verifies the policy is structurally usable.
func (p *Policy) Check() error {
	if p == nil || p.Rules == nil {
		return &ConfigError{Message: "action rules are required"}
	}
	return nil
}

// Default returns the permissive default policy: every action allowed for
// every field, auto bookkeeping fields on, collect-and-skip batches.
// Callers pass it explicitly; nothing substitutes it implicitly.
func Default() *Policy {
	return &Policy{
		Rules: map[patch.Action]*Rule{
			patch.ActionAssign:    {AllowAll: true},
			patch.ActionRemove:    {AllowAll: true},
			patch.ActionIncrement: {AllowAll: true},
			patch.ActionAppend:    {AllowAll: true},
		},
		AutoTimestamp: true,
		AutoVersion:   true,
	}
}

// Effective returns the policy the validator should enforce for this call:
// the base policy plus allowances for the auto-injected fields. The
// receiver is never mutated; repeated calls with the same policy object
// are safe.
func (p *Policy) Effective() *Policy {
	if !p.AutoTimestamp && !p.AutoVersion {
		return p
	}

	eff := &Policy{
		Rules:         make(map[patch.Action]*Rule, len(p.Rules)+2),
		AutoTimestamp: p.AutoTimestamp,
		AutoVersion:   p.AutoVersion,
		FailOnError:   p.FailOnError,
	}
	for action, rule := range p.Rules {
		eff.Rules[action] = rule
	}

	if p.AutoTimestamp {
		eff.Rules[patch.ActionAssign] = allowField(eff.Rules[patch.ActionAssign], FieldLastUpdated)
	}
	if p.AutoVersion {
		eff.Rules[patch.ActionIncrement] = allowField(eff.Rules[patch.ActionIncrement], FieldVersion)
	}
	return eff
}

// allowField returns a copy of rule that additionally grants field. A
// missing rule becomes a whitelist of just that field.
func allowField(rule *Rule, field string) *Rule {
	if rule == nil {
		return &Rule{Whitelist: []string{field}}
	}
	if rule.AllowAll {
		return rule
	}

	granted := *rule
	switch {
	case granted.Whitelist != nil:
		if !slices.Contains(granted.Whitelist, field) {
			granted.Whitelist = append(slices.Clone(granted.Whitelist), field)
		}
	case granted.Blacklist == nil:
		// Bare rule grants nothing; the auto field gets its own whitelist.
		granted.Whitelist = []string{field}
	}
	if slices.Contains(granted.Blacklist, field) {
		kept := make([]string, 0, len(granted.Blacklist))
		for _, f := range granted.Blacklist {
			if f != field {
				kept = append(kept, f)
			}
		}
		granted.Blacklist = kept
	}
	return &granted
}
