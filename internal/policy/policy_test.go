package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fieldpatch/fieldpatch/internal/patch"
)

func TestPolicyCheck(t *testing.T) {
	var nilPolicy *Policy
	assert.Error(t, nilPolicy.Check())
	assert.Error(t, (&Policy{}).Check())
	assert.NoError(t, Default().Check())

	err := (&Policy{}).Check()
	assert.True(t, IsConfigError(err))
	assert.False(t, IsCode(err, CodeInvalidKey))
}

func TestDefaultPolicy(t *testing.T) {
	pol := Default()
	require.NoError(t, pol.Check())

	for _, action := range patch.Actions {
		rule := pol.Rules[action]
		require.NotNil(t, rule, "action %s", action)
		assert.True(t, rule.AllowAll)
	}
	assert.True(t, pol.AutoTimestamp)
	assert.True(t, pol.AutoVersion)
	assert.False(t, pol.FailOnError)
}

func TestEffective_NoAutoFieldsReturnsSamePolicy(t *testing.T) {
	pol := &Policy{Rules: map[patch.Action]*Rule{
		patch.ActionAssign: {AllowAll: true},
	}}
	assert.Same(t, pol, pol.Effective())
}

func TestEffective_DoesNotMutateBase(t *testing.T) {
	pol := &Policy{
		Rules: map[patch.Action]*Rule{
			patch.ActionAssign:    {Whitelist: []string{"status"}},
			patch.ActionIncrement: {Blacklist: []string{FieldVersion}},
		},
		AutoTimestamp: true,
		AutoVersion:   true,
	}

	eff := pol.Effective()
	require.NotSame(t, pol, eff)

	// Base rules are untouched.
	assert.Equal(t, []string{"status"}, pol.Rules[patch.ActionAssign].Whitelist)
	assert.Equal(t, []string{FieldVersion}, pol.Rules[patch.ActionIncrement].Blacklist)

	// The derived copy grants the auto fields.
	assert.ElementsMatch(t,
		[]string{"status", FieldLastUpdated},
		eff.Rules[patch.ActionAssign].Whitelist)
	assert.Empty(t, eff.Rules[patch.ActionIncrement].Blacklist)
}

func TestEffective_CreatesMissingRules(t *testing.T) {
	pol := &Policy{
		Rules:         map[patch.Action]*Rule{},
		AutoTimestamp: true,
		AutoVersion:   true,
	}

	eff := pol.Effective()
	require.NotNil(t, eff.Rules[patch.ActionAssign])
	assert.Equal(t, []string{FieldLastUpdated}, eff.Rules[patch.ActionAssign].Whitelist)
	require.NotNil(t, eff.Rules[patch.ActionIncrement])
	assert.Equal(t, []string{FieldVersion}, eff.Rules[patch.ActionIncrement].Whitelist)
}

func TestEffective_AllowAllRuleUnchanged(t *testing.T) {
	rule := &Rule{AllowAll: true}
	pol := &Policy{
		Rules:         map[patch.Action]*Rule{patch.ActionAssign: rule},
		AutoTimestamp: true,
	}

	eff := pol.Effective()
	assert.Same(t, rule, eff.Rules[patch.ActionAssign])
}

func TestEffective_BareRuleGetsWhitelist(t *testing.T) {
	pol := &Policy{
		Rules:       map[patch.Action]*Rule{patch.ActionIncrement: {}},
		AutoVersion: true,
	}

	eff := pol.Effective()
	assert.Equal(t, []string{FieldVersion}, eff.Rules[patch.ActionIncrement].Whitelist)
	// The base rule still grants nothing.
	assert.False(t, pol.Rules[patch.ActionIncrement].grantsAnything())
}

func TestPolicyYAML(t *testing.T) {
	src := `
rules:
  assign:
    whitelist: [status, owner]
    mandatory: [updatedBy]
  increment:
    allowAll: true
autoTimestamp: true
failOnError: true
`
	var pol Policy
	require.NoError(t, yaml.Unmarshal([]byte(src), &pol))

	require.NotNil(t, pol.Rules[patch.ActionAssign])
	assert.Equal(t, []string{"status", "owner"}, pol.Rules[patch.ActionAssign].Whitelist)
	assert.Equal(t, []string{"updatedBy"}, pol.Rules[patch.ActionAssign].Mandatory)
	assert.True(t, pol.Rules[patch.ActionIncrement].AllowAll)
	assert.True(t, pol.AutoTimestamp)
	assert.False(t, pol.AutoVersion)
	assert.True(t, pol.FailOnError)
}

func TestPolicyYAML_UnknownAction(t *testing.T) {
	var pol Policy
	err := yaml.Unmarshal([]byte("rules:\n  replace:\n    allowAll: true\n"), &pol)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replace")
}

func TestPolicyJSONRoundTrip(t *testing.T) {
	pol := &Policy{
		Rules: map[patch.Action]*Rule{
			patch.ActionAssign: {Whitelist: []string{"status"}},
			patch.ActionRemove: {AllowAll: true},
		},
		AutoVersion: true,
	}

	data, err := json.Marshal(pol)
	require.NoError(t, err)

	var back Policy
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, pol.Rules, back.Rules)
	assert.Equal(t, pol.AutoVersion, back.AutoVersion)
}
