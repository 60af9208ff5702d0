package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldpatch/fieldpatch/internal/exprc"
)

func opWith(expr string, names map[string]string, values []string) *exprc.Operation {
	op := &exprc.Operation{
		UpdateExpression: expr,
		Names:            names,
		Values:           map[string]json.RawMessage{},
	}
	for _, v := range values {
		op.Values[v] = json.RawMessage(`{"N":"0"}`)
	}
	return op
}

func TestParseUpdate_Mixed(t *testing.T) {
	op := opWith(
		"SET #status = :status, #count = if_not_exists(#count, :_zero) + :count, "+
			"#tags = list_append(if_not_exists(#tags, :_empty), :tags) REMOVE #draft",
		map[string]string{
			"#status": "status",
			"#count":  "count",
			"#tags":   "tags",
			"#draft":  "draft",
		},
		[]string{":status", ":count", ":tags", ":_zero", ":_empty"},
	)

	plan, err := parseUpdate(op)
	require.NoError(t, err)

	require.Len(t, plan.sets, 3)
	assert.Equal(t, setStep{kind: setAssign, field: "status", valueRef: ":status"}, plan.sets[0])
	assert.Equal(t, setStep{kind: setAdd, field: "count", valueRef: ":count"}, plan.sets[1])
	assert.Equal(t, setStep{kind: setAppend, field: "tags", valueRef: ":tags"}, plan.sets[2])
	assert.Equal(t, []string{"draft"}, plan.removes)
}

func TestParseUpdate_RemoveOnly(t *testing.T) {
	op := opWith("REMOVE #a, #b", map[string]string{"#a": "a", "#b": "b"}, nil)

	plan, err := parseUpdate(op)
	require.NoError(t, err)
	assert.Empty(t, plan.sets)
	assert.Equal(t, []string{"a", "b"}, plan.removes)
}

func TestParseUpdate_Empty(t *testing.T) {
	plan, err := parseUpdate(&exprc.Operation{})
	require.NoError(t, err)
	assert.Empty(t, plan.sets)
	assert.Empty(t, plan.removes)
}

func TestParseUpdate_Errors(t *testing.T) {
	tests := []struct {
		name string
		op   *exprc.Operation
	}{
		{
			"unknown_clause",
			opWith("DELETE #a", map[string]string{"#a": "a"}, nil),
		},
		{
			"unresolved_name",
			opWith("SET #ghost = :ghost", map[string]string{}, []string{":ghost"}),
		},
		{
			"malformed_set_item",
			opWith("SET #a :a", map[string]string{"#a": "a"}, []string{":a"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseUpdate(tt.op)
			assert.Error(t, err)
		})
	}
}

func TestSplitTopLevel(t *testing.T) {
	assert.Nil(t, splitTopLevel("  "))
	assert.Equal(t, []string{"a = b"}, splitTopLevel("a = b"))
	assert.Equal(t,
		[]string{"#a = :a", "#b = list_append(if_not_exists(#b, :_empty), :b)"},
		splitTopLevel("#a = :a, #b = list_append(if_not_exists(#b, :_empty), :b)"))
	assert.Equal(t,
		[]string{"if_not_exists(#b, :_empty)", ":b"},
		splitTopLevel("if_not_exists(#b, :_empty), :b"))
}
