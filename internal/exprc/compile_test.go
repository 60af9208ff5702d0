package exprc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/patch"
)

func compileRequest(t *testing.T, r *patch.Request) *Operation {
	t.Helper()
	op, err := Compile("orders", patch.Classify(r), r)
	require.NoError(t, err)
	return op
}

func TestCompile_SingleAssign(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key:    patch.Key{Partition: "order#1", Sort: "meta"},
		Assign: attr.Map{"status": attr.String("shipped")},
	})

	assert.Equal(t, "orders", op.Table)
	assert.Equal(t, patch.Key{Partition: "order#1", Sort: "meta"}, op.Key)
	assert.Equal(t, "SET #status = :status", op.UpdateExpression)
	assert.Equal(t, map[string]string{"#status": "status"}, op.Names)
	require.Len(t, op.Values, 1)
	assert.JSONEq(t, `{"S":"shipped"}`, string(op.Values[":status"]))
	assert.Equal(t, "attribute_exists(pk)", op.Condition)
}

func TestCompile_Increment(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key:       patch.Key{Partition: "a", Sort: "b"},
		Increment: attr.Map{"count": attr.Number("5")},
	})

	assert.Equal(t, "SET #count = if_not_exists(#count, :_zero) + :count", op.UpdateExpression)
	assert.JSONEq(t, `{"N":"5"}`, string(op.Values[":count"]))
	assert.JSONEq(t, `{"N":"0"}`, string(op.Values[":_zero"]))
}

func TestCompile_Append(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key:    patch.Key{Partition: "a", Sort: "b"},
		Append: attr.Map{"tags": attr.List{attr.String("new")}},
	})

	assert.Equal(t, "SET #tags = list_append(if_not_exists(#tags, :_empty), :tags)", op.UpdateExpression)
	assert.JSONEq(t, `{"L":[{"S":"new"}]}`, string(op.Values[":tags"]))
	assert.JSONEq(t, `{"L":[]}`, string(op.Values[":_empty"]))
}

func TestCompile_SharedGuardPlaceholder(t *testing.T) {
	// Two increments share one :_zero entry.
	op := compileRequest(t, &patch.Request{
		Key:       patch.Key{Partition: "a", Sort: "b"},
		Increment: attr.Map{"count": attr.Number("1"), "score": attr.Number("2")},
	})

	assert.Len(t, op.Values, 3)
	assert.Contains(t, op.Values, ":_zero")
}

func TestCompile_RemoveOnly(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key:    patch.Key{Partition: "a", Sort: "b"},
		Remove: []string{"legacyFlag", "draft"},
	})

	assert.Equal(t, "REMOVE #legacyFlag, #draft", op.UpdateExpression)
	assert.Equal(t, map[string]string{"#legacyFlag": "legacyFlag", "#draft": "draft"}, op.Names)
	assert.Empty(t, op.Values)
}

func TestCompile_AllActionsCombined(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key:       patch.Key{Partition: "a", Sort: "b"},
		Assign:    attr.Map{"status": attr.String("open")},
		Remove:    []string{"draft"},
		Increment: attr.Map{"version": attr.Number("1")},
		Append:    attr.Map{"tags": attr.List{attr.String("x")}},
	})

	want := "SET #status = :status, " +
		"#version = if_not_exists(#version, :_zero) + :version, " +
		"#tags = list_append(if_not_exists(#tags, :_empty), :tags) " +
		"REMOVE #draft"
	assert.Equal(t, want, op.UpdateExpression)
	assert.Len(t, op.Names, 4)
}

func TestCompile_EmptyRequest(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key: patch.Key{Partition: "a", Sort: "b"},
	})

	assert.Empty(t, op.UpdateExpression)
	assert.Empty(t, op.Names)
	assert.Empty(t, op.Values)
	assert.Equal(t, "attribute_exists(pk)", op.Condition)
}

func TestCompile_Deterministic(t *testing.T) {
	req := &patch.Request{
		Key: patch.Key{Partition: "a", Sort: "b"},
		Assign: attr.Map{
			"zeta":  attr.String("1"),
			"alpha": attr.String("2"),
			"mid":   attr.String("3"),
		},
		Increment: attr.Map{"score": attr.Number("1"), "count": attr.Number("2")},
	}

	first := compileRequest(t, req)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first.UpdateExpression, compileRequest(t, req).UpdateExpression)
	}
	// Map buckets come out in sorted field order.
	assert.Equal(t,
		"SET #alpha = :alpha, #mid = :mid, #zeta = :zeta, "+
			"#count = if_not_exists(#count, :_zero) + :count, "+
			"#score = if_not_exists(#score, :_zero) + :score",
		first.UpdateExpression)
}

func TestOperationJSON(t *testing.T) {
	op := compileRequest(t, &patch.Request{
		Key:    patch.Key{Partition: "a", Sort: "b"},
		Assign: attr.Map{"status": attr.String("x")},
	})

	data, err := json.Marshal(op)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "orders", decoded["table"])
	assert.Contains(t, decoded, "updateExpression")
	assert.Contains(t, decoded, "condition")

	// Remove-only operations omit the values map entirely.
	removeOnly := compileRequest(t, &patch.Request{
		Key:    patch.Key{Partition: "a", Sort: "b"},
		Remove: []string{"draft"},
	})
	data, err = json.Marshal(removeOnly)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"values"`)
}
