package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldpatch/fieldpatch/internal/attr"
)

func TestClassify_Buckets(t *testing.T) {
	req := &Request{
		Key: Key{Partition: "a", Sort: "b"},
		Assign: attr.Map{
			"zebra": attr.String("z"),
			"apple": attr.String("a"),
		},
		Remove:    []string{"second", "first"},
		Increment: attr.Map{"count": attr.Number("1")},
		Append:    attr.Map{"tags": attr.List{attr.String("x")}},
	}

	c := Classify(req)

	assert.Equal(t, []string{"apple", "zebra"}, c.Assign, "map buckets sort")
	assert.Equal(t, []string{"second", "first"}, c.Remove, "remove keeps input order")
	assert.Equal(t, []string{"count"}, c.Increment)
	assert.Equal(t, []string{"tags"}, c.Append)
}

func TestClassify_EmptyRequest(t *testing.T) {
	c := Classify(&Request{Key: Key{Partition: "a", Sort: "b"}})

	assert.Empty(t, c.Assign)
	assert.Empty(t, c.Remove)
	assert.Empty(t, c.Increment)
	assert.Empty(t, c.Append)
	assert.Empty(t, c.All())
}

func TestClassified_AllIsCumulative(t *testing.T) {
	c := Classified{
		Assign:    []string{"status"},
		Remove:    []string{"status", "draft"},
		Increment: []string{"count"},
	}

	assert.Equal(t, []string{"status", "status", "draft", "count"}, c.All(),
		"All keeps repeats so the duplicate check sees them")
}

func TestClassified_Fields(t *testing.T) {
	c := Classified{
		Assign: []string{"a"},
		Append: []string{"d"},
	}

	assert.Equal(t, []string{"a"}, c.Fields(ActionAssign))
	assert.Empty(t, c.Fields(ActionRemove))
	assert.Equal(t, []string{"d"}, c.Fields(ActionAppend))
}
