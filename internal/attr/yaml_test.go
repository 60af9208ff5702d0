package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMap_UnmarshalYAML(t *testing.T) {
	var m Map
	err := yaml.Unmarshal([]byte("status: done\ncount: 3\ntags: [a, b]\n"), &m)
	require.NoError(t, err)

	want := Map{
		"status": String("done"),
		"count":  Number("3"),
		"tags":   List{String("a"), String("b")},
	}
	assert.Equal(t, want, m)
}

func TestMap_UnmarshalYAML_Nested(t *testing.T) {
	var m Map
	err := yaml.Unmarshal([]byte("meta:\n  done: true\n  score: 1.5\n"), &m)
	require.NoError(t, err)

	meta, ok := m["meta"].(Map)
	require.True(t, ok)
	assert.Equal(t, Bool(true), meta["done"])
	assert.Equal(t, Number("1.5"), meta["score"])
}

func TestList_UnmarshalYAML_RejectsMapping(t *testing.T) {
	var l List
	err := yaml.Unmarshal([]byte("key: value\n"), &l)
	assert.Error(t, err)
}
