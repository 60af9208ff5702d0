package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldpatch/fieldpatch/internal/attr"
	"github.com/fieldpatch/fieldpatch/internal/patch"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := patch.Key{Partition: "order#1", Sort: "meta"}

	attrs := attr.Map{
		"status": attr.String("open"),
		"count":  attr.Number("3"),
		"tags":   attr.List{attr.String("a"), attr.String("b")},
	}
	require.NoError(t, s.Put(ctx, "orders", key, attrs))

	got, err := s.Get(ctx, "orders", key)
	require.NoError(t, err)
	assert.Equal(t, attrs, got)

	// Put replaces the whole record.
	require.NoError(t, s.Put(ctx, "orders", key, attr.Map{"status": attr.String("closed")}))
	got, err = s.Get(ctx, "orders", key)
	require.NoError(t, err)
	assert.Equal(t, attr.Map{"status": attr.String("closed")}, got)

	require.NoError(t, s.Delete(ctx, "orders", key))
	_, err = s.Get(ctx, "orders", key)
	assert.True(t, IsNotFound(err))
}

func TestGet_MissingRecord(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "orders", patch.Key{Partition: "nope", Sort: "x"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConditionFailed(err))
}

func TestPut_InvalidKey(t *testing.T) {
	s := openTestStore(t)
	err := s.Put(context.Background(), "orders", patch.Key{Partition: "only"}, attr.Map{})
	assert.Error(t, err)
}

func TestTablesAreIsolated(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := patch.Key{Partition: "a", Sort: "b"}

	require.NoError(t, s.Put(ctx, "orders", key, attr.Map{"n": attr.Number("1")}))
	_, err := s.Get(ctx, "users", key)
	assert.True(t, IsNotFound(err))
}

func TestOpen_FileTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	key := patch.Key{Partition: "a", Sort: "b"}
	require.NoError(t, first.Put(ctx, "orders", key, attr.Map{"n": attr.Number("1")}))
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	got, err := second.Get(ctx, "orders", key)
	require.NoError(t, err)
	assert.Equal(t, attr.Map{"n": attr.Number("1")}, got)
}
