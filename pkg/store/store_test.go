package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCreatesTables(t *testing.T) {
	s := setupTestStore(t)

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='content_blocks'").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestInMemoryStore(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put(context.Background(), "home", "json", "hero", map[string]interface{}{"title": "x"})
	require.NoError(t, err)
	_, err = s.Get(context.Background(), "home", "json", "hero")
	require.NoError(t, err)
}

func TestPutAssignsStableID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, "home", "json", "hero", map[string]interface{}{"title": "One"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, map[string]interface{}{"title": "One"}, first.Values)

	second, err := s.Put(ctx, "home", "json", "hero", map[string]interface{}{"title": "Two"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "Two", second.Values.(map[string]interface{})["title"])
	require.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

func TestGetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), "home", "json", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPutArrayValues(t *testing.T) {
	s := setupTestStore(t)

	values := []interface{}{
		map[string]interface{}{"id": "a", "question": "Q"},
	}
	b, err := s.Put(context.Background(), "home", "form", "faq", values)
	require.NoError(t, err)
	require.Equal(t, values, b.Values)
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	b, err := s.Put(ctx, "home", "json", "footer", map[string]interface{}{"x": "y"})
	require.NoError(t, err)

	require.ErrorIs(t, s.Delete(ctx, "home", "json", "footer", "wrong-id"), ErrNotFound)
	require.NoError(t, s.Delete(ctx, "home", "json", "footer", b.ID))
	require.ErrorIs(t, s.Delete(ctx, "home", "json", "footer", ""), ErrNotFound)
}

func TestList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, "home", "json", "hero", map[string]interface{}{})
	require.NoError(t, err)
	_, err = s.Put(ctx, "home", "form", "faq", []interface{}{})
	require.NoError(t, err)

	blocks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Nil(t, blocks[0].Values)
}
