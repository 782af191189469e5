package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSQLite(t *testing.T, path string) *SQLiteStorage {
	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.RunMigrations())
	return s
}

func TestSQLiteStorage_GetMissing(t *testing.T) {
	s := setupTestSQLite(t, ":memory:")

	_, err := s.GetItem(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_Upsert(t *testing.T) {
	s := setupTestSQLite(t, ":memory:")
	ctx := context.Background()

	require.NoError(t, s.SetItem(ctx, "cart", `[{"id":1,"amount":1}]`))
	require.NoError(t, s.SetItem(ctx, "cart", `[{"id":1,"amount":2}]`))

	value, err := s.GetItem(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"amount":2}]`, value)
}

func TestSQLiteStorage_MigrationsAreIdempotent(t *testing.T) {
	s := setupTestSQLite(t, ":memory:")

	assert.NoError(t, s.RunMigrations())
}

func TestSQLiteStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.db")
	ctx := context.Background()

	first, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, first.RunMigrations())
	require.NoError(t, first.SetItem(ctx, "cart", "[]"))
	require.NoError(t, first.Close())

	second := setupTestSQLite(t, path)
	value, err := second.GetItem(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
}
