package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"todoSync/internal/storage/kv/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_GetSet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "device", "cache.db")

	storage, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	defer storage.Close()

	_, ok, err := storage.Get("cached_tasks")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, storage.Set("cached_tasks", "[]"))
	require.NoError(t, storage.Set("cached_tasks", `[{"id":"1"}]`))

	value, ok, err := storage.Get("cached_tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, value)
}

// Значение переживает переоткрытие файла, как кэш переживает перезапуск приложения
func TestStorage_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set("cached_tasks", `[{"subject":"Essay"}]`))
	require.NoError(t, first.Close())

	second, err := sqlite.New(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	value, ok, err := second.Get("cached_tasks")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"subject":"Essay"}]`, value)
}
