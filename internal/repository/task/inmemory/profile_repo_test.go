package inmemory_test

import (
	"context"
	"testing"

	"todoSync/internal/models/user"
	"todoSync/internal/repository"
	"todoSync/internal/repository/task/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStorage_SaveAndGet(t *testing.T) {
	storage := inmemory.NewProfileStorage()
	ctx := context.Background()

	_, err := storage.GetProfile(ctx, "alice")
	assert.ErrorIs(t, err, repository.ErrNoProfile)

	profile := user.User{ID: "alice", Name: "Alice", IsPro: true, Settings: user.DefaultSettings()}
	require.NoError(t, storage.SaveProfile(ctx, profile))

	loaded, err := storage.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)

	// изменение возвращённой копии не трогает хранилище
	loaded.Settings.TaskVisibility[0] = "changed"
	again, err := storage.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.VisibilityNotStarted, again.Settings.TaskVisibility[0])

	profile.Name = "Alice B"
	require.NoError(t, storage.SaveProfile(ctx, profile))
	again, err = storage.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", again.Name)
}

func TestProfileStorage_RequiresUser(t *testing.T) {
	storage := inmemory.NewProfileStorage()
	assert.ErrorIs(t, storage.SaveProfile(context.Background(), user.User{Name: "nobody"}), repository.ErrNoUser)
}
