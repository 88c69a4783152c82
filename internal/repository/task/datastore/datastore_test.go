package datastore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	"todoSync/internal/repository"
	"todoSync/internal/repository/task/datastore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тест ходит в эмулятор Datastore: gcloud beta emulators datastore start
func newEmulatorStorage(t *testing.T) *datastore.Storage {
	t.Helper()
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST не задан")
	}

	storage, err := datastore.New(context.Background(), "todosync-test")
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestStorage_Lifecycle(t *testing.T) {
	storage := newEmulatorStorage(t)
	ctx := context.Background()
	uid := "user-" + uuid.NewString()
	now := time.Now()

	id, err := storage.Create(ctx, uid, task.Record{
		Subject:   "Essay",
		Status:    task.StatusNotStarted,
		Deadline:  "2026-12-01",
		Priority:  task.PriorityNormal,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	err = storage.Update(ctx, uid, id, task.Record{
		Subject:   "Essay v2",
		Status:    task.StatusCompleted,
		Deadline:  "2026-12-01",
		Priority:  task.PriorityHigh,
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)

	tasks, err := storage.ListAll(ctx, uid)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Essay v2", tasks[0].Subject)
	assert.Equal(t, task.StatusCompleted, tasks[0].Status)

	require.NoError(t, storage.Delete(ctx, uid, id))
	assert.ErrorIs(t, storage.Delete(ctx, uid, id), repository.ErrNotFound)
	assert.ErrorIs(t, storage.Update(ctx, uid, id, task.Record{}), repository.ErrNotFound)
}

func TestStorage_Profile(t *testing.T) {
	storage := newEmulatorStorage(t)
	ctx := context.Background()
	uid := "user-" + uuid.NewString()

	_, err := storage.GetProfile(ctx, uid)
	assert.ErrorIs(t, err, repository.ErrNoProfile)

	profile := user.User{ID: uid, Name: "Ann", Avatar: user.DefaultAvatar, Settings: user.DefaultSettings()}
	require.NoError(t, storage.SaveProfile(ctx, profile))

	profile.IsPro = true
	profile.Settings.NotificationTime = "1h"
	require.NoError(t, storage.SaveProfile(ctx, profile))

	loaded, err := storage.GetProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)

	// задачи под тем же ключом пользователя не мешают профилю
	_, err = storage.Create(ctx, uid, task.Record{Subject: "Essay", Deadline: "2026-12-01"})
	require.NoError(t, err)
	loaded, err = storage.GetProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Ann", loaded.Name)
}
