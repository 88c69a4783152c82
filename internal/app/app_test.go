package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"todoSync/internal/config"
	"todoSync/internal/handlers/dto"
	"todoSync/internal/models/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(cachePath string) *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Port: "0"},
		Logging:    config.LoggingConfig{Development: false},
		Repository: config.RepositoryConfig{Type: config.RepositoryInMemory},
		Cache:      config.CacheConfig{Path: cachePath},
		Sync:       config.SyncConfig{Timeout: 5 * time.Second},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
}

func newTestApp(t *testing.T, cachePath string) *App {
	t.Helper()
	a := New(testConfig(cachePath))
	require.NoError(t, a.Init(context.Background()))
	return a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTasks(t *testing.T, w *httptest.ResponseRecorder) []dto.TaskResponse {
	t.Helper()
	var tasks []dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	return tasks
}

func TestApp_TaskLifecycle(t *testing.T) {
	a := newTestApp(t, "")
	defer a.Shutdown()
	h := a.Router()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/session", `{"id":"u1","name":"Ann"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// синхронная перезагрузка отменяет фоновую от входа
	w = do(t, h, http.MethodPost, "/tasks/reload", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodPost, "/tasks", `{"subject":"Essay","deadline":"2099-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	a.service.Flush()
	tasks := decodeTasks(t, do(t, h, http.MethodGet, "/tasks", ""))
	require.Len(t, tasks, 1)
	synced := tasks[0]
	assert.True(t, synced.Synced)
	assert.Equal(t, "Essay", synced.Subject)
	assert.Equal(t, "not started", synced.Status)

	w = do(t, h, http.MethodPost, "/tasks", `{"subject":"essay","deadline":"2099-02-01"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodPut, "/tasks/"+synced.ID, `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, w.Code)

	a.service.Flush()
	w = do(t, h, http.MethodGet, "/tasks/remote", "")
	require.Equal(t, http.StatusOK, w.Code)
	remote := decodeTasks(t, w)
	require.Len(t, remote, 1)
	assert.Equal(t, "completed", remote[0].Status)

	w = do(t, h, http.MethodDelete, "/tasks/completed", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())

	a.service.Flush()
	assert.Empty(t, decodeTasks(t, do(t, h, http.MethodGet, "/tasks", "")))

	w = do(t, h, http.MethodDelete, "/session", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_CachePersistsAcrossRestarts(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	first := newTestApp(t, cachePath)
	h := first.Router()
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/session", `{"id":"u1","name":"Ann"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/tasks/reload", "").Code)
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/tasks", `{"subject":"Read","deadline":"2099-01-01"}`).Code)
	first.Shutdown()

	// без входа список берётся из кэша устройства
	second := newTestApp(t, cachePath)
	defer second.Shutdown()

	tasks := second.service.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Read", tasks[0].Subject)
}

func TestApp_PlansRemindersForSignedInUser(t *testing.T) {
	a := newTestApp(t, "")
	defer a.Shutdown()
	h := a.Router()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/session", `{"id":"u1","name":"Ann"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/tasks/reload", "").Code)
	require.Equal(t, http.StatusCreated,
		do(t, h, http.MethodPost, "/tasks", `{"subject":"Report","deadline":"2099-01-01"}`).Code)

	assert.Eventually(t, func() bool {
		return a.scheduler.Pending() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/session", "").Code)
	assert.Equal(t, 0, a.scheduler.Pending())
}

func TestApp_ProfileSurvivesSignOut(t *testing.T) {
	a := newTestApp(t, "")
	defer a.Shutdown()
	h := a.Router()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/session", `{"id":"u1","name":"Ann"}`).Code)
	require.Equal(t, http.StatusOK,
		do(t, h, http.MethodPut, "/session/settings", `{"auto_sort":true,"sort_by":"subject","task_reminders":false}`).Code)
	require.Equal(t, http.StatusOK,
		do(t, h, http.MethodPut, "/session/profile", `{"name":"Ann B","course":"Math"}`).Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/session/pro", "").Code)
	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/session", "").Code)

	// клиент присылает только id и имя: остальное приходит из профиля
	w := do(t, h, http.MethodPost, "/session", `{"id":"u1","name":"Ann"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var u user.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	assert.Equal(t, "Ann B", u.Name)
	assert.Equal(t, "Math", u.Course)
	assert.True(t, u.IsPro)
	assert.True(t, u.Settings.AutoSort)
	assert.Equal(t, user.SortBySubject, u.Settings.SortBy)
	assert.False(t, u.Settings.TaskReminders)
}

func TestApp_UnknownRouteAndCORS(t *testing.T) {
	a := newTestApp(t, "")
	defer a.Shutdown()

	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:8100")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, http.StatusNotFound, do(t, a.Router(), http.MethodGet, "/nope", "").Code)
}
