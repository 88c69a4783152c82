package cache

import (
	"encoding/json"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"

	"go.uber.org/zap"
)

// Key - единственный слот кэша на устройство, общий для всех пользователей
const Key = "cached_tasks"

type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

type Store struct {
	kv  KeyValue
	now func() time.Time
}

func NewStore(kv KeyValue) *Store {
	return &Store{
		kv:  kv,
		now: time.Now,
	}
}

// Load возвращает последний сохранённый список; при любой ошибке - пустой список
func (s *Store) Load() []task.Task {
	raw, ok, err := s.kv.Get(Key)
	if err != nil {
		logger.Warn("Cache: Ошибка чтения кэша", zap.Error(err))
		return []task.Task{}
	}
	if !ok || raw == "" {
		return []task.Task{}
	}

	var stored []task.Task
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		logger.Warn("Cache: Ошибка разбора кэша", zap.Error(err), zap.Int("bytes", len(raw)))
		return []task.Task{}
	}

	now := s.now()
	tasks := make([]task.Task, 0, len(stored))
	for _, t := range stored {
		tasks = append(tasks, task.Normalize(t, now))
	}

	logger.Debug("Cache: Задачи загружены из кэша", zap.Int("count", len(tasks)))
	return tasks
}

// Save перезаписывает кэш; ошибки только логируются
func (s *Store) Save(tasks []task.Task) {
	if tasks == nil {
		tasks = []task.Task{}
	}

	data, err := json.Marshal(tasks)
	if err != nil {
		logger.Warn("Cache: Ошибка сериализации задач", zap.Error(err))
		return
	}

	if err := s.kv.Set(Key, string(data)); err != nil {
		logger.Warn("Cache: Ошибка записи кэша", zap.Error(err), zap.Int("count", len(tasks)))
	}
}
