package inmemory

import (
	"context"
	"sync"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"
	repo "todoSync/internal/repository"

	"github.com/google/uuid"
)

// userTasks - подколлекция задач одного пользователя, ids хранят порядок создания
type userTasks struct {
	records map[string]task.Record
	ids     []string
}

type TaskStorage struct {
	users map[string]*userTasks
	mtx   *sync.RWMutex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		users: make(map[string]*userTasks),
		mtx:   &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, uid string, record task.Record) (string, error) {
	if uid == "" {
		return "", repo.ErrNoUser
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	col, ok := s.users[uid]
	if !ok {
		col = &userTasks{records: make(map[string]task.Record)}
		s.users[uid] = col
	}

	id := uuid.NewString()
	col.records[id] = record
	col.ids = append(col.ids, id)
	return id, nil
}

func (s *TaskStorage) Update(ctx context.Context, uid, id string, record task.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	col, ok := s.users[uid]
	if !ok {
		return repo.ErrNotFound
	}
	existing, ok := col.records[id]
	if !ok {
		return repo.ErrNotFound
	}

	record.CreatedAt = existing.CreatedAt
	col.records[id] = record
	return nil
}

func (s *TaskStorage) Delete(ctx context.Context, uid, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	col, ok := s.users[uid]
	if !ok {
		return repo.ErrNotFound
	}
	if _, ok := col.records[id]; !ok {
		return repo.ErrNotFound
	}

	delete(col.records, id)
	for ind, val := range col.ids {
		if val == id {
			col.ids = append(col.ids[:ind], col.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func (s *TaskStorage) ListAll(ctx context.Context, uid string) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []task.Task{}
	col, ok := s.users[uid]
	if !ok {
		return res, nil
	}

	for _, id := range col.ids {
		res = append(res, task.FromRecord(id, col.records[id]))
	}
	return res, nil
}
