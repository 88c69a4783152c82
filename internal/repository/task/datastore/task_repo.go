package datastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"
	repo "todoSync/internal/repository"

	"cloud.google.com/go/datastore"
	"go.uber.org/zap"
)

// Задачи лежат под ключом пользователя: User/<uid> -> Task/<auto id>
const (
	KindUser = "User"
	KindTask = "Task"
)

type entity struct {
	Subject   string    `datastore:"subject"`
	Status    string    `datastore:"status"`
	Deadline  string    `datastore:"deadline"`
	Priority  string    `datastore:"priority"`
	CreatedAt time.Time `datastore:"created_at"`
	UpdatedAt time.Time `datastore:"updated_at"`
}

func toEntity(r task.Record) *entity {
	return &entity{
		Subject:   r.Subject,
		Status:    string(r.Status),
		Deadline:  r.Deadline,
		Priority:  string(r.Priority),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (e *entity) toTask(id int64) task.Task {
	return task.Task{
		ID:       strconv.FormatInt(id, 10),
		Subject:  e.Subject,
		Status:   task.Status(e.Status),
		Deadline: e.Deadline,
		Priority: task.Priority(e.Priority),
	}
}

type Storage struct {
	ds *datastore.Client
}

// New создаёт клиента; DATASTORE_EMULATOR_HOST подхватывается клиентом сам
func New(ctx context.Context, projectID string) (*Storage, error) {
	if emulatorHost := os.Getenv("DATASTORE_EMULATOR_HOST"); emulatorHost != "" {
		logger.Info("Repository: Datastore работает через эмулятор", zap.String("host", emulatorHost))
	}

	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		logger.Error("Repository: Ошибка создания клиента Datastore", err)
		return nil, fmt.Errorf("создание клиента datastore: %w", err)
	}

	logger.Info("Repository: Клиент Datastore создан", zap.String("project_id", projectID))
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	logger.Info("Repository: Закрытие клиента Datastore")
	return s.ds.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	q := datastore.NewQuery(KindTask).KeysOnly().Limit(1)
	if _, err := s.ds.GetAll(ctx, q, nil); err != nil {
		logger.Error("Repository: Datastore недоступен", err)
		return fmt.Errorf("проверка datastore: %w", err)
	}
	return nil
}

func userKey(uid string) *datastore.Key {
	return datastore.NameKey(KindUser, uid, nil)
}

func taskKey(uid, id string) (*datastore.Key, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || numericID <= 0 {
		return nil, repo.ErrNotFound
	}
	return datastore.IDKey(KindTask, numericID, userKey(uid)), nil
}

func wrapError(err error) error {
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return repo.ErrNotFound
	}
	return err
}

func (s *Storage) Create(ctx context.Context, uid string, record task.Record) (string, error) {
	if uid == "" {
		return "", repo.ErrNoUser
	}
	start := time.Now()

	key := datastore.IncompleteKey(KindTask, userKey(uid))
	newKey, err := s.ds.Put(ctx, key, toEntity(record))
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return "", fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*200 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return strconv.FormatInt(newKey.ID, 10), nil
}

// Update сохраняет created_at исходного документа, как updateDoc
func (s *Storage) Update(ctx context.Context, uid, id string, record task.Record) error {
	key, err := taskKey(uid, id)
	if err != nil {
		return err
	}
	start := time.Now()

	_, err = s.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing entity
		if err := tx.Get(key, &existing); err != nil {
			return wrapError(err)
		}

		updated := toEntity(record)
		updated.CreatedAt = existing.CreatedAt
		_, err := tx.Put(key, updated)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return err
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*200 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, uid, id string) error {
	key, err := taskKey(uid, id)
	if err != nil {
		return err
	}
	start := time.Now()

	_, err = s.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing entity
		if err := tx.Get(key, &existing); err != nil {
			return wrapError(err)
		}
		return tx.Delete(key)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return err
		}
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

func (s *Storage) ListAll(ctx context.Context, uid string) ([]task.Task, error) {
	start := time.Now()

	q := datastore.NewQuery(KindTask).Ancestor(userKey(uid)).Order("created_at")

	var entities []entity
	keys, err := s.ds.GetAll(ctx, q, &entities)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks := make([]task.Task, 0, len(entities))
	for i, key := range keys {
		tasks = append(tasks, entities[i].toTask(key.ID))
	}

	if time.Since(start) > time.Millisecond*200 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return tasks, nil
}
