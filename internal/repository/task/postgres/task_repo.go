package postgres

import (
	"context"
	"fmt"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"
	repo "todoSync/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	// сколько ждать базу при старте, пока она поднимается
	ConnectTimeout time.Duration
}

func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:        10,
		MinConns:        2,
		MaxConnIdleTime: time.Minute * 5,
		ConnectTimeout:  time.Second * 30,
	}
}

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns
	config.MaxConnIdleTime = poolCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = poolCfg.ConnectTimeout
	err = backoff.Retry(func() error {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("Repository: База недоступна, повтор", zap.Error(err))
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, uid string, record task.Record) (string, error) {
	if uid == "" {
		return "", repo.ErrNoUser
	}
	start := time.Now()

	query := `INSERT INTO tasks
				(user_id, subject, status, deadline, priority, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id::text`

	var id string
	err := s.pool.QueryRow(ctx, query,
		uid,
		record.Subject,
		string(record.Status),
		record.Deadline,
		string(record.Priority),
		record.CreatedAt,
		record.UpdatedAt,
	).Scan(&id)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return "", fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return id, nil
}

func (s *Storage) Update(ctx context.Context, uid, id string, record task.Record) error {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return repo.ErrNotFound
	}
	start := time.Now()

	query := `UPDATE tasks
			SET subject = $1,
				status = $2,
				deadline = $3,
				priority = $4,
				updated_at = $5
			WHERE id = $6 AND user_id = $7`

	tag, err := s.pool.Exec(ctx, query,
		record.Subject,
		string(record.Status),
		record.Deadline,
		string(record.Priority),
		record.UpdatedAt,
		taskID,
		uid,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, uid, id string) error {
	taskID, err := uuid.Parse(id)
	if err != nil {
		return repo.ErrNotFound
	}
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, taskID, uid)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) ListAll(ctx context.Context, uid string) ([]task.Task, error) {
	start := time.Now()

	query := `SELECT
				id::text,
				subject,
				status,
				deadline,
				priority
				FROM tasks
				WHERE user_id = $1
				ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, uid)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []task.Task{}
	for rows.Next() {
		var id, subject, status, deadline, priority string

		if err := rows.Scan(&id, &subject, &status, &deadline, &priority); err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}

		tasks = append(tasks, task.Task{
			ID:       id,
			Subject:  subject,
			Status:   task.Status(status),
			Deadline: deadline,
			Priority: task.Priority(priority),
		})
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*time.Duration(len(tasks)) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}
