package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/user"
	repo "todoSync/internal/repository"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Storage) GetProfile(ctx context.Context, uid string) (user.User, error) {
	start := time.Now()

	query := `SELECT name, email, bio, course, avatar, is_pro, settings
				FROM profiles
				WHERE user_id = $1`

	u := user.User{ID: uid}
	err := s.pool.QueryRow(ctx, query, uid).Scan(
		&u.Name,
		&u.Email,
		&u.Bio,
		&u.Course,
		&u.Avatar,
		&u.IsPro,
		&u.Settings,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, repo.ErrNoProfile
	}
	if err != nil {
		logger.Error("Repository: Не удалось получить профиль", err, zap.Duration("ms", time.Since(start)))
		return user.User{}, fmt.Errorf("получение профиля: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return u, nil
}

// SaveProfile записывает документ профиля целиком (upsert)
func (s *Storage) SaveProfile(ctx context.Context, u user.User) error {
	if u.ID == "" {
		return repo.ErrNoUser
	}
	start := time.Now()

	query := `INSERT INTO profiles
				(user_id, name, email, bio, course, avatar, is_pro, settings)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (user_id) DO UPDATE
				SET name = EXCLUDED.name,
					email = EXCLUDED.email,
					bio = EXCLUDED.bio,
					course = EXCLUDED.course,
					avatar = EXCLUDED.avatar,
					is_pro = EXCLUDED.is_pro,
					settings = EXCLUDED.settings,
					updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.Bio,
		u.Course,
		u.Avatar,
		u.IsPro,
		u.Settings,
	)
	if err != nil {
		logger.Error("Repository: Не удалось сохранить профиль", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("сохранение профиля: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}
