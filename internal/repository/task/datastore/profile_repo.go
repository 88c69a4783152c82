package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/user"
	repo "todoSync/internal/repository"

	"cloud.google.com/go/datastore"
	"go.uber.org/zap"
)

// Профиль - сама сущность User/<uid>, задачи лежат под ней
type profileEntity struct {
	Name      string         `datastore:"name"`
	Email     string         `datastore:"email,noindex"`
	Bio       string         `datastore:"bio,noindex"`
	Course    string         `datastore:"course,noindex"`
	Avatar    string         `datastore:"avatar,noindex"`
	IsPro     bool           `datastore:"is_pro"`
	Settings  settingsEntity `datastore:"settings"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

type settingsEntity struct {
	AutoSort         bool     `datastore:"auto_sort"`
	SortBy           string   `datastore:"sort_by"`
	TaskVisibility   []string `datastore:"task_visibility"`
	TaskReminders    bool     `datastore:"task_reminders"`
	NotificationTime string   `datastore:"notification_time"`
}

func toProfileEntity(u user.User) *profileEntity {
	return &profileEntity{
		Name:   u.Name,
		Email:  u.Email,
		Bio:    u.Bio,
		Course: u.Course,
		Avatar: u.Avatar,
		IsPro:  u.IsPro,
		Settings: settingsEntity{
			AutoSort:         u.Settings.AutoSort,
			SortBy:           string(u.Settings.SortBy),
			TaskVisibility:   append([]string(nil), u.Settings.TaskVisibility...),
			TaskReminders:    u.Settings.TaskReminders,
			NotificationTime: u.Settings.NotificationTime,
		},
		UpdatedAt: time.Now(),
	}
}

func (e *profileEntity) toUser(uid string) user.User {
	return user.User{
		ID:     uid,
		Name:   e.Name,
		Email:  e.Email,
		Bio:    e.Bio,
		Course: e.Course,
		Avatar: e.Avatar,
		IsPro:  e.IsPro,
		Settings: user.Settings{
			AutoSort:         e.Settings.AutoSort,
			SortBy:           user.SortOption(e.Settings.SortBy),
			TaskVisibility:   e.Settings.TaskVisibility,
			TaskReminders:    e.Settings.TaskReminders,
			NotificationTime: e.Settings.NotificationTime,
		},
	}
}

func (s *Storage) GetProfile(ctx context.Context, uid string) (user.User, error) {
	if uid == "" {
		return user.User{}, repo.ErrNoUser
	}
	start := time.Now()

	var e profileEntity
	if err := s.ds.Get(ctx, userKey(uid), &e); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return user.User{}, repo.ErrNoProfile
		}
		logger.Error("Repository: Не удалось получить профиль", err, zap.Duration("ms", time.Since(start)))
		return user.User{}, fmt.Errorf("получение профиля: %w", err)
	}
	return e.toUser(uid), nil
}

func (s *Storage) SaveProfile(ctx context.Context, u user.User) error {
	if u.ID == "" {
		return repo.ErrNoUser
	}
	start := time.Now()

	if _, err := s.ds.Put(ctx, userKey(u.ID), toProfileEntity(u)); err != nil {
		logger.Error("Repository: Не удалось сохранить профиль", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("сохранение профиля: %w", err)
	}

	logger.Debug("Repository: Профиль сохранён", zap.String("user_id", u.ID), zap.Duration("ms", time.Since(start)))
	return nil
}
