package handlers

import (
	"context"
	"time"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	"todoSync/internal/view"
)

type Service interface {
	HealthCheck(context.Context) error
	Tasks() []task.Task
	Subscribe(func([]task.Task)) func()
	Add(context.Context, task.Task) (task.Task, error)
	Update(context.Context, task.Task) error
	Delete(context.Context, task.Task) error
	GetAll(context.Context) ([]task.Task, error)
	DeleteCompleted(ctx context.Context, uid string) (int, error)
	Reload(context.Context) error
}

type Viewer interface {
	Refresh(context.Context, view.Params) []task.Task
}

type Session interface {
	SignOut()
	Current() (user.User, bool)
}

// Profiles сохраняет профиль и настройки и держит сессию в согласии с хранилищем
type Profiles interface {
	SignIn(context.Context, user.User) (user.User, error)
	UpdateSettings(context.Context, user.Settings) (user.User, error)
	UpdateProfile(context.Context, user.ProfileUpdate) (user.User, error)
	UpgradePro(context.Context) (user.User, error)
}

type Option func(*TaskHandler)

func WithClock(now func() time.Time) Option {
	return func(h *TaskHandler) {
		h.now = now
	}
}

// WithSettingsListener вызывается после каждого сохранения настроек
func WithSettingsListener(fn func(user.User)) Option {
	return func(h *TaskHandler) {
		h.onSettings = fn
	}
}
