package service

import (
	"context"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
)

// TaskRepository - удалённое хранилище: подколлекция задач каждого пользователя
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(ctx context.Context, uid string, record task.Record) (string, error)
	Update(ctx context.Context, uid, id string, record task.Record) error
	Delete(ctx context.Context, uid, id string) error
	ListAll(ctx context.Context, uid string) ([]task.Task, error)
}

type TaskCache interface {
	Load() []task.Task
	Save([]task.Task)
}

// UserSignal - сигнал текущего пользователя; nil в подписке означает выход
type UserSignal interface {
	Subscribe(func(*user.User)) func()
	CurrentUserID() (string, bool)
}

// ProfileRepository - документ профиля с настройками, по одному на пользователя
type ProfileRepository interface {
	GetProfile(ctx context.Context, uid string) (user.User, error)
	SaveProfile(ctx context.Context, u user.User) error
}

type ProfileSession interface {
	SignIn(user.User)
	Current() (user.User, bool)
	Replace(user.User) (user.User, error)
}
