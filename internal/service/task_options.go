package service

import (
	"time"
)

type Option func(*TaskService)

func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// WithSyncTimeout ограничивает каждую фоновую запись в удалённое хранилище
func WithSyncTimeout(timeout time.Duration) Option {
	return func(s *TaskService) {
		if timeout > 0 {
			s.syncTimeout = timeout
		}
	}
}
