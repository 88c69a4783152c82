package inmemory

import (
	"context"
	"sync"

	"todoSync/internal/models/user"
	repo "todoSync/internal/repository"
)

// ProfileStorage - документы профилей по uid
type ProfileStorage struct {
	profiles map[string]user.User
	mtx      *sync.RWMutex
}

func NewProfileStorage() *ProfileStorage {
	return &ProfileStorage{
		profiles: make(map[string]user.User),
		mtx:      &sync.RWMutex{},
	}
}

func (s *ProfileStorage) GetProfile(ctx context.Context, uid string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	profile, ok := s.profiles[uid]
	if !ok {
		return user.User{}, repo.ErrNoProfile
	}
	return profile.Clone(), nil
}

func (s *ProfileStorage) SaveProfile(ctx context.Context, u user.User) error {
	if u.ID == "" {
		return repo.ErrNoUser
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.profiles[u.ID] = u.Clone()
	return nil
}
