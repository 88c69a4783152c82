package inmemory

import (
	"sync"
)

type Storage struct {
	values map[string]string
	mtx    *sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		values: make(map[string]string),
		mtx:    &sync.RWMutex{},
	}
}

func (s *Storage) Get(key string) (string, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	value, ok := s.values[key]
	return value, ok, nil
}

func (s *Storage) Set(key, value string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.values[key] = value
	return nil
}
