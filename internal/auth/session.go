package auth

import (
	"errors"
	"sync"

	"todoSync/internal/logger"
	"todoSync/internal/models/user"

	"go.uber.org/zap"
)

var ErrNotSignedIn = errors.New("пользователь не вошёл в систему")

// Session хранит текущего пользователя устройства и оповещает подписчиков о входе и выходе.
// Протокол аутентификации снаружи: сюда приходит уже проверенный пользователь.
type Session struct {
	mtx     sync.RWMutex
	current *user.User
	subs    map[int]func(*user.User)
	nextSub int

	// держится на время рассылки, чтобы подписчики видели сигналы в порядке изменений
	emitMtx sync.Mutex
}

func NewSession() *Session {
	return &Session{
		subs: make(map[int]func(*user.User)),
	}
}

func (s *Session) SignIn(u user.User) {
	u.Settings = u.Settings.WithDefaults()

	s.emitMtx.Lock()
	defer s.emitMtx.Unlock()

	s.mtx.Lock()
	s.current = &u
	subs := s.subscribers()
	s.mtx.Unlock()

	logger.Info("Auth: Вход пользователя", zap.String("user_id", u.ID))
	for _, fn := range subs {
		signed := u
		fn(&signed)
	}
}

func (s *Session) SignOut() {
	s.emitMtx.Lock()
	defer s.emitMtx.Unlock()

	s.mtx.Lock()
	if s.current != nil {
		logger.Info("Auth: Выход пользователя", zap.String("user_id", s.current.ID))
	}
	s.current = nil
	subs := s.subscribers()
	s.mtx.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

func (s *Session) Current() (user.User, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.current == nil {
		return user.User{}, false
	}
	return *s.current, true
}

func (s *Session) CurrentUserID() (string, bool) {
	u, ok := s.Current()
	if !ok {
		return "", false
	}
	return u.ID, true
}

// Replace подменяет профиль вошедшего пользователя без сигнала: перезагрузка задач здесь не нужна
func (s *Session) Replace(u user.User) (user.User, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.current == nil || s.current.ID != u.ID {
		return user.User{}, ErrNotSignedIn
	}
	u.Settings = u.Settings.WithDefaults()
	s.current = &u
	return u, nil
}

// Subscribe получает только последующие входы/выходы; nil означает выход
func (s *Session) Subscribe(fn func(*user.User)) (unsubscribe func()) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mtx.Lock()
		defer s.mtx.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) subscribers() []func(*user.User) {
	res := make([]func(*user.User), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			res = append(res, fn)
		}
	}
	return res
}
