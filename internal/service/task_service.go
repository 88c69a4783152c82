package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	rep "todoSync/internal/repository"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const defaultSyncTimeout = 15 * time.Second

// TaskService держит авторитетный список задач текущего пользователя.
// Изменения применяются локально сразу, запись в удалённое хранилище идёт в фоне.
// Подписчики не должны синхронно вызывать изменяющие методы из своего колбэка.
type TaskService struct {
	repo    TaskRepository
	cache   TaskCache
	session UserSignal

	mtx   sync.Mutex
	tasks []task.Task
	// меняется на каждом входе/выходе, чтобы устаревшая загрузка не перетёрла список
	generation uint64
	// временные id, чьё создание ещё не подтверждено
	pending map[string]struct{}
	// временные id, удалённые до подтверждения создания
	deletedTemp map[string]struct{}
	// временный id -> постоянный после подтверждения; клиент мог запомнить временный
	confirmed map[string]string
	subs        map[int]func([]task.Task)
	nextSub     int

	emitMtx sync.Mutex

	background  conc.WaitGroup
	unsubscribe func()

	now         func() time.Time
	syncTimeout time.Duration
}

func NewTaskService(repo TaskRepository, cache TaskCache, session UserSignal, options ...Option) *TaskService {
	s := &TaskService{
		repo:        repo,
		cache:       cache,
		session:     session,
		pending:     make(map[string]struct{}),
		deletedTemp: make(map[string]struct{}),
		confirmed:   make(map[string]string),
		subs:        make(map[int]func([]task.Task)),
		now:         time.Now,
		syncTimeout: defaultSyncTimeout,
	}
	for _, opt := range options {
		opt(s)
	}

	s.tasks = cache.Load()
	logger.Info("Service: Список задач восстановлен из кэша", zap.Int("count", len(s.tasks)))

	s.unsubscribe = session.Subscribe(s.onUser)
	if uid, ok := session.CurrentUserID(); ok {
		s.startReload(uid)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// Close отписывается от сигнала пользователя и дожидается фоновых записей
func (s *TaskService) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Flush()
}

// Flush дожидается всех фоновых операций. Не вызывать параллельно с новыми изменениями.
func (s *TaskService) Flush() {
	s.background.Wait()
}

func (s *TaskService) Tasks() []task.Task {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return cloneTasks(s.tasks)
}

// Subscribe сразу отдаёт текущий список, затем полный список после каждого изменения
func (s *TaskService) Subscribe(fn func([]task.Task)) (unsubscribe func()) {
	s.emitMtx.Lock()
	defer s.emitMtx.Unlock()

	s.mtx.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	snapshot := cloneTasks(s.tasks)
	s.mtx.Unlock()

	fn(snapshot)

	return func() {
		s.mtx.Lock()
		defer s.mtx.Unlock()
		delete(s.subs, id)
	}
}

// Add вставляет задачу с временным id сразу и создаёт её в удалённом хранилище в фоне
func (s *TaskService) Add(ctx context.Context, draft task.Task) (task.Task, error) {
	uid, ok := s.session.CurrentUserID()
	if !ok {
		return task.Task{}, NewNotAuthenticated("add")
	}

	created := task.Normalize(draft, s.now())
	created.ID = task.NewTempID()

	s.commit(true, func(tasks []task.Task) ([]task.Task, bool) {
		s.pending[created.ID] = struct{}{}
		return append(tasks, created), true
	})

	logger.Info("Service: Задача добавлена локально",
		zap.String("temp_id", created.ID),
		zap.String("user_id", uid))

	bgCtx := context.WithoutCancel(ctx)
	s.background.Go(func() {
		s.pushCreate(bgCtx, uid, created)
	})

	return created, nil
}

// Update заменяет задачу по id (заданные поля перезаписывают, остальные сохраняются)
func (s *TaskService) Update(ctx context.Context, t task.Task) error {
	if t.ID == "" {
		return NewInvalidArgument("id", "требуется id задачи")
	}
	uid, ok := s.session.CurrentUserID()
	if !ok {
		return NewNotAuthenticated("update")
	}

	var (
		updated     task.Task
		found       bool
		transitionE error
		id          = t.ID
	)
	s.commit(true, func(tasks []task.Task) ([]task.Task, bool) {
		id = s.resolveID(t.ID)
		for i, existing := range tasks {
			if existing.ID != id {
				continue
			}
			merged := task.Merge(existing, t)
			if !task.CanTransition(existing.Status, merged.Status) {
				transitionE = NewInvalidTransition(string(existing.Status), string(merged.Status))
				return tasks, false
			}
			tasks[i] = merged
			updated = merged
			found = true
			return tasks, true
		}
		return tasks, false
	})
	if transitionE != nil {
		return transitionE
	}

	if !found {
		// задачи нет локально (например, пришла из GetAll): удалённо пишем только полную задачу,
		// иначе незаданные поля перетёрлись бы значениями по умолчанию
		if task.IsTempID(id) || !isComplete(t) {
			logger.Debug("Service: Задача не найдена в локальном списке", zap.String("task_id", t.ID))
			return NewNotFound(t.ID)
		}
		updated = task.Normalize(t, s.now())
		updated.ID = id
		logger.Debug("Service: Задача обновляется только удалённо", zap.String("task_id", id))
	}

	if task.IsTempID(updated.ID) {
		// изменения уйдут после подтверждения создания
		logger.Debug("Service: Обновление отложено до синхронизации", zap.String("temp_id", updated.ID))
		return nil
	}

	bgCtx := context.WithoutCancel(ctx)
	s.background.Go(func() {
		s.pushUpdate(bgCtx, uid, updated)
	})
	return nil
}

// Delete удаляет задачу из списка сразу, из удалённого хранилища - в фоне
func (s *TaskService) Delete(ctx context.Context, t task.Task) error {
	if t.ID == "" {
		return NewInvalidArgument("id", "требуется id задачи")
	}
	uid, ok := s.session.CurrentUserID()
	if !ok {
		return NewNotAuthenticated("delete")
	}

	s.deleteFor(ctx, uid, t.ID)
	return nil
}

func (s *TaskService) deleteFor(ctx context.Context, uid, id string) {
	target := id
	deferred := false
	s.commit(true, func(tasks []task.Task) ([]task.Task, bool) {
		target = s.resolveID(id)
		for i, existing := range tasks {
			if existing.ID != target {
				continue
			}
			if _, ok := s.pending[target]; ok {
				s.deletedTemp[target] = struct{}{}
				deferred = true
			}
			return append(tasks[:i], tasks[i+1:]...), true
		}
		return tasks, false
	})

	switch {
	case deferred:
		logger.Debug("Service: Удаление отложено до синхронизации", zap.String("temp_id", target))
		return
	case task.IsTempID(target):
		// удалённой копии нет: создание не удалось или id неизвестен
		logger.Debug("Service: Временная задача удалена только локально", zap.String("temp_id", target))
		return
	}

	bgCtx := context.WithoutCancel(ctx)
	s.background.Go(func() {
		s.pushDelete(bgCtx, uid, target)
	})
}

// GetAll читает коллекцию напрямую из удалённого хранилища, минуя локальный список
func (s *TaskService) GetAll(ctx context.Context) ([]task.Task, error) {
	uid, ok := s.session.CurrentUserID()
	if !ok {
		return nil, NewNotAuthenticated("get_all")
	}
	return s.listRemote(ctx, uid)
}

// DeleteCompleted удаляет все выполненные задачи пользователя по одной;
// пустой uid означает текущего пользователя
func (s *TaskService) DeleteCompleted(ctx context.Context, uid string) (int, error) {
	if uid == "" {
		current, ok := s.session.CurrentUserID()
		if !ok {
			return 0, NewNotAuthenticated("delete_completed")
		}
		uid = current
	}

	tasks, err := s.listRemote(ctx, uid)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, t := range tasks {
		if t.Status != task.StatusCompleted {
			continue
		}
		s.deleteFor(ctx, uid, t.ID)
		deleted++
	}

	logger.Info("Service: Выполненные задачи удалены",
		zap.String("user_id", uid),
		zap.Int("deleted", deleted),
		zap.Int("checked", len(tasks)))
	return deleted, nil
}

// Reload заново загружает список текущего пользователя и ждёт результата
func (s *TaskService) Reload(ctx context.Context) error {
	uid, ok := s.session.CurrentUserID()
	if !ok {
		return NewNotAuthenticated("reload")
	}

	s.mtx.Lock()
	s.generation++
	gen := s.generation
	s.mtx.Unlock()

	return s.reload(ctx, uid, gen)
}

func (s *TaskService) onUser(u *user.User) {
	if u == nil {
		s.commit(false, func([]task.Task) ([]task.Task, bool) {
			s.generation++
			s.confirmed = make(map[string]string)
			return []task.Task{}, true
		})
		logger.Info("Service: Список задач очищен после выхода")
		return
	}
	s.startReload(u.ID)
}

func (s *TaskService) startReload(uid string) {
	s.mtx.Lock()
	s.generation++
	gen := s.generation
	s.mtx.Unlock()

	s.background.Go(func() {
		_ = s.reload(context.Background(), uid, gen)
	})
}

func (s *TaskService) reload(ctx context.Context, uid string, gen uint64) error {
	start := time.Now()

	loaded, err := s.listRemote(ctx, uid)
	if err != nil {
		logger.Warn("Service: Не удалось загрузить задачи", zap.String("user_id", uid), zap.Error(err))
		return err
	}

	applied := s.commit(true, func(tasks []task.Task) ([]task.Task, bool) {
		if s.generation != gen {
			return tasks, false
		}
		return loaded, true
	})

	if !applied {
		logger.Info("Service: Устаревшая загрузка отброшена", zap.String("user_id", uid))
		return nil
	}
	logger.Info("Service: Задачи загружены",
		zap.String("user_id", uid),
		zap.Int("count", len(loaded)),
		zap.Duration("ms", time.Since(start)))
	return nil
}

func (s *TaskService) listRemote(ctx context.Context, uid string) ([]task.Task, error) {
	records, err := s.repo.ListAll(ctx, uid)
	if err != nil {
		return nil, NewRemoteUnavailable("list", err)
	}

	now := s.now()
	tasks := make([]task.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, task.Normalize(r, now))
	}
	return tasks, nil
}

func (s *TaskService) pushCreate(ctx context.Context, uid string, created task.Task) {
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	tempID := created.ID
	id, err := s.repo.Create(ctx, uid, created.ToRecord(s.now()))
	if err != nil {
		s.mtx.Lock()
		delete(s.pending, tempID)
		delete(s.deletedTemp, tempID)
		s.mtx.Unlock()

		logger.Warn("Service: Задача осталась только локально",
			zap.String("temp_id", tempID),
			zap.String("code", CodeRemoteUnavailable),
			zap.Error(err))
		return
	}

	var (
		current    task.Task
		found      bool
		wasDeleted bool
	)
	s.commit(true, func(tasks []task.Task) ([]task.Task, bool) {
		delete(s.pending, tempID)
		s.confirmed[tempID] = id
		if _, ok := s.deletedTemp[tempID]; ok {
			delete(s.deletedTemp, tempID)
			wasDeleted = true
		}
		// сопоставление строго по временному id, не по содержимому
		for i, existing := range tasks {
			if existing.ID == tempID {
				tasks[i].ID = id
				current = tasks[i]
				found = true
				return tasks, true
			}
		}
		return tasks, false
	})

	switch {
	case wasDeleted:
		logger.Info("Service: Задача удалена до синхронизации, удаляем удалённо", zap.String("task_id", id))
		s.pushDelete(ctx, uid, id)
	case !found:
		logger.Debug("Service: Временная задача уже вытеснена перезагрузкой", zap.String("temp_id", tempID))
	default:
		logger.Info("Service: Задача синхронизирована", zap.String("temp_id", tempID), zap.String("task_id", id))
		if !sameFields(current, created) {
			s.pushUpdate(ctx, uid, current)
		}
	}
}

func (s *TaskService) pushUpdate(ctx context.Context, uid string, t task.Task) {
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	if err := s.repo.Update(ctx, uid, t.ID, t.ToRecord(s.now())); err != nil {
		logger.Warn("Service: Обновление не синхронизировано",
			zap.String("task_id", t.ID),
			zap.String("code", CodeRemoteUnavailable),
			zap.Error(err))
	}
}

func (s *TaskService) pushDelete(ctx context.Context, uid, id string) {
	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	err := s.repo.Delete(ctx, uid, id)
	switch {
	case err == nil:
	case errors.Is(err, rep.ErrNotFound):
		logger.Debug("Service: Задача уже удалена удалённо", zap.String("task_id", id))
	default:
		logger.Warn("Service: Удаление не синхронизировано",
			zap.String("task_id", id),
			zap.String("code", CodeRemoteUnavailable),
			zap.Error(err))
	}
}

// commit применяет изменение под блокировкой, сохраняет кэш и рассылает полный список.
// Возвращает false, если mutate ничего не изменил.
func (s *TaskService) commit(persist bool, mutate func([]task.Task) ([]task.Task, bool)) bool {
	s.emitMtx.Lock()
	defer s.emitMtx.Unlock()

	s.mtx.Lock()
	next, changed := mutate(cloneTasks(s.tasks))
	if !changed {
		s.mtx.Unlock()
		return false
	}
	s.tasks = next
	snapshot := cloneTasks(next)
	subs := s.subscribers()
	s.mtx.Unlock()

	if persist {
		s.cache.Save(snapshot)
	}
	for _, fn := range subs {
		fn(cloneTasks(snapshot))
	}
	return true
}

// resolveID переводит уже подтверждённый временный id в постоянный; вызывается под mtx
func (s *TaskService) resolveID(id string) string {
	if permanent, ok := s.confirmed[id]; ok {
		return permanent
	}
	return id
}

func (s *TaskService) subscribers() []func([]task.Task) {
	res := make([]func([]task.Task), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			res = append(res, fn)
		}
	}
	return res
}

func cloneTasks(tasks []task.Task) []task.Task {
	res := make([]task.Task, len(tasks))
	copy(res, tasks)
	return res
}

// isComplete: задачу можно записать целиком, не подставляя значения по умолчанию
func isComplete(t task.Task) bool {
	return strings.TrimSpace(t.Subject) != "" && t.Deadline != ""
}

func sameFields(a, b task.Task) bool {
	a.ID, b.ID = "", ""
	a.IsOverdue, b.IsOverdue = false, false
	return a == b
}
