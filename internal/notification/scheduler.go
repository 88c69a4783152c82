package notification

import (
	"sync"
	"time"

	"todoSync/internal/logger"

	"go.uber.org/zap"
)

const (
	ReminderTitle = "Task Reminder"
	ReminderBody  = "Don't forget to complete your task!"
)

var leadTimes = map[string]time.Duration{
	"1h": time.Hour,
	"3h": 3 * time.Hour,
	"1d": 24 * time.Hour,
	"3d": 3 * 24 * time.Hour,
	"1w": 7 * 24 * time.Hour,
}

// ParseLeadTime переводит значение notification_time в длительность; неизвестное - сутки
func ParseLeadTime(value string) time.Duration {
	if d, ok := leadTimes[value]; ok {
		return d
	}
	return 24 * time.Hour
}

// Scheduler ставит напоминание по задаче; повторная постановка заменяет предыдущую
type Scheduler interface {
	Schedule(title, body string, delay time.Duration, taskID string)
	Cancel(taskID string)
}

// LogScheduler только пишет в лог, как веб-версия приложения
type LogScheduler struct{}

func (LogScheduler) Schedule(title, body string, delay time.Duration, taskID string) {
	logger.Info("Notification: Напоминание запланировано",
		zap.String("task_id", taskID),
		zap.String("title", title),
		zap.Duration("delay", delay))
}

func (LogScheduler) Cancel(taskID string) {
	logger.Debug("Notification: Напоминание отменено", zap.String("task_id", taskID))
}

// Notifier доставляет сработавшее напоминание
type Notifier func(title, body, taskID string)

// TimerScheduler держит по одному таймеру на задачу
type TimerScheduler struct {
	mtx    sync.Mutex
	timers map[string]*time.Timer
	notify Notifier
}

func NewTimerScheduler(notify Notifier) *TimerScheduler {
	if notify == nil {
		notify = func(title, body, taskID string) {
			logger.Info("Notification: Напоминание", zap.String("task_id", taskID), zap.String("title", title), zap.String("body", body))
		}
	}
	return &TimerScheduler{
		timers: make(map[string]*time.Timer),
		notify: notify,
	}
}

func (s *TimerScheduler) Schedule(title, body string, delay time.Duration, taskID string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if existing, ok := s.timers[taskID]; ok {
		existing.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mtx.Lock()
		// таймер мог быть заменён, пока ждал блокировку
		if s.timers[taskID] != timer {
			s.mtx.Unlock()
			return
		}
		delete(s.timers, taskID)
		s.mtx.Unlock()

		s.notify(title, body, taskID)
	})
	s.timers[taskID] = timer
}

func (s *TimerScheduler) Cancel(taskID string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if timer, ok := s.timers[taskID]; ok {
		timer.Stop()
		delete(s.timers, taskID)
	}
}

// Pending - число ещё не сработавших напоминаний
func (s *TimerScheduler) Pending() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return len(s.timers)
}

func (s *TimerScheduler) Stop() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	logger.Info("Notification: Все напоминания остановлены")
}
