package notification

import (
	"sync"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"
	"todoSync/internal/models/user"

	"go.uber.org/zap"
)

// SettingsSource отдаёт настройки текущего пользователя
type SettingsSource interface {
	Current() (user.User, bool)
}

// Planner приводит набор запланированных напоминаний к текущему списку задач
type Planner struct {
	scheduler Scheduler
	settings  SettingsSource
	now       func() time.Time

	mtx       sync.Mutex
	scheduled map[string]struct{}
}

func NewPlanner(scheduler Scheduler, settings SettingsSource) *Planner {
	return &Planner{
		scheduler: scheduler,
		settings:  settings,
		now:       time.Now,
		scheduled: make(map[string]struct{}),
	}
}

// OnTasks - подписчик потока задач
func (p *Planner) OnTasks(tasks []task.Task) {
	u, ok := p.settings.Current()
	if !ok {
		p.Plan(nil, user.Settings{}, p.now())
		return
	}
	p.Plan(tasks, u.Settings, p.now())
}

// Plan ставит напоминание за lead до дедлайна каждой активной задачи и снимает остальные.
// Возвращает число запланированных напоминаний.
func (p *Planner) Plan(tasks []task.Task, settings user.Settings, now time.Time) int {
	settings = settings.WithDefaults()

	desired := make(map[string]time.Duration)
	if settings.TaskReminders {
		lead := ParseLeadTime(settings.NotificationTime)
		for _, t := range tasks {
			if t.ID == "" || t.Status == task.StatusCompleted || t.Status == task.StatusPastDue {
				continue
			}
			deadline, ok := task.ParseDeadline(t.Deadline)
			if !ok {
				continue
			}
			delay := deadline.Add(-lead).Sub(now)
			if delay <= 0 {
				continue
			}
			desired[t.ID] = delay
		}
	}

	p.mtx.Lock()
	defer p.mtx.Unlock()

	for id := range p.scheduled {
		if _, ok := desired[id]; !ok {
			p.scheduler.Cancel(id)
			delete(p.scheduled, id)
		}
	}
	for id, delay := range desired {
		p.scheduler.Schedule(ReminderTitle, ReminderBody, delay, id)
		p.scheduled[id] = struct{}{}
	}

	logger.Debug("Notification: Напоминания пересчитаны",
		zap.Bool("enabled", settings.TaskReminders),
		zap.Int("scheduled", len(desired)))
	return len(desired)
}
