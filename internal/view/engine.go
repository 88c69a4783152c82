package view

import (
	"context"
	"time"

	"todoSync/internal/logger"
	"todoSync/internal/models/task"

	"go.uber.org/zap"
)

// TaskSource - та часть сервиса синхронизации, которая нужна движку
type TaskSource interface {
	Tasks() []task.Task
	Update(ctx context.Context, t task.Task) error
}

type Engine struct {
	svc TaskSource
}

func NewEngine(svc TaskSource) *Engine {
	return &Engine{svc: svc}
}

// PromoteOverdue переводит просроченные задачи в past due через Update сервиса.
// Уже просроченные задачи повторно не трогаются.
func (e *Engine) PromoteOverdue(ctx context.Context, now time.Time) int {
	start := time.Now()

	candidates := Overdue(e.svc.Tasks(), now)
	promoted := 0
	for _, t := range candidates {
		if err := e.svc.Update(ctx, task.Task{ID: t.ID, Status: task.StatusPastDue}); err != nil {
			logger.Warn("View: Не удалось перевести задачу в past due", zap.String("task_id", t.ID), zap.Error(err))
			continue
		}
		promoted++
	}

	if promoted > 0 {
		logger.Info("View: Просроченные задачи обновлены",
			zap.Int("promoted", promoted),
			zap.Duration("ms", time.Since(start)))
	}
	return promoted
}

// Refresh - проход продвижения, затем чистое вычисление по свежему снимку
func (e *Engine) Refresh(ctx context.Context, p Params) []task.Task {
	e.PromoteOverdue(ctx, p.Now)
	return Compute(e.svc.Tasks(), p)
}
