package worker

import (
	"context"
	"time"

	"todoSync/internal/logger"

	"go.uber.org/zap"
)

const defaultInterval = time.Minute

// Promoter - проход продвижения просроченных задач
type Promoter interface {
	PromoteOverdue(ctx context.Context, now time.Time) int
}

type OverdueWorker struct {
	promoter Promoter
	interval time.Duration
	now      func() time.Time
}

func NewOverdueWorker(promoter Promoter, interval time.Duration) *OverdueWorker {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &OverdueWorker{
		promoter: promoter,
		interval: interval,
		now:      time.Now,
	}
}

// Start блокируется до отмены контекста
func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Фоновая проверка запущена", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *OverdueWorker) Check(ctx context.Context) int {
	start := time.Now()

	promoted := w.promoter.PromoteOverdue(ctx, w.now())

	logger.Debug("Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("overdue", promoted))
	return promoted
}
