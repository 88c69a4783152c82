package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"todoSync/internal/handlers/dto"
	"todoSync/internal/logger"
	"todoSync/internal/models/task"

	"go.uber.org/zap"
)

// StreamTasks отдаёт полный список задач как server-sent events при каждом изменении.
// Медленный клиент получает только последний список.
func (s *TaskHandler) StreamTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN: Подписка на задачи")

	flusher, ok := w.(http.Flusher)
	if !ok {
		responseWithError(w, http.StatusInternalServerError, "потоковая передача не поддерживается")
		return
	}

	updates := make(chan []task.Task, 1)
	unsubscribe := s.TaskService.Subscribe(func(tasks []task.Task) {
		for {
			select {
			case updates <- tasks:
				return
			default:
			}
			// вытесняем устаревший список
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			logger.Info("HTTP: Подписчик отключился", zap.String("client_ip", r.RemoteAddr))
			return
		case tasks := <-updates:
			body, err := json.Marshal(dto.FromTaskList(tasks))
			if err != nil {
				logger.Warn("HTTP: Не удалось сериализовать задачи", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: tasks\ndata: %s\n\n", body); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
