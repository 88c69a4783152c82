package handlers

import (
	"mime"
	"net/http"
	"strings"

	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	"todoSync/internal/service"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == target
}

// validateTaskForm - проверки формы задачи до обращения к сервису.
// Дубликаты ищутся среди задач пользователя без учёта регистра, редактируемая задача исключается.
func validateTaskForm(form task.Task, editingID string, existing []task.Task, owner user.User) error {
	subject := strings.TrimSpace(form.Subject)
	if subject == "" {
		return service.NewValidationError("subject", "название не может быть пустым")
	}

	if strings.TrimSpace(form.Deadline) == "" {
		return service.NewValidationError("deadline", "дедлайн должен быть задан")
	}
	if _, ok := task.ParseDeadline(form.Deadline); !ok {
		return service.NewValidationError("deadline", "ожидается дата YYYY-MM-DD или RFC3339")
	}

	if form.Status != "" && !form.Status.Valid() {
		return service.NewValidationError("status", "неизвестный статус")
	}

	if form.Priority != "" {
		if !form.Priority.Valid() {
			return service.NewValidationError("priority", "неизвестный приоритет")
		}
		if form.Priority != task.PriorityNormal && !owner.IsPro {
			return service.NewProRequired("priority")
		}
	}

	for _, t := range existing {
		if t.ID == editingID && editingID != "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(t.Subject), subject) {
			return service.NewDuplicateSubject(subject)
		}
	}
	return nil
}
