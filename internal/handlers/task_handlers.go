package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"todoSync/internal/export"
	"todoSync/internal/handlers/dto"
	"todoSync/internal/logger"
	"todoSync/internal/models/task"
	"todoSync/internal/models/user"
	"todoSync/internal/service"
	"todoSync/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const serviceName = "todo-sync"

type TaskHandler struct {
	TaskService Service
	Viewer      Viewer
	Session     Session
	Profiles    Profiles

	now        func() time.Time
	onSettings func(user.User)
}

func NewTaskHandler(taskService Service, viewer Viewer, session Session, profiles Profiles, options ...Option) TaskHandler {
	h := TaskHandler{
		TaskService: taskService,
		Viewer:      viewer,
		Session:     session,
		Profiles:    profiles,
		now:         time.Now,
	}
	for _, opt := range options {
		opt(&h)
	}
	return h
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Сервис нездоров", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", serviceName),
			toPayload("error", err.Error()))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName))
}

// currentUser отвечает 401, если никто не вошёл
func (s *TaskHandler) currentUser(w http.ResponseWriter, operation string) (user.User, bool) {
	u, ok := s.Session.Current()
	if !ok {
		handleBusinessError(w, service.NewNotAuthenticated(operation))
		return user.User{}, false
	}
	return u, true
}

// viewParams берёт параметры из настроек и переопределяет их query-параметрами
func (s *TaskHandler) viewParams(r *http.Request, u user.User) (view.Params, error) {
	params := view.ParamsFromSettings(u.Settings, s.now())
	query := r.URL.Query()

	params.Search = query.Get("search")
	if section := query.Get("section"); section != "" {
		params.Section = section
	}
	if sortBy := query.Get("sort"); sortBy != "" {
		switch user.SortOption(sortBy) {
		case user.SortByDeadline, user.SortBySubject, user.SortByCompletion:
			params.SortBy = user.SortOption(sortBy)
		default:
			return params, service.NewValidationError("sort", "ожидается deadline, subject или completion")
		}
	}
	if autoSort := query.Get("auto_sort"); autoSort != "" {
		value, err := strconv.ParseBool(autoSort)
		if err != nil {
			return params, service.NewValidationError("auto_sort", "ожидается true или false")
		}
		params.AutoSort = value
	}
	return params, nil
}

func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := s.currentUser(w, "view")
	if !ok {
		return
	}
	params, err := s.viewParams(r, u)
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	tasks := s.Viewer.Refresh(r.Context(), params)

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) GetSections(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := s.currentUser(w, "sections")
	if !ok {
		return
	}
	params, err := s.viewParams(r, u)
	if err != nil {
		handleBusinessError(w, err)
		return
	}
	params.Section = view.SectionAll

	tasks := s.Viewer.Refresh(r.Context(), params)
	sections := view.Sections(tasks, params.Visibility, params.Now)

	res := make([]dto.SectionResponse, 0, len(sections))
	for _, section := range sections {
		res = append(res, dto.SectionResponse{
			Token:  section.Token,
			Status: string(section.Status),
			Tasks:  dto.FromTaskList(section.Tasks),
		})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *TaskHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if _, ok := s.currentUser(w, "progress"); !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Progress(s.TaskService.Tasks()))
}

// GetRemoteTasks читает коллекцию напрямую из удалённого хранилища
func (s *TaskHandler) GetRemoteTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := s.TaskService.GetAll(r.Context())
	if err != nil {
		handleError(w, r, err, "get_all")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены из хранилища",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)))
	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) ExportTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if _, ok := s.currentUser(w, "export"); !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatXLSX
	}
	contentType, ok := export.ContentType(format)
	if !ok {
		handleBusinessError(w, service.NewValidationError("format", "ожидается xlsx или yaml"))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=tasks."+format)
	if err := export.Write(w, format, s.TaskService.Tasks()); err != nil {
		logger.Error("HTTP: Ошибка выгрузки задач", err, zap.String("format", format))
	}
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	u, ok := s.currentUser(w, "add")
	if !ok {
		return
	}

	draft := task.Task{
		Subject:  strings.TrimSpace(request.Subject),
		Deadline: request.Deadline,
		Status:   request.Status,
		Priority: request.Priority,
	}
	if err := validateTaskForm(draft, "", s.TaskService.Tasks(), u); err != nil {
		handleBusinessError(w, err)
		return
	}

	created, err := s.TaskService.Add(r.Context(), draft)
	if err != nil {
		handleError(w, r, err, "add")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))
	writeJSON(w, http.StatusCreated, dto.FromTask(created))
}

func findTask(tasks []task.Task, id string) (task.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

func (s *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	id := chi.URLParam(r, "id")

	var request dto.UpdateTaskRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}
	if request.Subject != nil {
		trimmed := strings.TrimSpace(*request.Subject)
		if trimmed == "" {
			handleBusinessError(w, service.NewValidationError("subject", "название не может быть пустым"))
			return
		}
		request.Subject = &trimmed
	}

	u, ok := s.currentUser(w, "update")
	if !ok {
		return
	}

	tasks := s.TaskService.Tasks()
	existing, found := findTask(tasks, id)
	if !found {
		handleBusinessError(w, service.NewNotFound(id))
		return
	}

	updated := existing.Apply(request.Options()...)

	form := updated
	if request.Priority == nil {
		// приоритет не меняется - Pro не требуется
		form.Priority = ""
	}
	if err := validateTaskForm(form, id, tasks, u); err != nil {
		handleBusinessError(w, err)
		return
	}
	if !task.CanTransition(existing.Status, updated.Status) {
		handleBusinessError(w, service.NewInvalidTransition(string(existing.Status), string(updated.Status)))
		return
	}

	if err := s.TaskService.Update(r.Context(), updated); err != nil {
		handleError(w, r, err, "update")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
	writeJSON(w, http.StatusOK, dto.FromTask(updated))
}

// ToggleTask переключает статус по кругу, past due переходит в completed
func (s *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	if _, ok := s.currentUser(w, "toggle"); !ok {
		return
	}

	existing, found := findTask(s.TaskService.Tasks(), id)
	if !found {
		handleBusinessError(w, service.NewNotFound(id))
		return
	}

	existing.Status = task.NextStatus(existing.Status)
	if err := s.TaskService.Update(r.Context(), task.Task{ID: id, Status: existing.Status}); err != nil {
		handleError(w, r, err, "toggle")
		return
	}

	logger.Info("HTTP_OUT: Статус задачи переключён",
		zap.String("task_id", id),
		zap.String("status", string(existing.Status)))
	writeJSON(w, http.StatusOK, dto.FromTask(existing))
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id := chi.URLParam(r, "id")
	if _, ok := s.currentUser(w, "delete"); !ok {
		return
	}

	if _, found := findTask(s.TaskService.Tasks(), id); !found {
		handleBusinessError(w, service.NewNotFound(id))
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи")
	if err := s.TaskService.Delete(r.Context(), task.Task{ID: id}); err != nil {
		handleError(w, r, err, "delete")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *TaskHandler) DeleteCompleted(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	deleted, err := s.TaskService.DeleteCompleted(r.Context(), "")
	if err != nil {
		handleError(w, r, err, "delete_completed")
		return
	}

	logger.Info("HTTP_OUT: Выполненные задачи удалены",
		zap.Int("deleted", deleted),
		zap.Duration("ms", time.Since(start)))
	responseWithJSON(w, http.StatusOK, toPayload("deleted", deleted))
}

func (s *TaskHandler) ReloadTasks(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if err := s.TaskService.Reload(r.Context()); err != nil {
		handleError(w, r, err, "reload")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromTaskList(s.TaskService.Tasks()))
}
