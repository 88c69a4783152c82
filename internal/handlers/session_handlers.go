package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"todoSync/internal/handlers/dto"
	"todoSync/internal/logger"
	"todoSync/internal/models/user"
	"todoSync/internal/service"

	"go.uber.org/zap"
)

// SignIn принимает уже проверенного пользователя; протокол аутентификации снаружи
func (s *TaskHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	if strings.TrimSpace(request.ID) == "" {
		handleBusinessError(w, service.NewValidationError("id", "id пользователя обязателен"))
		return
	}

	u, err := s.Profiles.SignIn(r.Context(), request.ToUser())
	if err != nil {
		handleError(w, r, err, "sign in")
		return
	}

	logger.Info("HTTP_OUT: Пользователь вошёл", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, u)
}

func (s *TaskHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, ok := s.currentUser(w, "session")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *TaskHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	s.Session.SignOut()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *TaskHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var settings user.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	if settings.SortBy != "" {
		switch settings.SortBy {
		case user.SortByDeadline, user.SortBySubject, user.SortByCompletion:
		default:
			handleBusinessError(w, service.NewValidationError("sort_by", "ожидается deadline, subject или completion"))
			return
		}
	}

	u, err := s.Profiles.UpdateSettings(r.Context(), settings)
	if err != nil {
		handleError(w, r, err, "settings")
		return
	}

	if s.onSettings != nil {
		s.onSettings(u)
	}

	logger.Info("HTTP_OUT: Настройки сохранены", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, u.Settings)
}

func (s *TaskHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var profile user.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		handleBusinessError(w, service.NewValidationError("name", "имя обязательно"))
		return
	}

	u, err := s.Profiles.UpdateProfile(r.Context(), profile)
	if err != nil {
		handleError(w, r, err, "profile")
		return
	}

	logger.Info("HTTP_OUT: Профиль сохранён", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, u)
}

// UpgradePro выставляет флаг Pro; оплата вне сервера
func (s *TaskHandler) UpgradePro(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	u, err := s.Profiles.UpgradePro(r.Context())
	if err != nil {
		handleError(w, r, err, "pro")
		return
	}

	if s.onSettings != nil {
		s.onSettings(u)
	}

	logger.Info("HTTP_OUT: Pro включён", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusOK, u)
}
