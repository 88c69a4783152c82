package service

import (
	"context"
	"errors"

	"todoSync/internal/logger"
	"todoSync/internal/models/user"
	rep "todoSync/internal/repository"

	"go.uber.org/zap"
)

// ProfileService загружает профиль при входе и сохраняет изменения профиля и настроек.
// Сначала пишется хранилище, потом сессия: при ошибке сессия остаётся прежней.
type ProfileService struct {
	repo    ProfileRepository
	session ProfileSession
}

func NewProfileService(repo ProfileRepository, session ProfileSession) *ProfileService {
	return &ProfileService{
		repo:    repo,
		session: session,
	}
}

// SignIn входит с сохранённым профилем; при первом входе профиль создаётся из запроса
func (s *ProfileService) SignIn(ctx context.Context, signed user.User) (user.User, error) {
	if signed.ID == "" {
		return user.User{}, NewInvalidArgument("id", "id пользователя обязателен")
	}

	profile, err := s.repo.GetProfile(ctx, signed.ID)
	switch {
	case err == nil:
		profile.ID = signed.ID
		logger.Debug("Service: Профиль загружен", zap.String("user_id", signed.ID))

	case errors.Is(err, rep.ErrNoProfile):
		profile = signed.Clone()
		profile.Settings = profile.Settings.WithDefaults()
		if profile.Avatar == "" {
			profile.Avatar = user.DefaultAvatar
		}
		if err := s.repo.SaveProfile(ctx, profile); err != nil {
			logger.Warn("Service: Профиль не сохранён, вход продолжается",
				zap.String("user_id", signed.ID),
				zap.String("code", CodeRemoteUnavailable),
				zap.Error(err))
		} else {
			logger.Info("Service: Создан профиль", zap.String("user_id", signed.ID))
		}

	default:
		// хранилище недоступно: входим с данными запроса
		logger.Warn("Service: Не удалось загрузить профиль",
			zap.String("user_id", signed.ID),
			zap.String("code", CodeRemoteUnavailable),
			zap.Error(err))
		profile = signed.Clone()
	}

	s.session.SignIn(profile)
	current, _ := s.session.Current()
	return current, nil
}

func (s *ProfileService) UpdateSettings(ctx context.Context, settings user.Settings) (user.User, error) {
	return s.modify(ctx, "settings", func(u user.User) user.User {
		u.Settings = settings.WithDefaults()
		return u
	})
}

func (s *ProfileService) UpdateProfile(ctx context.Context, p user.ProfileUpdate) (user.User, error) {
	return s.modify(ctx, "profile", func(u user.User) user.User {
		return u.WithProfile(p)
	})
}

// UpgradePro только выставляет флаг Pro в профиле
func (s *ProfileService) UpgradePro(ctx context.Context) (user.User, error) {
	return s.modify(ctx, "pro", func(u user.User) user.User {
		u.IsPro = true
		return u
	})
}

func (s *ProfileService) modify(ctx context.Context, op string, apply func(user.User) user.User) (user.User, error) {
	current, ok := s.session.Current()
	if !ok {
		return user.User{}, NewNotAuthenticated(op)
	}

	updated := apply(current.Clone())
	if err := s.repo.SaveProfile(ctx, updated); err != nil {
		logger.Error("Service: Не удалось сохранить профиль", err,
			zap.String("user_id", current.ID),
			zap.String("op", op))
		return user.User{}, NewRemoteUnavailable(op, err)
	}

	replaced, err := s.session.Replace(updated)
	if err != nil {
		// пользователь вышел, пока шло сохранение
		return user.User{}, NewNotAuthenticated(op)
	}

	logger.Info("Service: Профиль обновлён", zap.String("user_id", replaced.ID), zap.String("op", op))
	return replaced, nil
}
