package repository

import "errors"

var ErrNotFound = errors.New("задача не найдена")
var ErrNoUser = errors.New("не задан пользователь")
var ErrNoProfile = errors.New("профиль не найден")
