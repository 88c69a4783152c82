package service

import (
	"errors"
	"fmt"
)

const (
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeNotAuthenticated  = "NOT_AUTHENTICATED"
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	CodeValidation        = "VALIDATION_ERROR"
	CodeDuplicateSubject  = "DUPLICATE_SUBJECT"
	CodeProRequired       = "PRO_REQUIRED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotFound          = "NOT_FOUND"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

// IsCode проверяет код бизнес-ошибки в цепочке
func IsCode(err error, code string) bool {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr.Code == code
	}
	return false
}

func NewInvalidArgument(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeInvalidArgument,
		Message: fmt.Sprintf("Неверный аргумент '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewNotAuthenticated(operation string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotAuthenticated,
		Message: "Пользователь не вошёл в систему",
		Details: map[string]any{
			"operation": operation,
		},
	}
}

func NewRemoteUnavailable(operation string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeRemoteUnavailable,
		Message: fmt.Sprintf("Удалённое хранилище недоступно (%s)", operation),
		Details: map[string]any{
			"operation": operation,
		},
		Err: err,
	}
}

func NewNotFound(id string) *BusinessError {
	return &BusinessError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("задача %s не найдена", id),
		Details: map[string]any{
			"id": id,
		},
	}
}

func NewValidationError(field, reason string) *BusinessError {
	return &BusinessError{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		Details: map[string]any{
			"field":  field,
			"reason": reason,
		},
	}
}

func NewDuplicateSubject(subject string) *BusinessError {
	return &BusinessError{
		Code:    CodeDuplicateSubject,
		Message: "Задача с таким названием уже существует",
		Details: map[string]any{
			"subject": subject,
		},
	}
}

func NewProRequired(feature string) *BusinessError {
	return &BusinessError{
		Code:    CodeProRequired,
		Message: fmt.Sprintf("'%s' доступно только в Pro", feature),
		Details: map[string]any{
			"feature": feature,
		},
	}
}

func NewInvalidTransition(from, to string) *BusinessError {
	return &BusinessError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Нельзя сменить статус '%s' на '%s'", from, to),
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}
