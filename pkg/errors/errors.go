package errors

import (
	"errors"
	"fmt"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = errors.New("неверный метод подписи токена")
	ErrInvalidToken         = errors.New("недопустимый токен")
	ErrTokenExpired         = errors.New("срок действия токена истёк")

	// Авторизация
	ErrEmptyAuthHeader    = errors.New("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = errors.New("неверный формат заголовка авторизации")
	ErrInvalidCredentials = errors.New("Credenciais inválidas")
	ErrUserInactive       = errors.New("Usuário inativo")
	ErrAccountLocked      = errors.New("Muitas tentativas de login. Tente novamente mais tarde")
	ErrUnauthorized       = errors.New("Não autenticado")
	ErrForbidden          = errors.New("Acesso negado")

	// Контекст
	ErrUserIDNotFoundInContext = errors.New("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound     = errors.New("Registro não encontrado")
	ErrBadRequest   = errors.New("Requisição inválida")
	ErrValidation   = errors.New("Dados inválidos")
	ErrConflict     = errors.New("Conflito com o estado atual")
	ErrInvalidState = errors.New("Operação não permitida no estado atual")
)

// ValidationError - ошибка входных данных с перечнем полей.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NewFieldValidationError(message string, fields map[string]string) error {
	return &ValidationError{Message: message, Fields: fields}
}

// ConflictError оборачивает ErrConflict конкретным сообщением.
func NewConflictError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NewInvalidStateError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func NewNotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
