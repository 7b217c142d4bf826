// Package apperr содержит доменные ошибки, через которые сервисы сообщают
// HTTP-слою о причине отказа. Сопоставление с кодами ответов выполняет
// пакет response через errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound сущность не существует или мягко удалена.
	ErrNotFound = errors.New("not found")
	// ErrConflict нарушение уникальности или инварианта
	// (например, вторая активная подписка пользователя).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized отсутствует, невалиден или истек токен,
	// либо не совпали учетные данные при входе.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden токен валиден, но роли или владения ресурсом недостаточно.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState операция не разрешена в текущем статусе подписки.
	ErrInvalidState = errors.New("invalid state")
)

// Kind возвращает машиночитаемый вид доменной ошибки для тела ответа.
// Для неизвестных ошибок возвращает "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	default:
		return "internal"
	}
}
