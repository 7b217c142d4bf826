// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате,
// а также сопоставляет доменные ошибки с HTTP-статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/apperr"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Kind — машиночитаемый вид ошибки (опционально, при неуспехе).
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Kind   string `json:"kind" example:"not_found"`
	Error  string `json:"error" example:"plan not found"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// FromError сопоставляет доменную ошибку с HTTP-статусом и телом ответа.
// Неизвестные ошибки превращаются в 500 с обезличенным сообщением:
// внутренние детали клиенту не отдаются.
func FromError(err error, internalMsg string) (int, Response) {
	var status int
	var msg string

	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrConflict):
		status, msg = http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperr.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrInvalidState):
		status, msg = http.StatusConflict, "operation not permitted in current state"
	default:
		return http.StatusInternalServerError, Response{
			Status: StatusError,
			Kind:   "internal",
			Error:  internalMsg,
		}
	}
	return status, Response{
		Status: StatusError,
		Kind:   apperr.Kind(err),
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко-читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "gt":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be greater than %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Kind:   "validation",
		Error:  strings.Join(errsMsgs, ", "),
	}
}
