// Package subexpire реализует HTTP-обработчик ручного запуска обхода
// просроченных подписок. Подписки с автопродлением получают новый период,
// остальные помечаются истекшими. Повторный запуск ничего не меняет.
package subexpire

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики обхода просроченных подписок.
type Service interface {
	ExpireOverdue(ctx context.Context) (renewed, expired []*models.Subscription, err error)
}

// Handler обрабатывает запросы ручного запуска обхода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Обойти просроченные подписки
// @Description Продлевает подписки с автопродлением и помечает остальные истекшими. Доступен только администратору.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response "Количество продленных и истекших подписок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/expire [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.expire"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	renewed, expired, err := h.service.ExpireOverdue(r.Context())
	if err != nil {
		log.Error("failed to sweep subscriptions", sl.Err(err))
		status, resp := response.FromError(err, "could not sweep subscriptions")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("sweep finished",
		slog.Int("renewed", len(renewed)),
		slog.Int("expired", len(expired)))
	render.JSON(w, r, response.OKWithData(map[string]int{
		"renewed": len(renewed),
		"expired": len(expired),
	}))
}
