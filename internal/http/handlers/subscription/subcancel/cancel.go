// Package subcancel реализует HTTP-обработчик отмены подписки.
// Отмененная подписка сохраняет дату окончания и не продлевается,
// повторная отмена завершается 409. Пользователь отменяет свою подписку,
// администратор — подписку любого пользователя.
package subcancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики отмены подписки.
type Service interface {
	Cancel(ctx context.Context, userUID string) (*models.Subscription, error)
}

// Handler обрабатывает запросы отмены подписки.
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
// @Summary Отменить подписку
// @Description Отменяет текущую активную подписку пользователя.
// @Tags Subscriptions
// @Produce  json
// @Param user_id path string true "UID пользователя"
// @Success 200 {object} response.Response "Отмененная подписка"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чужая подписка"
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Failure 409 {object} response.ErrorResponse "Подписка уже отменена или истекла"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/{user_id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "user_id")
	if userUID == "" {
		log.Error("missing user_id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing user_id in url"))
		return
	}

	if !middlewarectx.CanAccessUser(r, userUID) {
		log.Warn("access to foreign subscription denied", slog.String("user_uid", userUID))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("insufficient permissions"))
		return
	}

	sub, err := h.service.Cancel(r.Context(), userUID)
	if err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		status, resp := response.FromError(err, "could not cancel subscription")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscription cancelled", slog.Int("id", sub.ID))
	render.JSON(w, r, response.OKWithData(sub))
}
