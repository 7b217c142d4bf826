// Package sublist реализует HTTP-обработчик списка подписок для
// администратора с фильтром по статусу и пагинацией.
package sublist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service описывает интерфейс бизнес-логики списка подписок.
type Service interface {
	List(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error)
}

// Handler обрабатывает запросы списка подписок.
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
// @Summary Список подписок
// @Description Возвращает подписки всех пользователей. Доступен только администратору.
// @Tags Subscriptions
// @Produce  json
// @Param status query string false "Фильтр по статусу: active, inactive, cancelled, expired"
// @Param limit query int false "Максимум записей (по умолчанию 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response "Список подписок"
// @Failure 400 {object} response.ErrorResponse "Некорректный статус"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	status := ""
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = models.ParseStatus(raw)
		if status == "" {
			log.Error("unknown status filter", slog.String("status", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown status filter"))
			return
		}
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = min(v, maxLimit)
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}

	subs, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		status, resp := response.FromError(err, "could not list subscriptions")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}
	if subs == nil {
		subs = []*models.Subscription{}
	}

	render.JSON(w, r, response.OKWithData(subs))
}
