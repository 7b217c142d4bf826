// Package planlist реализует HTTP-обработчик списка тарифных планов.
// Endpoint публичный; администратор с токеном может запросить и мягко
// удаленные планы параметром include_inactive=true.
package planlist

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики каталога планов.
type Service interface {
	List(ctx context.Context, includeInactive bool) ([]*models.Plan, error)
}

// Handler обрабатывает запросы списка планов.
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
// @Summary Список тарифных планов
// @Description Возвращает активные планы. Администратор может включить мягко удаленные.
// @Tags Plans
// @Produce  json
// @Param include_inactive query bool false "Показывать мягко удаленные планы (только админ)"
// @Success 200 {object} response.Response "Список планов"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	includeInactive := r.URL.Query().Get("include_inactive") == "true" &&
		middlewarectx.IsAdmin(r)

	plans, err := h.service.List(r.Context(), includeInactive)
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		status, resp := response.FromError(err, "could not list plans")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}
	if plans == nil {
		plans = []*models.Plan{}
	}

	render.JSON(w, r, response.OKWithData(plans))
}
