// Package planremove реализует HTTP-обработчик мягкого удаления плана.
// План помечается неактивным и перестает предлагаться для новых подписок;
// существующие подписки на него не затрагиваются.
package planremove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики удаления плана.
type Service interface {
	Delete(ctx context.Context, id int) error
}

// Handler обрабатывает запросы на удаление плана.
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

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		log.Error("failed to remove plan", sl.Err(err))
		status, resp := response.FromError(err, "could not remove plan")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("plan removed", slog.Int("id", id))
	w.WriteHeader(http.StatusNoContent)
}
