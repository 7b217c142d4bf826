// Package subupdate реализует HTTP-обработчик изменения подписки:
// смена плана или флага автопродления. Изменять можно только активную
// подписку; при смене плана период действия пересчитывается заново.
// Пользователь меняет свою подписку, администратор — подписку любого
// пользователя.
package subupdate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики изменения подписки.
type Service interface {
	Update(ctx context.Context, userUID string, req models.DummySubscriptionUpdate) (*models.Subscription, error)
}

// Handler обрабатывает запросы изменения подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить подписку
// @Description Меняет план или флаг автопродления текущей подписки пользователя.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param user_id path string true "UID пользователя"
// @Param request body models.DummySubscriptionUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновленная подписка"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Чужая подписка"
// @Failure 404 {object} response.ErrorResponse "Подписка или план не найдены"
// @Failure 409 {object} response.ErrorResponse "Подписка не активна"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions/{user_id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.update"
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

	var req models.DummySubscriptionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sub, err := h.service.Update(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to update subscription", sl.Err(err))
		status, resp := response.FromError(err, "could not update subscription")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscription updated", slog.Int("id", sub.ID))
	render.JSON(w, r, response.OKWithData(sub))
}
