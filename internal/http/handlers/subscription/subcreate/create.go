// Package subcreate реализует HTTP-обработчик оформления подписки.
//
// Handler принимает JSON-запрос с планом и флагом автопродления, валидирует
// его, извлекает пользователя из контекста и вызывает бизнес-логику.
// Вторая активная подписка пользователя завершается 409, несуществующий
// или мягко удаленный план — 404.
package subcreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики оформления подписки.
type Service interface {
	Create(ctx context.Context, userUID string, req models.DummySubscription) (*models.Subscription, error)
}

// Handler управляет HTTP-запросами на оформление подписок.
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
// @Summary Оформить подписку
// @Description Оформляет подписку текущего пользователя на план.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummySubscription true "План и флаг автопродления"
// @Success 201 {object} response.Response "Подписка оформлена"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "План не найден или неактивен"
// @Failure 409 {object} response.ErrorResponse "Активная подписка уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummySubscription
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

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	sub, err := h.service.Create(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		status, resp := response.FromError(err, "could not create subscription")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("subscription created", slog.Int("id", sub.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(sub))
}
