// Package plancreate реализует HTTP-обработчик создания тарифного плана.
// Доступен только администратору; дубликат имени завершается 409.
package plancreate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Service описывает интерфейс бизнес-логики создания плана.
type Service interface {
	Create(ctx context.Context, req models.DummyPlan) (*models.Plan, error)
}

// Handler обрабатывает запросы на создание плана.
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
// @Summary Создать тарифный план
// @Description Создает новый план (только админ). Возвращает созданную запись.
// @Tags Plans
// @Accept  json
// @Produce  json
// @Param request body models.DummyPlan true "Данные нового плана"
// @Success 201 {object} response.Response "План создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 409 {object} response.ErrorResponse "Имя плана занято"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Security BearerAuth
// @Router /plans [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPlan
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

	plan, err := h.service.Create(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		status, resp := response.FromError(err, "could not create plan")
		w.WriteHeader(status)
		render.JSON(w, r, resp)
		return
	}

	log.Info("plan created", slog.Int("id", plan.ID))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(plan))
}
