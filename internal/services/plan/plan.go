// Package services содержит бизнес-логику каталога тарифных планов.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const activePlansCacheKey = "plans:active"

// PlanRepository определяет методы для работы с планами в хранилище.
type PlanRepository interface {
	// CreatePlan добавляет новый план и возвращает созданную запись.
	CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error)
	// GetPlan возвращает план по ID.
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
	// ListPlans возвращает список планов.
	ListPlans(ctx context.Context, includeInactive bool) ([]*models.Plan, error)
	// UpdatePlan сохраняет измененный план.
	UpdatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error)
	// DisablePlan мягко удаляет план.
	DisablePlan(ctx context.Context, id int) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// PlanService реализует операции каталога планов с кешированием
// списка активных планов.
type PlanService struct {
	repo  PlanRepository
	cache Cache
	log   *slog.Logger
}

// NewPlanService создает новый экземпляр PlanService.
func NewPlanService(repo PlanRepository, cache Cache, log *slog.Logger) *PlanService {
	return &PlanService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// List возвращает планы каталога. Список только активных планов читается
// через кеш; выборка с мягко удаленными планами идет напрямую в базу.
func (s *PlanService) List(ctx context.Context, includeInactive bool) ([]*models.Plan, error) {
	if includeInactive {
		return s.repo.ListPlans(ctx, true)
	}

	var cached []*models.Plan
	found, err := s.cache.Get(activePlansCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx, false)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(activePlansCacheKey, plans, time.Hour); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return plans, nil
}

// Get возвращает план по ID. Мягко удаленный план доступен только
// при includeInactive = true (администратору), иначе — apperr.ErrNotFound.
func (s *PlanService) Get(ctx context.Context, id int, includeInactive bool) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive && !includeInactive {
		return nil, apperr.ErrNotFound
	}
	return plan, nil
}

// Create добавляет новый план в каталог и сбрасывает кеш списка.
func (s *PlanService) Create(ctx context.Context, req models.DummyPlan) (*models.Plan, error) {
	plan := models.Plan{
		Name:         req.Name,
		Price:        req.Price,
		Features:     req.Features,
		DurationDays: req.DurationDays,
		Description:  req.Description,
		IsActive:     true,
	}
	if plan.Features == nil {
		plan.Features = []string{}
	}

	created, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new plan", slog.Int("id", created.ID), slog.String("name", created.Name))
	s.invalidateList()
	return created, nil
}

// Update применяет частичное обновление плана и сбрасывает кеш списка.
func (s *PlanService) Update(ctx context.Context, id int, req models.DummyPlanUpdate) (*models.Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.Features != nil {
		plan.Features = req.Features
	}
	if req.DurationDays != nil {
		plan.DurationDays = *req.DurationDays
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	updated, err := s.repo.UpdatePlan(ctx, *plan)
	if err != nil {
		return nil, err
	}
	s.log.Info("updated plan", slog.Int("id", id))
	s.invalidateList()
	return updated, nil
}

// Delete мягко удаляет план: он исчезает из каталога для новых подписок,
// существующие подписки продолжают ссылаться на него.
func (s *PlanService) Delete(ctx context.Context, id int) error {
	if err := s.repo.DisablePlan(ctx, id); err != nil {
		return err
	}
	s.log.Info("disabled plan", slog.Int("id", id))
	s.invalidateList()
	return nil
}

func (s *PlanService) invalidateList() {
	if err := s.cache.Invalidate(activePlansCacheKey); err != nil {
		s.log.Warn("failed to invalidate plans cache", sl.Err(err))
	}
}
