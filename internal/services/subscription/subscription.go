// Package services содержит бизнес-логику жизненного цикла подписок:
// оформление, смену плана, отмену и перевод просроченных подписок
// в статус expired.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// SubscriptionRepository определяет методы для работы с подписками в хранилище.
type SubscriptionRepository interface {
	// CreateSubscription добавляет новую подписку; вторая активная подписка
	// одного пользователя завершается apperr.ErrConflict.
	CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	// GetCurrentByUser возвращает текущую (active или inactive) подписку пользователя.
	GetCurrentByUser(ctx context.Context, userUID string) (*models.Subscription, error)
	// GetActiveByUser возвращает активную подписку пользователя.
	GetActiveByUser(ctx context.Context, userUID string) (*models.Subscription, error)
	// UpdateSubscription сохраняет измененные поля подписки.
	UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error)
	// ListSubscriptions возвращает все подписки с пагинацией и фильтром по статусу.
	ListSubscriptions(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error)
	// RenewOverdue продлевает просроченные подписки с автопродлением.
	RenewOverdue(ctx context.Context) ([]*models.Subscription, error)
	// ExpireOverdue переводит просроченные подписки без автопродления в expired.
	ExpireOverdue(ctx context.Context) ([]*models.Subscription, error)
}

// PlanProvider возвращает тарифный план для оформления или смены подписки.
type PlanProvider interface {
	Get(ctx context.Context, id int, includeInactive bool) (*models.Plan, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// SubscriptionService реализует бизнес-логику работы с подписками, включая кеширование.
type SubscriptionService struct {
	repo  SubscriptionRepository
	plans PlanProvider
	cache Cache
	log   *slog.Logger
}

// NewSubscriptionService создает новый экземпляр SubscriptionService.
func NewSubscriptionService(repo SubscriptionRepository, plans PlanProvider, cache Cache, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:  repo,
		plans: plans,
		cache: cache,
		log:   log,
	}
}

func currentCacheKey(userUID string) string {
	return fmt.Sprintf("subscription:current:%s", userUID)
}

// Create оформляет подписку пользователя на план. План должен существовать
// и быть активным (apperr.ErrNotFound), у пользователя не должно быть
// активной подписки (apperr.ErrConflict — гарантируется уникальным индексом
// в базе, что выдерживает конкурентные запросы и несколько инстансов).
func (s *SubscriptionService) Create(ctx context.Context, userUID string, req models.DummySubscription) (*models.Subscription, error) {
	plan, err := s.plans.Get(ctx, req.PlanID, false)
	if err != nil {
		return nil, err
	}

	startDate := time.Now().UTC()
	sub := models.Subscription{
		UserUID:   userUID,
		PlanID:    plan.ID,
		Status:    models.StatusActive,
		StartDate: startDate,
		EndDate:   startDate.AddDate(0, 0, plan.DurationDays),
		AutoRenew: req.AutoRenew,
	}

	created, err := s.repo.CreateSubscription(ctx, sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("created new subscription",
		slog.Int("id", created.ID), slog.String("user_uid", userUID))

	s.cacheCurrent(created)
	return created, nil
}

// GetCurrent возвращает текущую подписку пользователя, используя кеш или репозиторий.
func (s *SubscriptionService) GetCurrent(ctx context.Context, userUID string) (*models.Subscription, error) {
	var cached *models.Subscription
	found, err := s.cache.Get(currentCacheKey(userUID), &cached)
	if err != nil {
		s.log.Warn("failed to read subscription from cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	sub, err := s.repo.GetCurrentByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	s.cacheCurrent(sub)
	return sub, nil
}

// Update меняет план и/или флаг автопродления текущей подписки.
// Операция разрешена только в статусе active: отсутствие текущей подписки
// дает apperr.ErrNotFound, любой другой статус — apperr.ErrInvalidState.
//
// Смена плана пересчитывает полный период заново: end_date = момент
// обновления + duration_days нового плана. Остаток старого периода
// не переносится — политика зафиксирована сознательно, пропорциональный
// перенос не выполняется.
func (s *SubscriptionService) Update(ctx context.Context, userUID string, req models.DummySubscriptionUpdate) (*models.Subscription, error) {
	sub, err := s.repo.GetCurrentByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusActive {
		return nil, fmt.Errorf("subscription is %s: %w", sub.Status, apperr.ErrInvalidState)
	}

	if req.PlanID != nil && *req.PlanID != sub.PlanID {
		plan, err := s.plans.Get(ctx, *req.PlanID, false)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		sub.PlanID = plan.ID
		sub.StartDate = now
		sub.EndDate = now.AddDate(0, 0, plan.DurationDays)
	}
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}

	updated, err := s.repo.UpdateSubscription(ctx, *sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("updated subscription", slog.Int("id", updated.ID))

	s.cacheCurrent(updated)
	return updated, nil
}

// Cancel отменяет текущую подписку пользователя: статус становится
// cancelled, автопродление выключается, end_date не меняется — доступ
// сохраняется до конца оплаченного периода, но продления больше не будет.
// Разрешено из статусов active и inactive.
func (s *SubscriptionService) Cancel(ctx context.Context, userUID string) (*models.Subscription, error) {
	sub, err := s.repo.GetCurrentByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	sub.Status = models.StatusCancelled
	sub.AutoRenew = false

	cancelled, err := s.repo.UpdateSubscription(ctx, *sub)
	if err != nil {
		return nil, err
	}
	s.log.Info("cancelled subscription", slog.Int("id", cancelled.ID))

	s.invalidateCurrent(userUID)
	return cancelled, nil
}

// List возвращает все подписки с пагинацией, опционально по статусу.
func (s *SubscriptionService) List(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListSubscriptions(ctx, status, limit, offset)
}

// ExpireOverdue выполняет проход по просроченным активным подпискам:
// сначала продлевает подписки с автопродлением, затем переводит остальные
// в expired. Возвращает продленные и истекшие подписки. Повторный запуск
// не меняет ничего — операция идемпотентна.
func (s *SubscriptionService) ExpireOverdue(ctx context.Context) (renewed, expired []*models.Subscription, err error) {
	renewed, err = s.repo.RenewOverdue(ctx)
	if err != nil {
		return nil, nil, err
	}
	expired, err = s.repo.ExpireOverdue(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(renewed) > 0 || len(expired) > 0 {
		s.log.Info("expiration sweep finished",
			slog.Int("renewed", len(renewed)), slog.Int("expired", len(expired)))
	}
	for _, sub := range renewed {
		s.cacheCurrent(sub)
	}
	for _, sub := range expired {
		s.invalidateCurrent(sub.UserUID)
	}
	return renewed, expired, nil
}

func (s *SubscriptionService) cacheCurrent(sub *models.Subscription) {
	key := currentCacheKey(sub.UserUID)
	if err := s.cache.Set(key, sub, time.Hour); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", key), sl.Err(err))
	}
}

func (s *SubscriptionService) invalidateCurrent(userUID string) {
	key := currentCacheKey(userUID)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}
