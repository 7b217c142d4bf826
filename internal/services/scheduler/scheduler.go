// Package services реализует периодический запуск прохода по просроченным
// подпискам и публикацию событий жизненного цикла в RabbitMQ.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// Sweeper выполняет идемпотентный проход по просроченным подпискам.
type Sweeper interface {
	ExpireOverdue(ctx context.Context) (renewed, expired []*models.Subscription, err error)
}

// SubscriptionEvent тело сообщения о продлении или истечении подписки.
type SubscriptionEvent struct {
	SubscriptionID int       `json:"subscription_id"`
	UserUID        string    `json:"user_uid"`
	PlanID         int       `json:"plan_id"`
	Status         string    `json:"status"`
	EndDate        time.Time `json:"end_date"`
}

// SchedulerService запускает проход по расписанию. Ядро не привязано
// к планировщику: тот же ExpireOverdue доступен и через админский endpoint,
// конкурентные запуски безопасны.
type SchedulerService struct {
	sweeper Sweeper
	log     *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(sweeper Sweeper, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		sweeper: sweeper,
		log:     log,
	}
}

// Run выполняет проход сразу и далее с заданным интервалом до отмены контекста.
func (s *SchedulerService) Run(ctx context.Context, interval time.Duration, channel *amqp.Channel) {
	s.runSweep(ctx, channel)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx, channel)
		}
	}
}

func (s *SchedulerService) runSweep(ctx context.Context, channel *amqp.Channel) {
	s.log.Info("starting expiration sweep")
	renewed, expired, err := s.sweeper.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error("expiration sweep failed", sl.Err(err))
		return
	}
	if len(renewed) == 0 && len(expired) == 0 {
		s.log.Info("no overdue subscriptions found")
		return
	}

	for _, sub := range renewed {
		s.publish(channel, "renewed", sub)
	}
	for _, sub := range expired {
		s.publish(channel, "expired", sub)
	}
}

func (s *SchedulerService) publish(channel *amqp.Channel, routingKey string, sub *models.Subscription) {
	event := SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserUID:        sub.UserUID,
		PlanID:         sub.PlanID,
		Status:         sub.Status,
		EndDate:        sub.EndDate,
	}
	if err := rabbitmq.PublishMessage(channel, "subscriptions", routingKey, event); err != nil {
		s.log.Error("failed to publish message", sl.Err(err))
	}
}
