package models

import (
	"strings"
	"time"
)

// Статусы подписки. Хранятся в нижнем регистре, фильтр по статусу
// разбирается без учёта регистра.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Subscription представляет оформленную подписку пользователя на план.
// EndDate вычисляется при создании как StartDate + Plan.DurationDays и
// меняется только при смене плана или продлении периода.
type Subscription struct {
	ID        int       `json:"id"`
	UserUID   string    `json:"user_uid"`
	PlanID    int       `json:"plan_id"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	AutoRenew bool      `json:"auto_renew"` // Продлевать ли период автоматически при истечении
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DummySubscription используется для приёма данных из JSON-запроса
// на оформление подписки.
type DummySubscription struct {
	PlanID    int  `json:"plan_id" validate:"required,gt=0"`
	AutoRenew bool `json:"auto_renew"`
}

// DummySubscriptionUpdate используется для изменения активной подписки:
// смены плана и/или переключения автопродления. Nil-поля не меняются.
type DummySubscriptionUpdate struct {
	PlanID    *int  `json:"plan_id,omitempty" validate:"omitempty,gt=0"`
	AutoRenew *bool `json:"auto_renew,omitempty" validate:"omitempty"`
}

// ParseStatus приводит строку фильтра к каноническому значению статуса.
// Возвращает пустую строку, если значение не распознано.
func ParseStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case StatusActive:
		return StatusActive
	case StatusInactive:
		return StatusInactive
	case StatusCancelled:
		return StatusCancelled
	case StatusExpired:
		return StatusExpired
	default:
		return ""
	}
}
