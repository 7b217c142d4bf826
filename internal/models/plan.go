package models

import "time"

// Plan представляет тарифный план, на который оформляется подписка.
// Поле Features хранится в базе как jsonb-массив строк.
type Plan struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`          // Название плана (уникальное)
	Price        float64   `json:"price"`         // Цена за период
	Features     []string  `json:"features"`      // Список возможностей плана
	DurationDays int       `json:"duration_days"` // Длительность периода в днях
	Description  string    `json:"description"`
	IsActive     bool      `json:"is_active"` // false после мягкого удаления
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DummyPlan используется для приёма данных из JSON-запроса на создание плана.
type DummyPlan struct {
	Name         string   `json:"name" validate:"required,min=1,max=100"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	Features     []string `json:"features" validate:"omitempty"`
	DurationDays int      `json:"duration_days" validate:"required,gt=0"`
	Description  string   `json:"description" validate:"omitempty"`
}

// DummyPlanUpdate используется для частичного обновления плана.
// Nil-поля остаются без изменений.
type DummyPlanUpdate struct {
	Name         *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Price        *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	Features     []string `json:"features,omitempty" validate:"omitempty"`
	DurationDays *int     `json:"duration_days,omitempty" validate:"omitempty,gt=0"`
	Description  *string  `json:"description,omitempty" validate:"omitempty"`
	IsActive     *bool    `json:"is_active,omitempty" validate:"omitempty"`
}
