// Package models содержит доменные структуры пользователя, тарифного плана
// и подписки, а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID          string    `json:"uid"`       // Уникальный идентификатор пользователя
	Email        string    `json:"email"`     // Электронная почта (уникальная)
	FullName     string    `json:"full_name"` // Отображаемое имя
	PasswordHash string    `json:"-"`         // Хэш пароля, наружу не отдается
	Role         string    `json:"role"`      // Роль пользователя, admin или user
	IsActive     bool      `json:"is_active"` // Признак активной учётной записи
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
