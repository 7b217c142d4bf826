// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/password"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает созданную запись.
	RegisterUser(ctx context.Context, user models.User) (*models.User, error)

	// GetUserByEmail возвращает пользователя по email или apperr.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService отвечает за регистрацию и авторизацию пользователей.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Register создает нового пользователя с хэшированием пароля и дефолтной ролью "user".
// Возвращает apperr.ErrConflict, если email уже занят.
func (s *AuthService) Register(ctx context.Context, email, rawPassword, fullName string) (*models.User, error) {
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hashed,
		Role:         models.RoleUser, // дефолтная роль при регистрации
		IsActive:     true,
	}
	return s.users.RegisterUser(ctx, user)
}

// Login проверяет пароль пользователя и генерирует JWT.
// Неизвестный email и неверный пароль неразличимы для клиента:
// оба случая завершаются apperr.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	token, err := s.jwtMaker.GenerateToken(user.Email, user.Role, user.UID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
