package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// RegisterUser сохраняет нового пользователя и возвращает созданную запись.
// При занятом email возвращает apperr.ErrConflict.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, full_name, password_hash, role, is_active)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid, created_at, updated_at`
	created := user
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.FullName, user.PasswordHash, user.Role, user.IsActive).
		Scan(&created.UID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, wrapRowError(op, err)
	}
	return &created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, full_name, password_hash, role, is_active, created_at, updated_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)
	if err := row.Scan(&u.UID, &u.Email, &u.FullName, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, wrapRowError(op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, full_name, password_hash, role, is_active, created_at, updated_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&u.UID, &u.Email, &u.FullName, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, wrapRowError(op, err)
	}
	return u, nil
}
