package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

const subscriptionColumns = `id, user_uid, plan_id, status, start_date, end_date,
	auto_renew, created_at, updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.PlanID, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.AutoRenew,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription вставляет новую подписку и возвращает созданную запись.
// Инвариант "не более одной активной подписки на пользователя" обеспечивает
// частичный уникальный индекс по user_uid со статусом active: параллельные
// вставки для одного пользователя получают apperr.ErrConflict от базы,
// а не от внутрипроцессной блокировки.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.CreateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, plan_id, status, start_date, end_date, auto_renew)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		sub.UserUID, sub.PlanID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew)
	created, err := scanSubscription(row)
	if err != nil {
		return nil, wrapRowError(op, err)
	}
	return created, nil
}

// GetCurrentByUser возвращает текущую подписку пользователя:
// последнюю со статусом active либо inactive.
func (s *Storage) GetCurrentByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetCurrentByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status IN ($2, $3)
			  ORDER BY created_at DESC
			  LIMIT 1`
	row := s.DB.QueryRowContext(ctx, query, userUID,
		models.StatusActive, models.StatusInactive)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrapRowError(op, err)
	}
	return sub, nil
}

// GetActiveByUser возвращает активную подписку пользователя.
func (s *Storage) GetActiveByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetActiveByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1 AND status = $2`
	row := s.DB.QueryRowContext(ctx, query, userUID, models.StatusActive)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, wrapRowError(op, err)
	}
	return sub, nil
}

// UpdateSubscription сохраняет измененные поля подписки по её ID
// и возвращает обновленную запись. updated_at выставляется базой.
func (s *Storage) UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET plan_id = $1, status = $2, start_date = $3, end_date = $4,
			      auto_renew = $5, updated_at = now()
			  WHERE id = $6
			  RETURNING ` + subscriptionColumns
	row := s.DB.QueryRowContext(ctx, query,
		sub.PlanID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew, sub.ID)
	updated, err := scanSubscription(row)
	if err != nil {
		return nil, wrapRowError(op, err)
	}
	return updated, nil
}

// ListSubscriptions возвращает все подписки с пагинацией,
// опционально отфильтрованные по статусу.
func (s *Storage) ListSubscriptions(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var statusFilter *string
	if status != "" {
		statusFilter = &status
	}
	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE ($1::text IS NULL OR status = $1)
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, statusFilter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		item, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RenewOverdue продлевает просроченные активные подписки с включенным
// автопродлением: новый период начинается в момент продления и длится
// duration_days текущего плана. Возвращает продленные подписки.
func (s *Storage) RenewOverdue(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.RenewOverdue"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions s
			  SET start_date = now(),
			      end_date = now() + make_interval(days => p.duration_days),
			      updated_at = now()
			  FROM plans p
			  WHERE p.id = s.plan_id
			    AND s.status = $1
			    AND s.auto_renew
			    AND s.end_date < now()
			  RETURNING s.id, s.user_uid, s.plan_id, s.status, s.start_date, s.end_date,
			      s.auto_renew, s.created_at, s.updated_at`
	rows, err := s.DB.QueryContext(ctx, query, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		item, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireOverdue переводит просроченные активные подписки без автопродления
// в статус expired. Повторный запуск не находит подходящих строк, поэтому
// операция идемпотентна и безопасна при конкурентных запусках.
func (s *Storage) ExpireOverdue(ctx context.Context) ([]*models.Subscription, error) {
	const op = "storage.ExpireOverdue"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, updated_at = now()
			  WHERE status = $2
			    AND NOT auto_renew
			    AND end_date < now()
			  RETURNING ` + subscriptionColumns
	rows, err := s.DB.QueryContext(ctx, query, models.StatusExpired, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		item, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
