package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// CreatePlan вставляет новый тарифный план и возвращает созданную запись.
// При занятом имени возвращает apperr.ErrConflict.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(plan.Features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO plans (name, price, features, duration_days, description, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id, created_at, updated_at`
	created := plan
	if err := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Price, features, plan.DurationDays, plan.Description, plan.IsActive).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, wrapRowError(op, err)
	}
	return &created, nil
}

// GetPlan возвращает план по его ID.
func (s *Storage) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, features, duration_days, description, is_active,
			      created_at, updated_at
			  FROM plans
			  WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	var result models.Plan
	var features []byte
	if err := row.Scan(&result.ID, &result.Name, &result.Price, &features,
		&result.DurationDays, &result.Description, &result.IsActive,
		&result.CreatedAt, &result.UpdatedAt); err != nil {
		return nil, wrapRowError(op, err)
	}
	if err := json.Unmarshal(features, &result.Features); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListPlans возвращает список планов. При includeInactive = false
// мягко удаленные планы не попадают в выборку.
func (s *Storage) ListPlans(ctx context.Context, includeInactive bool) ([]*models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, name, price, features, duration_days, description, is_active,
			      created_at, updated_at
			  FROM plans
			  WHERE ($1 OR is_active)
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		var item models.Plan
		var features []byte
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &features,
			&item.DurationDays, &item.Description, &item.IsActive,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(features, &item.Features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan сохраняет измененный план и возвращает его.
// Возвращает apperr.ErrNotFound, если план не существует,
// и apperr.ErrConflict при занятом имени.
func (s *Storage) UpdatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(plan.Features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE plans
			  SET name = $1, price = $2, features = $3, duration_days = $4,
			      description = $5, is_active = $6, updated_at = now()
			  WHERE id = $7
			  RETURNING updated_at`
	updated := plan
	if err := s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.Price, features, plan.DurationDays,
		plan.Description, plan.IsActive, plan.ID).Scan(&updated.UpdatedAt); err != nil {
		return nil, wrapRowError(op, err)
	}
	return &updated, nil
}

// DisablePlan мягко удаляет план, выставляя is_active = false.
// Существующие подписки на план не затрагиваются.
func (s *Storage) DisablePlan(ctx context.Context, id int) error {
	const op = "storage.DisablePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE plans
			  SET is_active = false, updated_at = now()
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return nil
}
