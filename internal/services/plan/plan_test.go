package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/apperr"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *RepoMock) GetPlan(ctx context.Context, id int) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *RepoMock) ListPlans(ctx context.Context, includeInactive bool) ([]*models.Plan, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}
func (m *RepoMock) UpdatePlan(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}
func (m *RepoMock) DisablePlan(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPlanService_List(t *testing.T) {
	plans := []*models.Plan{
		{ID: 1, Name: "Basic", IsActive: true},
		{ID: 2, Name: "Pro", IsActive: true},
	}

	t.Run("active list uses cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		cache.On("Get", "plans:active", mock.Anything).Return(true, nil).Run(func(args mock.Arguments) {
			ptr := args.Get(1).(*[]*models.Plan)
			*ptr = plans
		}).Once()

		got, err := svc.List(context.Background(), false)
		assert.NoError(t, err)
		assert.Equal(t, plans, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cache miss fills cache from repository", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		cache.On("Get", "plans:active", mock.Anything).Return(false, nil).Once()
		repo.On("ListPlans", mock.Anything, false).Return(plans, nil).Once()
		cache.On("Set", "plans:active", plans, time.Hour).Return(nil).Once()

		got, err := svc.List(context.Background(), false)
		assert.NoError(t, err)
		assert.Equal(t, plans, got)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("include inactive bypasses cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		all := append(plans, &models.Plan{ID: 3, Name: "Legacy", IsActive: false})
		repo.On("ListPlans", mock.Anything, true).Return(all, nil).Once()

		got, err := svc.List(context.Background(), true)
		assert.NoError(t, err)
		assert.Len(t, got, 3)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}

func TestPlanService_Get(t *testing.T) {
	tests := []struct {
		name            string
		plan            *models.Plan
		repoErr         error
		includeInactive bool
		wantErr         error
	}{
		{
			name: "active plan visible to everyone",
			plan: &models.Plan{ID: 1, Name: "Basic", IsActive: true},
		},
		{
			name:    "disabled plan hidden from user",
			plan:    &models.Plan{ID: 2, Name: "Legacy", IsActive: false},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:            "disabled plan visible to admin",
			plan:            &models.Plan{ID: 2, Name: "Legacy", IsActive: false},
			includeInactive: true,
		},
		{
			name:    "unknown plan",
			repoErr: apperr.ErrNotFound,
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			svc := NewPlanService(repo, new(CacheMock), newNoopLogger())

			if tt.repoErr != nil {
				repo.On("GetPlan", mock.Anything, mock.Anything).Return(nil, tt.repoErr).Once()
			} else {
				repo.On("GetPlan", mock.Anything, tt.plan.ID).Return(tt.plan, nil).Once()
			}

			id := 1
			if tt.plan != nil {
				id = tt.plan.ID
			}
			got, err := svc.Get(context.Background(), id, tt.includeInactive)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.plan, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestPlanService_Create(t *testing.T) {
	t.Run("success create invalidates cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		repo.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
			return p.Name == "Basic" && p.IsActive && p.Features != nil
		})).Return(&models.Plan{ID: 1, Name: "Basic", IsActive: true}, nil).Once()
		cache.On("Invalidate", "plans:active").Return(nil).Once()

		got, err := svc.Create(context.Background(), models.DummyPlan{
			Name: "Basic", Price: 9.99, DurationDays: 30,
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, got.ID)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		repo.On("CreatePlan", mock.Anything, mock.Anything).Return(nil, apperr.ErrConflict).Once()

		_, err := svc.Create(context.Background(), models.DummyPlan{Name: "Basic", Price: 9.99, DurationDays: 30})
		assert.ErrorIs(t, err, apperr.ErrConflict)
		repo.AssertExpectations(t)
	})
}

func TestPlanService_Update(t *testing.T) {
	newPrice := 19.99

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		current := &models.Plan{ID: 1, Name: "Basic", Price: 9.99, DurationDays: 30, IsActive: true}
		repo.On("GetPlan", mock.Anything, 1).Return(current, nil).Once()
		repo.On("UpdatePlan", mock.Anything, mock.MatchedBy(func(p models.Plan) bool {
			return p.Name == "Basic" && p.Price == newPrice && p.DurationDays == 30
		})).Return(&models.Plan{ID: 1, Name: "Basic", Price: newPrice, DurationDays: 30, IsActive: true}, nil).Once()
		cache.On("Invalidate", "plans:active").Return(nil).Once()

		got, err := svc.Update(context.Background(), 1, models.DummyPlanUpdate{Price: &newPrice})
		assert.NoError(t, err)
		assert.Equal(t, newPrice, got.Price)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("unknown plan", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewPlanService(repo, new(CacheMock), newNoopLogger())

		repo.On("GetPlan", mock.Anything, 404).Return(nil, apperr.ErrNotFound).Once()

		_, err := svc.Update(context.Background(), 404, models.DummyPlanUpdate{Price: &newPrice})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		repo.AssertExpectations(t)
	})
}

func TestPlanService_Delete(t *testing.T) {
	t.Run("success delete invalidates cache", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewPlanService(repo, cache, newNoopLogger())

		repo.On("DisablePlan", mock.Anything, 1).Return(nil).Once()
		cache.On("Invalidate", "plans:active").Return(nil).Once()

		assert.NoError(t, svc.Delete(context.Background(), 1))
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("repo delete error", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewPlanService(repo, new(CacheMock), newNoopLogger())

		repo.On("DisablePlan", mock.Anything, 3).Return(errors.New("db error")).Once()

		assert.Error(t, svc.Delete(context.Background(), 3))
		repo.AssertExpectations(t)
	})
}
