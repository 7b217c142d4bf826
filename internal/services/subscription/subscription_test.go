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

func (m *RepoMock) CreateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetCurrentByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) GetActiveByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) UpdateSubscription(ctx context.Context, sub models.Subscription) (*models.Subscription, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}
func (m *RepoMock) ListSubscriptions(ctx context.Context, status string, limit, offset int) ([]*models.Subscription, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) RenewOverdue(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}
func (m *RepoMock) ExpireOverdue(ctx context.Context) ([]*models.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subscription), args.Error(1)
}

type PlansMock struct{ mock.Mock }

func (m *PlansMock) Get(ctx context.Context, id int, includeInactive bool) (*models.Plan, error) {
	args := m.Called(ctx, id, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
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

func basicPlan() *models.Plan {
	return &models.Plan{
		ID:           1,
		Name:         "Basic",
		Price:        9.99,
		DurationDays: 30,
		IsActive:     true,
	}
}

func TestSubscriptionService_Create(t *testing.T) {
	plan := basicPlan()

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, p *PlansMock, c *CacheMock)
		req        models.DummySubscription
		wantErr    error
	}{
		{
			name: "success create",
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock) {
				p.On("Get", mock.Anything, 1, false).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return s.UserUID == "user-uid-1" &&
						s.PlanID == 1 &&
						s.Status == models.StatusActive &&
						s.EndDate.Sub(s.StartDate) == 30*24*time.Hour
				})).Return(&models.Subscription{ID: 42, UserUID: "user-uid-1", PlanID: 1, Status: models.StatusActive}, nil).Once()
				c.On("Set", "subscription:current:user-uid-1", mock.Anything, time.Hour).Return(nil).Once()
			},
			req: models.DummySubscription{PlanID: 1, AutoRenew: true},
		},
		{
			name: "plan not found",
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock) {
				p.On("Get", mock.Anything, 99, false).Return(nil, apperr.ErrNotFound).Once()
			},
			req:     models.DummySubscription{PlanID: 99},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "second active subscription conflicts",
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock) {
				p.On("Get", mock.Anything, 1, false).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.Anything).Return(nil, apperr.ErrConflict).Once()
			},
			req:     models.DummySubscription{PlanID: 1},
			wantErr: apperr.ErrConflict,
		},
		{
			name: "cache set error does not fail the request",
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock) {
				p.On("Get", mock.Anything, 1, false).Return(plan, nil).Once()
				r.On("CreateSubscription", mock.Anything, mock.Anything).
					Return(&models.Subscription{ID: 7, UserUID: "user-uid-1"}, nil).Once()
				c.On("Set", "subscription:current:user-uid-1", mock.Anything, time.Hour).
					Return(errors.New("redis down")).Once()
			},
			req: models.DummySubscription{PlanID: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			plans := new(PlansMock)
			cache := new(CacheMock)
			svc := NewSubscriptionService(repo, plans, cache, newNoopLogger())

			tt.setupMocks(repo, plans, cache)

			got, err := svc.Create(context.Background(), "user-uid-1", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, got)
			}

			repo.AssertExpectations(t)
			plans.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_GetCurrent(t *testing.T) {
	sub := &models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusActive}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "cache hit skips repository",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "subscription:current:user-uid-1", mock.Anything).
					Return(true, nil).Run(func(args mock.Arguments) {
					ptr := args.Get(1).(**models.Subscription)
					*ptr = sub
				}).Once()
			},
		},
		{
			name: "cache miss reads repository and fills cache",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "subscription:current:user-uid-1", mock.Anything).Return(false, nil).Once()
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(sub, nil).Once()
				c.On("Set", "subscription:current:user-uid-1", sub, time.Hour).Return(nil).Once()
			},
		},
		{
			name: "no subscription",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "subscription:current:user-uid-1", mock.Anything).Return(false, nil).Once()
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(nil, apperr.ErrNotFound).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name: "cache error falls back to repository",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", "subscription:current:user-uid-1", mock.Anything).
					Return(false, errors.New("redis down")).Once()
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(sub, nil).Once()
				c.On("Set", "subscription:current:user-uid-1", sub, time.Hour).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			svc := NewSubscriptionService(repo, new(PlansMock), cache, newNoopLogger())

			tt.setupMocks(repo, cache)

			got, err := svc.GetCurrent(context.Background(), "user-uid-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, sub, got)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Update(t *testing.T) {
	autoRenewOff := false
	newPlanID := 2

	proPlan := &models.Plan{ID: 2, Name: "Pro", Price: 29.99, DurationDays: 90, IsActive: true}

	tests := []struct {
		name       string
		current    *models.Subscription
		req        models.DummySubscriptionUpdate
		setupMocks func(r *RepoMock, p *PlansMock, c *CacheMock, current *models.Subscription)
		check      func(t *testing.T, got *models.Subscription)
		wantErr    error
	}{
		{
			name:    "turn off auto renew",
			current: &models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusActive, PlanID: 1, AutoRenew: true},
			req:     models.DummySubscriptionUpdate{AutoRenew: &autoRenewOff},
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock, current *models.Subscription) {
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(current, nil).Once()
				r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return !s.AutoRenew && s.PlanID == 1
				})).Return(&models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusActive, AutoRenew: false}, nil).Once()
				c.On("Set", "subscription:current:user-uid-1", mock.Anything, time.Hour).Return(nil).Once()
			},
			check: func(t *testing.T, got *models.Subscription) {
				assert.False(t, got.AutoRenew)
			},
		},
		{
			name:    "plan switch restarts the period",
			current: &models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusActive, PlanID: 1},
			req:     models.DummySubscriptionUpdate{PlanID: &newPlanID},
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock, current *models.Subscription) {
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(current, nil).Once()
				p.On("Get", mock.Anything, 2, false).Return(proPlan, nil).Once()
				r.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
					return s.PlanID == 2 && s.EndDate.Sub(s.StartDate) == 90*24*time.Hour
				})).Return(&models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusActive, PlanID: 2}, nil).Once()
				c.On("Set", "subscription:current:user-uid-1", mock.Anything, time.Hour).Return(nil).Once()
			},
			check: func(t *testing.T, got *models.Subscription) {
				assert.Equal(t, 2, got.PlanID)
			},
		},
		{
			name:    "cancelled subscription rejects update",
			current: &models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusCancelled},
			req:     models.DummySubscriptionUpdate{AutoRenew: &autoRenewOff},
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock, current *models.Subscription) {
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(current, nil).Once()
			},
			wantErr: apperr.ErrInvalidState,
		},
		{
			name:    "no subscription",
			current: nil,
			req:     models.DummySubscriptionUpdate{AutoRenew: &autoRenewOff},
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock, current *models.Subscription) {
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(nil, apperr.ErrNotFound).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
		{
			name:    "switch to disabled plan",
			current: &models.Subscription{ID: 1, UserUID: "user-uid-1", Status: models.StatusActive, PlanID: 1},
			req:     models.DummySubscriptionUpdate{PlanID: &newPlanID},
			setupMocks: func(r *RepoMock, p *PlansMock, c *CacheMock, current *models.Subscription) {
				r.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(current, nil).Once()
				p.On("Get", mock.Anything, 2, false).Return(nil, apperr.ErrNotFound).Once()
			},
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			plans := new(PlansMock)
			cache := new(CacheMock)
			svc := NewSubscriptionService(repo, plans, cache, newNoopLogger())

			tt.setupMocks(repo, plans, cache, tt.current)

			got, err := svc.Update(context.Background(), "user-uid-1", tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, got)
				}
			}

			repo.AssertExpectations(t)
			plans.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestSubscriptionService_Cancel(t *testing.T) {
	endDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	t.Run("cancel keeps end date and drops auto renew", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewSubscriptionService(repo, new(PlansMock), cache, newNoopLogger())

		current := &models.Subscription{
			ID: 1, UserUID: "user-uid-1", Status: models.StatusActive,
			AutoRenew: true, EndDate: endDate,
		}
		repo.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(current, nil).Once()
		repo.On("UpdateSubscription", mock.Anything, mock.MatchedBy(func(s models.Subscription) bool {
			return s.Status == models.StatusCancelled && !s.AutoRenew && s.EndDate.Equal(endDate)
		})).Return(&models.Subscription{
			ID: 1, UserUID: "user-uid-1", Status: models.StatusCancelled, EndDate: endDate,
		}, nil).Once()
		cache.On("Invalidate", "subscription:current:user-uid-1").Return(nil).Once()

		got, err := svc.Cancel(context.Background(), "user-uid-1")
		assert.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.Equal(t, endDate, got.EndDate)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("cancel without subscription", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewSubscriptionService(repo, new(PlansMock), cache, newNoopLogger())

		repo.On("GetCurrentByUser", mock.Anything, "user-uid-1").Return(nil, apperr.ErrNotFound).Once()

		_, err := svc.Cancel(context.Background(), "user-uid-1")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		repo.AssertExpectations(t)
	})
}

func TestSubscriptionService_ExpireOverdue(t *testing.T) {
	renewedSub := &models.Subscription{ID: 1, UserUID: "user-a", Status: models.StatusActive, AutoRenew: true}
	expiredSub := &models.Subscription{ID: 2, UserUID: "user-b", Status: models.StatusExpired}

	t.Run("renews then expires", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewSubscriptionService(repo, new(PlansMock), cache, newNoopLogger())

		repo.On("RenewOverdue", mock.Anything).Return([]*models.Subscription{renewedSub}, nil).Once()
		repo.On("ExpireOverdue", mock.Anything).Return([]*models.Subscription{expiredSub}, nil).Once()
		cache.On("Set", "subscription:current:user-a", renewedSub, time.Hour).Return(nil).Once()
		cache.On("Invalidate", "subscription:current:user-b").Return(nil).Once()

		renewed, expired, err := svc.ExpireOverdue(context.Background())
		assert.NoError(t, err)
		assert.Len(t, renewed, 1)
		assert.Len(t, expired, 1)

		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("second run finds nothing", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewSubscriptionService(repo, new(PlansMock), cache, newNoopLogger())

		repo.On("RenewOverdue", mock.Anything).Return([]*models.Subscription{}, nil).Once()
		repo.On("ExpireOverdue", mock.Anything).Return([]*models.Subscription{}, nil).Once()

		renewed, expired, err := svc.ExpireOverdue(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, renewed)
		assert.Empty(t, expired)

		repo.AssertExpectations(t)
	})

	t.Run("renew error aborts sweep", func(t *testing.T) {
		repo := new(RepoMock)
		cache := new(CacheMock)
		svc := NewSubscriptionService(repo, new(PlansMock), cache, newNoopLogger())

		repo.On("RenewOverdue", mock.Anything).Return(nil, errors.New("db error")).Once()

		_, _, err := svc.ExpireOverdue(context.Background())
		assert.Error(t, err)
		repo.AssertExpectations(t)
	})
}

func TestSubscriptionService_List(t *testing.T) {
	subs := []*models.Subscription{
		{ID: 1, UserUID: "user-a", Status: models.StatusActive},
		{ID: 2, UserUID: "user-b", Status: models.StatusActive},
	}

	repo := new(RepoMock)
	svc := NewSubscriptionService(repo, new(PlansMock), new(CacheMock), newNoopLogger())

	repo.On("ListSubscriptions", mock.Anything, models.StatusActive, 50, 0).Return(subs, nil).Once()

	got, err := svc.List(context.Background(), models.StatusActive, 50, 0)
	assert.NoError(t, err)
	assert.Equal(t, subs, got)
	repo.AssertExpectations(t)
}
