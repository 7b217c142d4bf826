package planlist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/subscription-manager/internal/http/response"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) List(ctx context.Context, includeInactive bool) ([]*models.Plan, error) {
	args := m.Called(ctx, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRequest(target, role string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if role != "" {
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Role, role))
	}
	return req
}

func TestListHandler(t *testing.T) {
	activePlans := []*models.Plan{
		{ID: 1, Name: "Basic", IsActive: true},
		{ID: 2, Name: "Pro", IsActive: true},
	}

	tests := []struct {
		name       string
		target     string
		role       string
		setupMocks func(s *ServiceMock)
		wantStatus int
		wantLen    int
	}{
		{
			name:   "anonymous gets active plans",
			target: "/api/v1/plans",
			setupMocks: func(s *ServiceMock) {
				s.On("List", mock.Anything, false).Return(activePlans, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    2,
		},
		{
			name:   "include_inactive ignored for regular user",
			target: "/api/v1/plans?include_inactive=true",
			role:   "user",
			setupMocks: func(s *ServiceMock) {
				s.On("List", mock.Anything, false).Return(activePlans, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    2,
		},
		{
			name:   "admin sees disabled plans",
			target: "/api/v1/plans?include_inactive=true",
			role:   "admin",
			setupMocks: func(s *ServiceMock) {
				all := append(activePlans, &models.Plan{ID: 3, Name: "Legacy", IsActive: false})
				s.On("List", mock.Anything, true).Return(all, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    3,
		},
		{
			name:   "empty catalog returns empty array",
			target: "/api/v1/plans",
			setupMocks: func(s *ServiceMock) {
				s.On("List", mock.Anything, false).Return([]*models.Plan(nil), nil).Once()
			},
			wantStatus: http.StatusOK,
			wantLen:    0,
		},
		{
			name:   "storage error",
			target: "/api/v1/plans",
			setupMocks: func(s *ServiceMock) {
				s.On("List", mock.Anything, false).Return(nil, errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)

			handler := New(newNoopLogger(), service)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, newRequest(tt.target, tt.role))

			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantStatus == http.StatusOK {
				var resp response.Response
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				data, ok := resp.Data.([]any)
				require.True(t, ok, "data must be a JSON array")
				assert.Len(t, data, tt.wantLen)
			}

			service.AssertExpectations(t)
		})
	}
}
