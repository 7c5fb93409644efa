package read

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, actor models.Actor, id string) (*models.Account, error) {
	args := m.Called(ctx, actor, id)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &jwt.CustomClaims{AccountID: "acc-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "своя запись",
			id:   "acc-1",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, user.Actor(), "acc-1").Return(&models.Account{ID: "acc-1"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"acc-1"`,
		},
		{
			name: "чужая запись",
			id:   "acc-2",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, user.Actor(), "acc-2").
					Return(nil, fmt.Errorf("account.Read: %w", services.ErrForbidden))
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "не найдена",
			id:   "missing",
			setupMock: func(m *MockService) {
				m.On("Read", mock.Anything, user.Actor(), "missing").
					Return(nil, fmt.Errorf("account.Read: %w", storage.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/accounts/"+tt.id+"/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithClaims(ctx, user))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
