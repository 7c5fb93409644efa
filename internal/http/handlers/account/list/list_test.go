package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Account, error) {
	args := m.Called(ctx, actor, limit, offset)
	res, _ := args.Get(0).([]*models.Account)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := &jwt.CustomClaims{AccountID: "adm", Role: models.RoleAdmin}

	tests := []struct {
		name           string
		url            string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "список с пагинацией",
			url:  "/accounts/?limit=2&offset=4",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, admin.Actor(), 2, 4).
					Return([]*models.Account{{ID: "a"}, {ID: "b"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[{"id":"a"`,
		},
		{
			name: "пустой список",
			url:  "/accounts/",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, admin.Actor(), 50, 0).Return(nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"data":[]`,
		},
		{
			name: "ошибка сервиса",
			url:  "/accounts/",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, admin.Actor(), 50, 0).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			req = req.WithContext(middlewarectx.WithClaims(req.Context(), admin))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
