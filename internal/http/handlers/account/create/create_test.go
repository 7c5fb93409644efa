package create

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req models.AccountRequest) (*models.Account, error) {
	args := m.Called(ctx, req)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := models.AccountRequest{
		Email:           "reader@example.com",
		Username:        "reader",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"email":"reader@example.com","username":"reader","password":"secret1","confirm_password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid).
					Return(&models.Account{ID: "acc-1", Email: valid.Email, Username: valid.Username, Role: models.RoleUser}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":"acc-1"`,
		},
		{
			name:           "нет email и username",
			body:           `{"password":"secret1","confirm_password":"secret1"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"username":"this field is required"`,
		},
		{
			name:           "битый json",
			body:           `{"email":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name: "email занят",
			body: `{"email":"reader@example.com","username":"reader","password":"secret1","confirm_password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid).
					Return(nil, services.NewFieldError("email", "account with this email already exists"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"email":"account with this email already exists"`,
		},
		{
			name: "ошибка сервиса",
			body: `{"email":"reader@example.com","username":"reader","password":"secret1","confirm_password":"secret1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/accounts/", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
