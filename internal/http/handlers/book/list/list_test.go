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

	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	args := m.Called(ctx, limit, offset)
	res, _ := args.Get(0).([]*models.Book)
	return res, args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		url            string
		limit, offset  int
		res            []*models.Book
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"каталог", "/books/?limit=10", 10, 0, []*models.Book{{Identifier: "b-1"}}, nil, http.StatusOK, `"identifier":"b-1"`},
		{"пустой каталог", "/books/", 50, 0, nil, nil, http.StatusOK, `"data":[]`},
		{"ошибка БД", "/books/?offset=3", 50, 3, nil, errors.New("db"), http.StatusInternalServerError, `"status":"Error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("List", mock.Anything, tt.limit, tt.offset).Return(tt.res, tt.err)

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
