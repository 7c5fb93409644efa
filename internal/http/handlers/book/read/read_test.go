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

	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, identifier string) (*models.Book, error) {
	args := m.Called(ctx, identifier)
	b, _ := args.Get(0).(*models.Book)
	return b, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		identifier     string
		res            *models.Book
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"книга найдена", "b-1", &models.Book{Identifier: "b-1", Name: "Emma"}, nil, http.StatusOK, `"name":"Emma"`},
		{"не найдена", "nope", nil, fmt.Errorf("book.Read: %w", storage.ErrNotFound), http.StatusNotFound, `"error":"not found"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Read", mock.Anything, tt.identifier).Return(tt.res, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/books/"+tt.identifier+"/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("identifier", tt.identifier)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
