package content

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
	"github.com/magabrotheeeer/iedcs-server/internal/objectstore"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Content(ctx context.Context, actor models.Actor, identifier string) (*models.BookContent, error) {
	args := m.Called(ctx, actor, identifier)
	c, _ := args.Get(0).(*models.BookContent)
	return c, args.Error(1)
}

func TestContentHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &jwt.CustomClaims{AccountID: "acc-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		claims         *jwt.CustomClaims
		res            *models.BookContent
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "книга заказана",
			claims:         user,
			res:            &models.BookContent{Identifier: "b-1", Content: "Chapter 1"},
			expectedStatus: http.StatusOK,
			expectedBody:   `"content":"Chapter 1"`,
		},
		{
			name:           "книга не заказана",
			claims:         user,
			err:            fmt.Errorf("book.Content: %w", services.ErrBookNotOwned),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"book is not in your orders"`,
		},
		{
			name:           "нет оригинала в хранилище",
			claims:         user,
			err:            fmt.Errorf("book.Content: %w", objectstore.ErrObjectNotFound),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "без авторизации",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.claims != nil {
				svc.On("Content", mock.Anything, tt.claims.Actor(), "b-1").Return(tt.res, tt.err)
			}

			req := httptest.NewRequest(http.MethodGet, "/get_book/b-1/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("identifier", "b-1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.claims != nil {
				ctx = middlewarectx.WithClaims(ctx, tt.claims)
			}
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
