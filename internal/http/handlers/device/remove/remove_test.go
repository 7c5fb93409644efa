package remove

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
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Remove(ctx context.Context, actor models.Actor, id int) error {
	return m.Called(ctx, actor, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &jwt.CustomClaims{AccountID: "acc-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"успешное удаление", nil, http.StatusNoContent},
		{"не найдено", fmt.Errorf("device.Remove: %w", storage.ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Remove", mock.Anything, user.Actor(), 9).Return(tt.err)

			req := httptest.NewRequest(http.MethodDelete, "/devices/9/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "9")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithClaims(ctx, user))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
