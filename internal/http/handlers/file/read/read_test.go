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
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Read(ctx context.Context, actor models.Actor, id string) (*models.UserFile, error) {
	args := m.Called(ctx, actor, id)
	f, _ := args.Get(0).(*models.UserFile)
	return f, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &jwt.CustomClaims{AccountID: "acc-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		res            *models.UserFile
		err            error
		expectedStatus int
	}{
		{"свой файл", &models.UserFile{ID: "f-1", Checksum: "abc"}, nil, http.StatusOK},
		{"чужой файл", nil, fmt.Errorf("userfile.Read: %w", services.ErrForbidden), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Read", mock.Anything, user.Actor(), "f-1").Return(tt.res, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/files/user/f-1/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "f-1")
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(middlewarectx.WithClaims(ctx, user))
			w := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
