package retrieve

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

func (m *MockService) Retrieve(ctx context.Context, actor models.Actor, uniqueIdentifier string) (*models.Device, error) {
	args := m.Called(ctx, actor, uniqueIdentifier)
	d, _ := args.Get(0).(*models.Device)
	return d, args.Error(1)
}

func TestRetrieveHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	user := &jwt.CustomClaims{AccountID: "acc-1", Role: models.RoleUser}

	tests := []struct {
		name           string
		uid            string
		res            *models.Device
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"найдено", "dev-1", &models.Device{ID: 1, UniqueIdentifier: "dev-1"}, nil, http.StatusOK, `"unique_identifier":"dev-1"`},
		{"не зарегистрировано", "dev-x", nil, fmt.Errorf("device.Retrieve: %w", storage.ErrNotFound), http.StatusNotFound, `"error":"not found"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Retrieve", mock.Anything, user.Actor(), tt.uid).Return(tt.res, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/retrieveDevice/"+tt.uid+"/", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("unique_identifier", tt.uid)
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
