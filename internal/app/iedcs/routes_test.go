package iedcs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/health"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/spa"
)

func newTestRouter(t *testing.T, checks map[string]health.Check) http.Handler {
	t.Helper()
	return newTestRouterWith(t, RouterOptions{
		AllowedOrigins: []string{"http://localhost:3000"},
		RPS:            100,
		Burst:          100,
		Health:         checks,
	})
}

func newTestRouterWith(t *testing.T, opts RouterOptions) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shell, err := spa.New(logger, "", APIBase)
	require.NoError(t, err)
	opts.SPA = shell

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{}, opts)
	return router
}

// requestCount значение iedcs_http_requests_total для набора меток.
func requestCount(t *testing.T, route, method, status string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	want := map[string]string{"route": route, "method": method, "status": status}
	for _, mf := range families {
		if mf.GetName() != "iedcs_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, l := range m.GetLabel() {
				if want[l.GetName()] == l.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/orders/"},
		{http.MethodPost, "/api/v1/orders/"},
		{http.MethodGet, "/api/v1/user_books"},
		{http.MethodGet, "/api/v1/me/"},
		{http.MethodGet, "/api/v1/devices/"},
		{http.MethodGet, "/api/v1/retrieveDevice/abc/"},
		{http.MethodPost, "/api/v1/security_exchange_r1r2/"},
		{http.MethodGet, "/api/v1/get_book/book-1/"},
		{http.MethodGet, "/api/v1/files/user/"},
		{http.MethodPost, "/api/v1/books/"},
		{http.MethodPost, "/api/v1/auth/logout/"},
		{http.MethodPost, "/api-auth/logout/"},
		{http.MethodPost, "/api-auth/logout"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Contains(t, rr.Body.String(), "authentication credentials were not provided")
		})
	}
}

func TestRoutes_SPAFallback(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/library/books/42", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rr.Body.String(), `data-api-base="/api/v1"`)
}

func TestRoutes_APIAuthLogin(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/api-auth/login/", "/api/v1/auth/login/"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			// пустые учетные данные отклоняет сам обработчик входа
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
		})
	}

	t.Run("вложенного алиаса нет", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/api-auth/login/", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRoutes_LoginLimiterShared(t *testing.T) {
	router := newTestRouterWith(t, RouterOptions{RPS: 0.001, Burst: 1})

	login := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusBadRequest, login("/api/v1/auth/login/"))
	assert.Equal(t, http.StatusTooManyRequests, login("/api-auth/login/"))
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/library/books/42", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Contains(t, rr.Body.String(), "method not allowed")
}

func TestRoutes_SPACountedOnce(t *testing.T) {
	router := newTestRouter(t, nil)
	before := requestCount(t, "/*", http.MethodGet, "200")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/library/books/7", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, before+1, requestCount(t, "/*", http.MethodGet, "200"))
}

func TestRoutes_CORS(t *testing.T) {
	tests := []struct {
		name            string
		origins         []string
		wantCredentials string
	}{
		{name: "список источников", origins: []string{"http://localhost:3000"}, wantCredentials: "true"},
		{name: "любой источник", origins: []string{"*"}, wantCredentials: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouterWith(t, RouterOptions{AllowedOrigins: tt.origins, RPS: 100, Burst: 100})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", "http://localhost:3000")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredentials, rr.Header().Get("Access-Control-Allow-Credentials"))
		})
	}

	t.Run("пустой список", func(t *testing.T) {
		router := newTestRouterWith(t, RouterOptions{RPS: 100, Burst: 100})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRoutes_UnknownAPIPath(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
}

func TestRoutes_Health(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]health.Check
		code   int
	}{
		{
			name:   "все зависимости доступны",
			checks: map[string]health.Check{"postgres": func(context.Context) error { return nil }},
			code:   http.StatusOK,
		},
		{
			name:   "база недоступна",
			checks: map[string]health.Check{"postgres": func(context.Context) error { return errors.New("down") }},
			code:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.checks)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestRoutes_Metrics(t *testing.T) {
	router := newTestRouter(t, nil)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "iedcs_http_requests_total")
}
