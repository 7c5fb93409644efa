// Package middlewarectx содержит HTTP middleware для проверки JWT, прав администратора,
// ограничения частоты запросов и сбора метрик.
//
// JWTMiddleware проверяет токен из заголовка Authorization и в случае успеха
// добавляет в контекст идентификатор учётной записи, имя пользователя и роль.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
)

// Service описывает интерфейс сервиса для валидации JWT токена.
type Service interface {
	ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error)
}

// bearer извлекает токен. Кроме Bearer принимается схема Token.
func bearer(header string) (string, bool) {
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			return strings.TrimSpace(header[len(scheme):]), true
		}
	}
	return "", false
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
// При отсутствии или невалидности токена отвечает 401.
func JWTMiddleware(authService Service, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			tokenStr, ok := bearer(r.Header.Get("Authorization"))
			if !ok || tokenStr == "" {
				log.Info("missing or invalid authorization header")
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication credentials were not provided"))
				return
			}

			claims, err := authService.ValidateToken(r.Context(), tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}
