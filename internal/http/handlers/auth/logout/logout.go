// Package logout отзывает текущий JWT: идентификатор токена попадает в denylist до истечения срока.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Logout(ctx context.Context, claims *jwt.CustomClaims) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущий токен.
// @Tags Auth
// @Security BearerAuth
// @Success 204 "Токен отозван"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/logout/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		log.Error("claims missing in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication credentials were not provided"))
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("token revoked", slog.String("account_id", claims.AccountID))
	w.WriteHeader(http.StatusNoContent)
}
