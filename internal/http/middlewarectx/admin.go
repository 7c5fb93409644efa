package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
)

// AdminOnly пропускает только администраторов. Ставится после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("authentication credentials were not provided"))
				return
			}
			if !actor.IsAdmin() {
				log.Info("admin access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("account_id", actor.AccountID),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("you do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
