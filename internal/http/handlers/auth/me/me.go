// Package me возвращает профиль текущего пользователя.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Me(ctx context.Context, actor models.Actor) (*models.Account, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Account}
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 404 {object} response.ErrorResponse "Учётная запись удалена"
// @Router /me/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("authentication credentials were not provided"))
		return
	}

	account, err := h.service.Me(r.Context(), actor)
	if err != nil {
		log.Error("failed to load account", sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(account))
}
