package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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
	Read(ctx context.Context, actor models.Actor, id string) (*models.Account, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Учётная запись
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID учётной записи"
// @Success 200 {object} response.Response{data=models.Account}
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /accounts/{id}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.read"

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
	id := chi.URLParam(r, "id")

	account, err := h.service.Read(r.Context(), actor, id)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to read account", sl.Err(err))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(account))
}
