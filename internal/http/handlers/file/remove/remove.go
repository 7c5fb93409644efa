package remove

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
	Remove(ctx context.Context, actor models.Actor, id string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление файла
// @Tags Files
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Success 204 "Удалено"
// @Failure 403 {object} response.ErrorResponse "Чужой файл"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /files/user/{id}/ [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.file.remove"

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

	if err := h.service.Remove(r.Context(), actor, id); err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to delete file", sl.Err(err))
		}
		return
	}

	log.Info("file deleted", slog.String("file_id", id))
	w.WriteHeader(http.StatusNoContent)
}
