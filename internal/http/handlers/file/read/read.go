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
	Read(ctx context.Context, actor models.Actor, id string) (*models.UserFile, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Метаданные файла
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID файла"
// @Success 200 {object} response.Response{data=models.UserFile}
// @Failure 403 {object} response.ErrorResponse "Чужой файл"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /files/user/{id}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.file.read"

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

	file, err := h.service.Read(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to read file", sl.Err(err))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(file))
}
