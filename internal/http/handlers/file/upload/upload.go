// Package upload принимает файл пользователя из поля file multipart-формы.
package upload

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/http/request"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services/userfile"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Upload(ctx context.Context, actor models.Actor, upload userfile.Upload) (*models.UserFile, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Загрузка файла
// @Tags Files
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Файл"
// @Success 201 {object} response.Response{data=models.UserFile}
// @Failure 400 {object} response.ErrorResponse "Файл не передан"
// @Router /files/user/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.file.upload"

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

	if err := r.ParseMultipartForm(request.MaxMemory); err != nil {
		log.Info("request is not a multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldError("file", "no file was submitted"))
		return
	}
	file, header, err := request.FormFile(r, "file")
	if err != nil {
		log.Error("failed to open uploaded file", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldError("file", "upload could not be read"))
		return
	}
	if file == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldError("file", "no file was submitted"))
		return
	}
	defer file.Close()

	stored, err := h.service.Upload(r.Context(), actor, userfile.Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to store file", sl.Err(err))
		}
		return
	}

	log.Info("file stored", slog.String("file_id", stored.ID), slog.Int64("size", stored.Size))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(stored))
}
