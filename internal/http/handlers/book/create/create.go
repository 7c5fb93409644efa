// Package create добавляет книгу в каталог.
//
// Оригинал принимается файлом multipart-формы в поле original_file
// либо ключом уже загруженного объекта в том же поле JSON.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/iedcs-server/internal/http/request"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services/book"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Create(ctx context.Context, req models.BookRequest, upload *book.Upload) (*models.Book, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Добавление книги
// @Tags Books
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body models.BookRequest true "Данные книги"
// @Success 201 {object} response.Response{data=models.Book}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Только для администратора"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /books/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.BookRequest
	if err := request.Decode(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var upload *book.Upload
	file, header, err := request.FormFile(r, "original_file")
	if err != nil {
		log.Error("failed to open uploaded file", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.FieldError("original_file", "upload could not be read"))
		return
	}
	if file != nil {
		defer file.Close()
		upload = &book.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	created, err := h.service.Create(r.Context(), req, upload)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to create book", sl.Err(err))
		}
		return
	}

	log.Info("book created", slog.String("identifier", created.Identifier))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(created))
}
