package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Read(ctx context.Context, identifier string) (*models.Book, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Книга
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param identifier path string true "Идентификатор книги"
// @Success 200 {object} response.Response{data=models.Book}
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /books/{identifier}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identifier := chi.URLParam(r, "identifier")
	b, err := h.service.Read(r.Context(), identifier)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to read book", sl.Err(err))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(b))
}
