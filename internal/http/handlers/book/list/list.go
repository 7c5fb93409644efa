package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/request"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context, limit, offset int) ([]*models.Book, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Каталог книг
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Лимит" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response{data=[]models.Book}
// @Router /books/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, offset := request.Pagination(r)
	books, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list books", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if books == nil {
		books = []*models.Book{}
	}

	render.JSON(w, r, response.OKWithData(books))
}
