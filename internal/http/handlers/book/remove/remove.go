// Package remove удаляет книгу из каталога. Книгу, на которую ссылаются заказы, удалить нельзя.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Remove(ctx context.Context, identifier string) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удаление книги
// @Tags Books
// @Security BearerAuth
// @Param identifier path string true "Идентификатор книги"
// @Success 204 "Удалено"
// @Failure 403 {object} response.ErrorResponse "Только для администратора"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Failure 409 {object} response.ErrorResponse "Книга есть в заказах"
// @Router /books/{identifier}/ [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identifier := chi.URLParam(r, "identifier")
	if err := h.service.Remove(r.Context(), identifier); err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to delete book", sl.Err(err))
		} else {
			log.Info("book not deleted", sl.Err(err))
		}
		return
	}

	log.Info("book deleted", slog.String("identifier", identifier))
	w.WriteHeader(http.StatusNoContent)
}
