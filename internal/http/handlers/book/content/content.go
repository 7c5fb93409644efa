// Package content отдаёт текст книги пользователю, который её заказал.
package content

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
	Content(ctx context.Context, actor models.Actor, identifier string) (*models.BookContent, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текст книги
// @Description Доступен владельцу заказа с этой книгой и администратору.
// @Tags Books
// @Produce json
// @Security BearerAuth
// @Param identifier path string true "Идентификатор книги"
// @Success 200 {object} response.Response{data=models.BookContent}
// @Failure 403 {object} response.ErrorResponse "Книга не заказана"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /get_book/{identifier}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.book.content"

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
	identifier := chi.URLParam(r, "identifier")

	c, err := h.service.Content(r.Context(), actor, identifier)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to load book content", sl.Err(err))
		} else {
			log.Info("book content denied", slog.String("identifier", identifier), sl.Err(err))
		}
		return
	}

	log.Info("book content served", slog.String("identifier", identifier), slog.String("account_id", actor.AccountID))
	render.JSON(w, r, response.OKWithData(c))
}
