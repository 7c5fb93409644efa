package list

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
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Order, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заказы
// @Description Пользователь видит свои заказы, администратор все.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Лимит" default(50)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} response.Response{data=[]models.Order}
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /user_books/ [get]
// @Router /orders/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.list"

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
	limit, offset := request.Pagination(r)

	orders, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		log.Error("failed to list orders", sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	render.JSON(w, r, response.OKWithData(orders))
}
