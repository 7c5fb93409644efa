// Package create оформляет заказ текущего пользователя на одну или несколько книг.
//
// Все идентификаторы из books_identifier должны существовать в каталоге,
// иначе заказ не создается и возвращается ошибка поля books_identifier.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/http/request"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

type Service interface {
	Create(ctx context.Context, actor models.Actor, req models.OrderRequest) (*models.Order, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Создание заказа
// @Tags Orders
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param request body models.OrderRequest true "Идентификаторы книг"
// @Success 201 {object} response.Response{data=models.Order}
// @Failure 400 {object} response.ErrorResponse "Неизвестные книги или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /user_books/ [post]
// @Router /orders/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.create"

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

	var req models.OrderRequest
	if err := request.Decode(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Debug("request body decoded", slog.Any("books_identifier", req.BooksIdentifier))

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	order, err := h.service.Create(r.Context(), actor, req)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to create order", sl.Err(err))
		} else {
			log.Info("order rejected", sl.Err(err))
		}
		return
	}

	log.Info("order created", slog.Int("order_id", order.ID), slog.String("account_id", actor.AccountID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(order))
}
