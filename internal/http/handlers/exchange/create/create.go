// Package create принимает значение rd1 клиента для зарегистрированного устройства и выдает rd2.
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
	Exchange(ctx context.Context, actor models.Actor, req models.ExchangeRequest) (*models.SecurityExchange, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Обмен rd1/rd2
// @Tags Exchange
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param request body models.ExchangeRequest true "Устройство и rd1"
// @Success 201 {object} response.Response{data=models.SecurityExchange}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или неизвестное устройство"
// @Router /security_exchange_r1r2/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.exchange.create"

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

	var req models.ExchangeRequest
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

	record, err := h.service.Exchange(r.Context(), actor, req)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("exchange failed", sl.Err(err))
		}
		return
	}

	log.Info("exchange stored", slog.String("device", req.DeviceIdentifier))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(record))
}
