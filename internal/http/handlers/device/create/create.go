// Package create регистрирует устройство текущего пользователя.
// IP-адрес берется из запроса; за прокси его выставляет middleware.RealIP.
package create

import (
	"context"
	"log/slog"
	"net"
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
	Register(ctx context.Context, actor models.Actor, req models.DeviceRequest, ip string) (*models.Device, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ServeHTTP godoc
// @Summary Регистрация устройства
// @Tags Devices
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Security BearerAuth
// @Param request body models.DeviceRequest true "Описание устройства"
// @Success 201 {object} response.Response{data=models.Device}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или устройство уже зарегистрировано"
// @Router /devices/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.create"

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

	var req models.DeviceRequest
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

	device, err := h.service.Register(r.Context(), actor, req, clientIP(r))
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to register device", sl.Err(err))
		}
		return
	}

	log.Info("device registered", slog.Int("device_id", device.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(device))
}
