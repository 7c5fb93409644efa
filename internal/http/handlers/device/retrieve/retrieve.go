// Package retrieve ищет устройство текущего пользователя по его уникальному идентификатору.
package retrieve

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
	Retrieve(ctx context.Context, actor models.Actor, uniqueIdentifier string) (*models.Device, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Поиск устройства
// @Tags Devices
// @Produce json
// @Security BearerAuth
// @Param unique_identifier path string true "Уникальный идентификатор устройства"
// @Success 200 {object} response.Response{data=models.Device}
// @Failure 404 {object} response.ErrorResponse "Устройство не зарегистрировано"
// @Router /retrieveDevice/{unique_identifier}/ [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.retrieve"

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
	uid := chi.URLParam(r, "unique_identifier")

	device, err := h.service.Retrieve(r.Context(), actor, uid)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to retrieve device", sl.Err(err))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(device))
}
