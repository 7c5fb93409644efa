// Package changepassword меняет пароль учётной записи.
// Владелец подтверждает старый пароль, администратор может задать новый без него.
package changepassword

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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
	ChangePassword(ctx context.Context, actor models.Actor, id string, req models.ChangePasswordRequest) error
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Смена пароля
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID учётной записи"
// @Param request body models.ChangePasswordRequest true "Старый и новый пароль"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /change_password/{id}/ [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.changepassword"

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
	id := chi.URLParam(r, "id")

	var req models.ChangePasswordRequest
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

	if err := h.service.ChangePassword(r.Context(), actor, id, req); err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to change password", sl.Err(err))
		}
		return
	}

	log.Info("password changed", slog.String("account_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id": id,
	}))
}
