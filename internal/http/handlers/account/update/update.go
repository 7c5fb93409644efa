// Package update изменяет профиль учётной записи. PATCH берёт отсутствующие поля из текущей записи.
package update

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
	Read(ctx context.Context, actor models.Actor, id string) (*models.Account, error)
	Update(ctx context.Context, actor models.Actor, id string, req models.AccountUpdateRequest) (*models.Account, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Изменение учётной записи
// @Description PATCH дополняет отсутствующие поля текущими значениями.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID учётной записи"
// @Param request body models.AccountUpdateRequest true "Новые данные"
// @Success 200 {object} response.Response{data=models.Account}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 404 {object} response.ErrorResponse "Не найдено"
// @Router /accounts/{id}/ [put]
// @Router /accounts/{id}/ [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.update"

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

	var req models.AccountUpdateRequest
	if r.Method == http.MethodPatch {
		current, err := h.service.Read(r.Context(), actor, id)
		if err != nil {
			if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
				log.Error("failed to read account", sl.Err(err))
			}
			return
		}
		req = models.AccountUpdateRequest{
			Email:     current.Email,
			Username:  current.Username,
			FirstName: current.FirstName,
			LastName:  current.LastName,
		}
	}
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

	account, err := h.service.Update(r.Context(), actor, id, req)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to update account", sl.Err(err))
		}
		return
	}

	log.Info("account updated", slog.String("account_id", id))
	render.JSON(w, r, response.OKWithData(account))
}
