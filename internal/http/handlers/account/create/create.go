// Package create регистрирует новую учётную запись. Доступен без авторизации.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/iedcs-server/internal/http/request"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

// Handler обрабатывает регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает регистрацию учётной записи.
type Service interface {
	Register(ctx context.Context, req models.AccountRequest) (*models.Account, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: request.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация
// @Description Создает учётную запись с ролью user.
// @Tags Accounts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body models.AccountRequest true "Данные учётной записи"
// @Success 201 {object} response.Response{data=models.Account}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации или занятый email/username"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /accounts/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.AccountRequest
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

	account, err := h.service.Register(r.Context(), req)
	if err != nil {
		if code := response.Fail(w, r, err); code >= http.StatusInternalServerError {
			log.Error("failed to register account", sl.Err(err))
		}
		return
	}

	log.Info("account registered", slog.String("account_id", account.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(account))
}
