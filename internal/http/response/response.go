// Package response единый JSON-конверт ответов и отображение ошибок сервисов в HTTP-статусы.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/objectstore"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

// Response стандартный ответ сервера. Fields заполняется при ошибках валидации: поле -> сообщение.
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Data   any               `json:"data,omitempty"`
}

// ErrorResponse описание ошибки для swagger
type ErrorResponse struct {
	Status string            `json:"status" example:"Error"`
	Error  string            `json:"error" example:"validation failed"`
	Fields map[string]string `json:"fields,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// FieldError ответ с ошибкой одного поля
func FieldError(field, msg string) Response {
	return Response{
		Status: StatusError,
		Error:  "validation failed",
		Fields: map[string]string{field: msg},
	}
}

// ValidationError переводит ошибки validator в карту поле -> сообщение.
// Имена полей берутся из json-тегов, если валидатор создан через request.NewValidator.
func ValidationError(errs validator.ValidationErrors) Response {
	fields := make(map[string]string, len(errs))
	for _, err := range errs {
		var msg string
		switch err.ActualTag() {
		case "required":
			msg = "this field is required"
		case "email":
			msg = "enter a valid email address"
		case "min":
			if err.Kind() == reflect.Slice {
				msg = fmt.Sprintf("ensure this field has at least %s elements", err.Param())
			} else {
				msg = fmt.Sprintf("ensure this field has at least %s characters", err.Param())
			}
		case "max":
			msg = fmt.Sprintf("ensure this field has no more than %s characters", err.Param())
		case "eqfield":
			msg = "the two password fields didn't match"
		default:
			msg = "invalid value"
		}
		fields[fieldName(err)] = msg
	}
	return Response{
		Status: StatusError,
		Error:  "validation failed",
		Fields: fields,
	}
}

// fieldName для элементов списка (books_identifier[0]) возвращает имя самого списка
func fieldName(err validator.FieldError) string {
	name := err.Field()
	for i := 0; i < len(name); i++ {
		if name[i] == '[' {
			return name[:i]
		}
	}
	return name
}

// Status возвращает HTTP-статус и тело ответа для ошибки сервиса.
func Status(err error) (int, Response) {
	var fe *services.FieldError
	var ub *services.UnknownBooksError
	switch {
	case errors.As(err, &ub):
		return http.StatusBadRequest, FieldError("books_identifier",
			fmt.Sprintf("invalid book identifiers: %v", ub.Missing))
	case errors.As(err, &fe):
		return http.StatusBadRequest, FieldError(fe.Field, fe.Message)
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, Error("unable to log in with provided credentials")
	case errors.Is(err, jwt.ErrInvalidToken):
		return http.StatusUnauthorized, Error("invalid or expired token")
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, Error("you do not have permission to perform this action")
	case errors.Is(err, services.ErrBookNotOwned):
		return http.StatusForbidden, Error("book is not in your orders")
	case errors.Is(err, storage.ErrReferenced):
		return http.StatusConflict, Error("resource is referenced by other records")
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict, Error("already exists")
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, objectstore.ErrObjectNotFound):
		return http.StatusNotFound, Error("not found")
	default:
		return http.StatusInternalServerError, Error("internal server error")
	}
}

// Fail пишет ответ для ошибки сервиса и возвращает выбранный статус
func Fail(w http.ResponseWriter, r *http.Request, err error) int {
	code, resp := Status(err)
	render.Status(r, code)
	render.JSON(w, r, resp)
	return code
}
