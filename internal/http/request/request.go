// Package request общие части обработчиков: валидатор, разбор тела запроса и пагинация.
package request

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
	// MaxMemory часть multipart-формы, которая держится в памяти; остальное уходит во временные файлы.
	MaxMemory = 32 << 20
)

// ErrUnsupportedMediaType тело пришло в формате, который сервер не разбирает
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// NewValidator создает валидатор, который называет поля по json-тегам.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

var formDecoder = newFormDecoder()

func newFormDecoder() *form.Decoder {
	d := form.NewDecoder()
	d.SetTagName("json")
	return d
}

// Decode разбирает тело запроса в v. Поддерживаются JSON, urlencoded и multipart формы.
// Поля форм сопоставляются по json-тегам, ключи вида name[] читаются как name.
func Decode(r *http.Request, v any) error {
	const op = "request.Decode"

	ct := r.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrUnsupportedMediaType)
	}

	var values url.Values
	switch mediaType {
	case "application/json":
		if err := render.DecodeJSON(r.Body, v); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		values = r.PostForm
	case "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(MaxMemory); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
		values = url.Values(r.MultipartForm.Value)
	default:
		return fmt.Errorf("%s: %w", op, ErrUnsupportedMediaType)
	}

	if err := formDecoder.Decode(v, bracketless(values)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// bracketless сводит name[] к name, исходные значения формы не меняются.
func bracketless(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		key = strings.TrimSuffix(key, "[]")
		out[key] = append(out[key], vals...)
	}
	return out
}

// FormFile возвращает файл из уже разобранной multipart-формы. Если файла нет, все значения nil.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	const op = "request.FormFile"

	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil, nil
	}
	header := r.MultipartForm.File[field][0]
	f, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, header, nil
}

// Pagination читает limit и offset из query. Некорректные значения заменяются значениями по умолчанию.
func Pagination(r *http.Request) (limit, offset int) {
	limit = DefaultLimit
	q := r.URL.Query()
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if s := q.Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
