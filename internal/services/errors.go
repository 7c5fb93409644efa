// Package services содержит общие ошибки бизнес-уровня.
// Сами сервисы разложены по подпакетам.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBookNotOwned       = errors.New("book is not in any order of the account")
	ErrUnknownBooks       = errors.New("unknown books")
)

// FieldError ошибка проверки конкретного поля запроса, отдается клиенту как 400.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewFieldError создает ошибку поля
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// UnknownBooksError перечисляет идентификаторы, которых нет в каталоге
type UnknownBooksError struct {
	Missing []string
}

func (e *UnknownBooksError) Error() string {
	return fmt.Sprintf("unknown books: %s", strings.Join(e.Missing, ", "))
}

func (e *UnknownBooksError) Is(target error) bool {
	return target == ErrUnknownBooks
}
