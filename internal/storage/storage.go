// Package storage содержит ошибки уровня хранилища, общие для всех репозиториев.
package storage

import "errors"

var (
	// ErrNotFound запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists нарушено ограничение уникальности.
	ErrAlreadyExists = errors.New("already exists")
	// ErrReferenced запись нельзя удалить, на неё ссылаются другие записи.
	ErrReferenced = errors.New("referenced by other records")
)
