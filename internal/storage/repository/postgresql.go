// Package repository реализует хранилище данных на основе PostgreSQL
// для учётных записей, каталога книг, заказов, устройств и пользовательских файлов.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// NewWithDB оборачивает уже открытое соединение.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{DB: db}
}

// Close закрывает соединение с базой данных.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'books'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table books missing or query error: %w", err)
	}
	if !exists {
		return errors.New("required table books missing")
	}
	return nil
}

// mapError приводит ошибки драйвера к ошибкам пакета storage.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", storage.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return err
}

// isForeignKeyViolation сообщает, что удаление запрещено внешним ключом.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func affectedOrNotFound(op string, res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	return nil
}
