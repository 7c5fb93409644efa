package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

const bookColumns = `id, identifier, name, author, production_date, original_file, created_at`

func scanBook(row scanner) (*models.Book, error) {
	var b models.Book
	if err := row.Scan(&b.ID, &b.Identifier, &b.Name, &b.Author, &b.ProductionDate.Time,
		&b.OriginalFile, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook добавляет книгу в каталог, генерируя ей уникальный идентификатор.
func (s *Storage) CreateBook(ctx context.Context, book models.Book) (*models.Book, error) {
	const op = "storage.CreateBook"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if book.Identifier == "" {
		book.Identifier = uuid.NewString()
	}

	query := `INSERT INTO books (identifier, name, author, production_date, original_file)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + bookColumns
	created, err := scanBook(s.DB.QueryRowContext(ctx, query,
		book.Identifier, book.Name, book.Author, book.ProductionDate.Time, book.OriginalFile))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// GetBook возвращает книгу по идентификатору.
func (s *Storage) GetBook(ctx context.Context, identifier string) (*models.Book, error) {
	const op = "storage.GetBook"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE identifier = $1`
	b, err := scanBook(s.DB.QueryRowContext(ctx, query, identifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return b, nil
}

// ListBooks возвращает каталог с пагинацией.
func (s *Storage) ListBooks(ctx context.Context, limit, offset int) ([]*models.Book, error) {
	const op = "storage.ListBooks"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateBook обновляет метаданные книги. Идентификатор не меняется.
func (s *Storage) UpdateBook(ctx context.Context, book models.Book) (*models.Book, error) {
	const op = "storage.UpdateBook"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE books
			  SET name = $1, author = $2, production_date = $3, original_file = $4
			  WHERE identifier = $5
			  RETURNING ` + bookColumns
	updated, err := scanBook(s.DB.QueryRowContext(ctx, query,
		book.Name, book.Author, book.ProductionDate.Time, book.OriginalFile, book.Identifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return updated, nil
}

// RemoveBook удаляет книгу. Книги, на которые ссылаются заказы, не удаляются.
func (s *Storage) RemoveBook(ctx context.Context, identifier string) error {
	const op = "storage.RemoveBook"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM books WHERE identifier = $1`, identifier)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrReferenced)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}

// ExistingBookIdentifiers возвращает те идентификаторы из списка, которые есть в каталоге.
func (s *Storage) ExistingBookIdentifiers(ctx context.Context, identifiers []string) ([]string, error) {
	const op = "storage.ExistingBookIdentifiers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT identifier FROM books WHERE identifier = ANY($1)`, identifiers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
