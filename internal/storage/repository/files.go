package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

const userFileColumns = `id, account_id, name, content_type, size, checksum, object_key, created_at`

func scanUserFile(row scanner) (*models.UserFile, error) {
	var f models.UserFile
	if err := row.Scan(&f.ID, &f.AccountID, &f.Name, &f.ContentType, &f.Size, &f.Checksum,
		&f.ObjectKey, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateUserFile сохраняет метаданные загруженного файла.
func (s *Storage) CreateUserFile(ctx context.Context, file models.UserFile) (*models.UserFile, error) {
	const op = "storage.CreateUserFile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO user_files (id, account_id, name, content_type, size, checksum, object_key)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userFileColumns
	created, err := scanUserFile(s.DB.QueryRowContext(ctx, query,
		file.ID, file.AccountID, file.Name, file.ContentType, file.Size, file.Checksum, file.ObjectKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// GetUserFile возвращает метаданные файла по ID.
func (s *Storage) GetUserFile(ctx context.Context, id string) (*models.UserFile, error) {
	const op = "storage.GetUserFile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	query := `SELECT ` + userFileColumns + ` FROM user_files WHERE id = $1`
	f, err := scanUserFile(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return f, nil
}

// ListUserFiles возвращает файлы учётной записи, новые первыми.
func (s *Storage) ListUserFiles(ctx context.Context, accountID string) ([]*models.UserFile, error) {
	const op = "storage.ListUserFiles"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userFileColumns + `
			  FROM user_files
			  WHERE account_id::text = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.UserFile, 0)
	for rows.Next() {
		f, err := scanUserFile(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveUserFile удаляет метаданные файла.
func (s *Storage) RemoveUserFile(ctx context.Context, id string) error {
	const op = "storage.RemoveUserFile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM user_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}
