package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

const accountColumns = `id, email, username, first_name, last_name, password_hash, role, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName,
		&a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount сохраняет новую учётную запись и возвращает её ID.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO accounts (email, username, first_name, last_name, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var id string
	if err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.Username, account.FirstName, account.LastName,
		account.PasswordHash, account.Role).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return id, nil
}

// GetAccount возвращает учётную запись по ID.
func (s *Storage) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.GetAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// GetAccountByEmail возвращает учётную запись по email.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// ListAccounts возвращает учётные записи с пагинацией.
func (s *Storage) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	const op = "storage.ListAccounts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at, email LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateAccount обновляет профиль учётной записи.
func (s *Storage) UpdateAccount(ctx context.Context, id string, req models.AccountUpdateRequest) (*models.Account, error) {
	const op = "storage.UpdateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	query := `UPDATE accounts
			  SET email = $1, username = $2, first_name = $3, last_name = $4, updated_at = now()
			  WHERE id = $5
			  RETURNING ` + accountColumns
	a, err := scanAccount(s.DB.QueryRowContext(ctx, query,
		req.Email, req.Username, req.FirstName, req.LastName, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// UpdatePassword заменяет хэш пароля учётной записи.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdatePassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE accounts SET password_hash = $1, updated_at = now() WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}

// RemoveAccount удаляет учётную запись вместе с её заказами, устройствами и файлами.
func (s *Storage) RemoveAccount(ctx context.Context, id string) error {
	const op = "storage.RemoveAccount"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}
