package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

const deviceColumns = `id, account_id, unique_identifier, cpu_model, op_system, ip_address, created_at`

func scanDevice(row scanner) (*models.Device, error) {
	var d models.Device
	if err := row.Scan(&d.ID, &d.AccountID, &d.UniqueIdentifier, &d.CPUModel, &d.OpSystem,
		&d.IPAddress, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDevice регистрирует устройство. Повторная регистрация того же устройства даёт ErrAlreadyExists.
func (s *Storage) CreateDevice(ctx context.Context, device models.Device) (*models.Device, error) {
	const op = "storage.CreateDevice"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO devices (account_id, unique_identifier, cpu_model, op_system, ip_address)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING ` + deviceColumns
	created, err := scanDevice(s.DB.QueryRowContext(ctx, query,
		device.AccountID, device.UniqueIdentifier, device.CPUModel, device.OpSystem, device.IPAddress))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// GetDevice возвращает устройство по ID.
func (s *Storage) GetDevice(ctx context.Context, id int) (*models.Device, error) {
	const op = "storage.GetDevice"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`
	d, err := scanDevice(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return d, nil
}

// GetDeviceByIdentifier возвращает устройство учётной записи по его уникальному идентификатору.
func (s *Storage) GetDeviceByIdentifier(ctx context.Context, accountID, uniqueIdentifier string) (*models.Device, error) {
	const op = "storage.GetDeviceByIdentifier"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + deviceColumns + `
			  FROM devices
			  WHERE account_id::text = $1 AND unique_identifier = $2`
	d, err := scanDevice(s.DB.QueryRowContext(ctx, query, accountID, uniqueIdentifier))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return d, nil
}

// ListDevices возвращает устройства учётной записи. Пустой accountID означает все устройства.
func (s *Storage) ListDevices(ctx context.Context, accountID string, limit, offset int) ([]*models.Device, error) {
	const op = "storage.ListDevices"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + deviceColumns + `
			  FROM devices
			  WHERE ($1 = '' OR account_id::text = $1)
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Device, 0)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveDevice удаляет устройство.
func (s *Storage) RemoveDevice(ctx context.Context, id int) error {
	const op = "storage.RemoveDevice"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}
