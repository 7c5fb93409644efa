package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/iedcs-server/internal/dbx"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

const orderSelect = `SELECT o.id, o.account_id, o.created_at,
			      COALESCE(string_agg(ob.book_identifier, ',' ORDER BY ob.position), '')
			  FROM orders o
			  LEFT JOIN order_books ob ON ob.order_id = o.id`

func scanOrder(row scanner) (*models.Order, error) {
	var o models.Order
	var identifiers string
	if err := row.Scan(&o.ID, &o.AccountID, &o.CreatedAt, &identifiers); err != nil {
		return nil, err
	}
	o.BooksIdentifier = []string{}
	if identifiers != "" {
		o.BooksIdentifier = strings.Split(identifiers, ",")
	}
	return &o, nil
}

// CreateOrder в одной транзакции создаёт заказ и привязывает к нему книги.
func (s *Storage) CreateOrder(ctx context.Context, accountID string, booksIdentifier []string) (*models.Order, error) {
	const op = "storage.CreateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	order := &models.Order{AccountID: accountID}
	err := dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (account_id) VALUES ($1) RETURNING id, created_at`,
			accountID).Scan(&order.ID, &order.CreatedAt)
		if err != nil {
			return mapError(err)
		}
		for i, identifier := range booksIdentifier {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_books (order_id, book_identifier, position) VALUES ($1, $2, $3)`,
				order.ID, identifier, i)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.BooksIdentifier = booksIdentifier
	return order, nil
}

// GetOrder возвращает заказ по ID.
func (s *Storage) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	const op = "storage.GetOrder"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := orderSelect + ` WHERE o.id = $1 GROUP BY o.id`
	o, err := scanOrder(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return o, nil
}

// ListOrders возвращает заказы учётной записи. Пустой accountID означает все заказы.
func (s *Storage) ListOrders(ctx context.Context, accountID string, limit, offset int) ([]*models.Order, error) {
	const op = "storage.ListOrders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := orderSelect + `
			  WHERE ($1 = '' OR o.account_id::text = $1)
			  GROUP BY o.id
			  ORDER BY o.id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveOrder удаляет заказ.
func (s *Storage) RemoveOrder(ctx context.Context, id int) error {
	const op = "storage.RemoveOrder"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affectedOrNotFound(op, res)
}

// AccountOwnsBook сообщает, входит ли книга хотя бы в один заказ учётной записи.
func (s *Storage) AccountOwnsBook(ctx context.Context, accountID, identifier string) (bool, error) {
	const op = "storage.AccountOwnsBook"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	query := `SELECT EXISTS (
			      SELECT 1 FROM orders o
			      JOIN order_books ob ON ob.order_id = o.id
			      WHERE o.account_id::text = $1 AND ob.book_identifier = $2
			  )`
	var owns bool
	if err := s.DB.QueryRowContext(ctx, query, accountID, identifier).Scan(&owns); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return owns, nil
}
