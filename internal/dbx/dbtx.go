// Package dbx содержит минимальную абстракцию над database/sql для репозиториев:
// интерфейс DBTX, которому удовлетворяют и *sql.DB, и *sql.Tx,
// и функцию для выполнения кода внутри транзакции.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX подмножество database/sql, используемое репозиториями.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx открывает транзакцию, выполняет fn и фиксирует её при успехе.
// При ошибке или панике транзакция откатывается, паника пробрасывается дальше.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
