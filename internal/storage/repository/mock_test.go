package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func TestCreateAccount_UniqueViolation(t *testing.T) {
	s, mock := newMockStorage(t)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+accounts\b.*RETURNING\s+id$`).
		WithArgs("a@example.com", "anna", "", "", "hash", models.RoleUser).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})

	_, err := s.CreateAccount(context.Background(), models.Account{
		Email: "a@example.com", Username: "anna", PasswordHash: "hash", Role: models.RoleUser,
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "accounts_email_key")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveBook(t *testing.T) {
	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "удалена",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`^DELETE FROM books WHERE identifier = \$1$`).
					WithArgs("pg6598").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "не найдена",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`^DELETE FROM books`).
					WithArgs("pg6598").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: storage.ErrNotFound,
		},
		{
			name: "есть в заказах",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`^DELETE FROM books`).
					WithArgs("pg6598").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})
			},
			wantErr: storage.ErrReferenced,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			tt.expect(mock)

			err := s.RemoveBook(context.Background(), "pg6598")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateOrder_RollbackOnUnknownBook(t *testing.T) {
	s, mock := newMockStorage(t)
	accountID := "8f14e45f-ceea-467f-a8f4-4e6b3b2e1d11"

	mock.ExpectBegin()
	mock.ExpectQuery(`^INSERT INTO orders`).
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))
	mock.ExpectExec(`^INSERT INTO order_books`).
		WithArgs(7, "pg6598", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^INSERT INTO order_books`).
		WithArgs(7, "missing", 1).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "order_books_book_identifier_fkey"})
	mock.ExpectRollback()

	_, err := s.CreateOrder(context.Background(), accountID, []string{"pg6598", "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_SplitsIdentifiers(t *testing.T) {
	s, mock := newMockStorage(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`(?s)^SELECT o\.id.*WHERE o\.id = \$1 GROUP BY o\.id$`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "created_at", "ids"}).
			AddRow(3, "acc", created, "pg6598,pg33437"))

	order, err := s.GetOrder(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"pg6598", "pg33437"}, order.BooksIdentifier)
	assert.Equal(t, created, order.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount_InvalidIDSkipsQuery(t *testing.T) {
	s, mock := newMockStorage(t)

	_, err := s.GetAccount(context.Background(), "42")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCanceledContext(t *testing.T) {
	s, mock := newMockStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ListBooks(ctx, 10, 0)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NoError(t, mock.ExpectationsWereMet())
}
