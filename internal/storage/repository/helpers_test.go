package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/iedcs-server/internal/migrations"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(s))

	return s
}

// testDataFactory создаёт связанные записи для тестов.
type testDataFactory struct {
	t *testing.T
	s *Storage
}

func newTestDataFactory(t *testing.T, s *Storage) *testDataFactory {
	return &testDataFactory{t: t, s: s}
}

func (f *testDataFactory) account(email, username string) string {
	f.t.Helper()
	id, err := f.s.CreateAccount(context.Background(), models.Account{
		Email:        email,
		Username:     username,
		PasswordHash: "hash",
		Role:         models.RoleUser,
	})
	require.NoError(f.t, err)
	return id
}

func (f *testDataFactory) book(identifier, name string) *models.Book {
	f.t.Helper()
	b, err := f.s.CreateBook(context.Background(), models.Book{
		Identifier:     identifier,
		Name:           name,
		Author:         "Project Gutenberg",
		ProductionDate: models.NewDate(1998, time.March, 1),
		OriginalFile:   "books/" + identifier + ".txt",
	})
	require.NoError(f.t, err)
	return b
}

func (f *testDataFactory) count(table string) int {
	f.t.Helper()
	var n int
	require.NoError(f.t, f.s.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
