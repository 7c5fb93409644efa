package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/iedcs-server/internal/events"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/password"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	args := m.Called(ctx, account)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *RepoMock) UpdateAccount(ctx context.Context, id string, req models.AccountUpdateRequest) (*models.Account, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) RemoveAccount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) ListUserFiles(ctx context.Context, accountID string) ([]*models.UserFile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserFile), args.Error(1)
}

type ObjectsMock struct{ mock.Mock }

func (m *ObjectsMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, payload any) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var (
	owner    = models.Actor{AccountID: "acc-1", Username: "reader", Role: models.RoleUser}
	admin    = models.Actor{AccountID: "adm-1", Username: "admin", Role: models.RoleAdmin}
	stranger = models.Actor{AccountID: "acc-2", Username: "other", Role: models.RoleUser}
)

func TestAccountService_Register(t *testing.T) {
	req := models.AccountRequest{
		Email:           " reader@example.com",
		Username:        "reader",
		FirstName:       "Ann",
		LastName:        "Reader",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
	created := &models.Account{ID: "acc-1", Email: "reader@example.com", Username: "reader", Role: models.RoleUser}

	matchesAccount := mock.MatchedBy(func(a models.Account) bool {
		return a.Email == "reader@example.com" &&
			a.Username == "reader" &&
			a.Role == models.RoleUser &&
			password.CompareHash(a.PasswordHash, "secret123") == nil
	})

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, p *PublisherMock)
		wantErr    bool
		wantField  string
	}{
		{
			name: "success",
			setupMocks: func(r *RepoMock, p *PublisherMock) {
				r.On("CreateAccount", mock.Anything, matchesAccount).Return("acc-1", nil).Once()
				r.On("GetAccount", mock.Anything, "acc-1").Return(created, nil).Once()
				p.On("Publish", mock.Anything, "account.registered", mock.MatchedBy(func(e events.AccountRegistered) bool {
					return e.AccountID == "acc-1" && e.Email == "reader@example.com"
				})).Return(nil).Once()
			},
		},
		{
			name: "publish failure does not fail registration",
			setupMocks: func(r *RepoMock, p *PublisherMock) {
				r.On("CreateAccount", mock.Anything, matchesAccount).Return("acc-1", nil).Once()
				r.On("GetAccount", mock.Anything, "acc-1").Return(created, nil).Once()
				p.On("Publish", mock.Anything, "account.registered", mock.Anything).Return(errors.New("broker down")).Once()
			},
		},
		{
			name: "duplicate email",
			setupMocks: func(r *RepoMock, _ *PublisherMock) {
				r.On("CreateAccount", mock.Anything, matchesAccount).
					Return("", fmt.Errorf("storage.CreateAccount: %w: accounts_email_key", storage.ErrAlreadyExists)).Once()
			},
			wantErr:   true,
			wantField: "email",
		},
		{
			name: "duplicate username",
			setupMocks: func(r *RepoMock, _ *PublisherMock) {
				r.On("CreateAccount", mock.Anything, matchesAccount).
					Return("", fmt.Errorf("storage.CreateAccount: %w: accounts_username_key", storage.ErrAlreadyExists)).Once()
			},
			wantErr:   true,
			wantField: "username",
		},
		{
			name: "repository error",
			setupMocks: func(r *RepoMock, _ *PublisherMock) {
				r.On("CreateAccount", mock.Anything, matchesAccount).Return("", errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			pub := new(PublisherMock)
			tt.setupMocks(repo, pub)
			svc := NewAccountService(repo, new(ObjectsMock), pub, newNoopLogger())

			got, err := svc.Register(context.Background(), req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				if tt.wantField != "" {
					var fe *services.FieldError
					require.True(t, errors.As(err, &fe))
					assert.Equal(t, tt.wantField, fe.Field)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, created, got)
			}
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestAccountService_Read(t *testing.T) {
	account := &models.Account{ID: "acc-1", Username: "reader"}

	tests := []struct {
		name    string
		actor   models.Actor
		setup   func(r *RepoMock)
		wantErr error
	}{
		{
			name:  "owner",
			actor: owner,
			setup: func(r *RepoMock) { r.On("GetAccount", mock.Anything, "acc-1").Return(account, nil).Once() },
		},
		{
			name:  "admin",
			actor: admin,
			setup: func(r *RepoMock) { r.On("GetAccount", mock.Anything, "acc-1").Return(account, nil).Once() },
		},
		{
			name:    "stranger",
			actor:   stranger,
			setup:   func(_ *RepoMock) {},
			wantErr: services.ErrForbidden,
		},
		{
			name:    "not found",
			actor:   admin,
			setup:   func(r *RepoMock) { r.On("GetAccount", mock.Anything, "acc-1").Return(nil, storage.ErrNotFound).Once() },
			wantErr: storage.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setup(repo)
			svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

			got, err := svc.Read(context.Background(), tt.actor, "acc-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, account, got)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestAccountService_List(t *testing.T) {
	self := &models.Account{ID: "acc-1"}
	all := []*models.Account{{ID: "acc-1"}, {ID: "acc-2"}}

	t.Run("admin sees all", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("ListAccounts", mock.Anything, 10, 0).Return(all, nil).Once()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		got, err := svc.List(context.Background(), admin, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, all, got)
		repo.AssertExpectations(t)
	})

	t.Run("user sees only self", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccount", mock.Anything, "acc-1").Return(self, nil).Twice()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		got, err := svc.List(context.Background(), owner, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, []*models.Account{self}, got)

		got, err = svc.List(context.Background(), owner, 10, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
		repo.AssertNotCalled(t, "ListAccounts", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAccountService_Update(t *testing.T) {
	req := models.AccountUpdateRequest{Email: "new@example.com ", Username: "reader"}
	trimmed := models.AccountUpdateRequest{Email: "new@example.com", Username: "reader"}
	updated := &models.Account{ID: "acc-1", Email: "new@example.com", Username: "reader"}

	t.Run("owner updates", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("UpdateAccount", mock.Anything, "acc-1", trimmed).Return(updated, nil).Once()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		got, err := svc.Update(context.Background(), owner, "acc-1", req)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		svc := NewAccountService(new(RepoMock), new(ObjectsMock), events.NopPublisher{}, newNoopLogger())
		_, err := svc.Update(context.Background(), stranger, "acc-1", req)
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("email taken", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("UpdateAccount", mock.Anything, "acc-1", trimmed).
			Return(nil, fmt.Errorf("%w: idx_accounts_email_lower", storage.ErrAlreadyExists)).Once()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		_, err := svc.Update(context.Background(), owner, "acc-1", req)
		var fe *services.FieldError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, "email", fe.Field)
	})
}

func TestAccountService_Remove(t *testing.T) {
	files := []*models.UserFile{
		{ID: "f-1", ObjectKey: "users/acc-1/f-1"},
		{ID: "f-2", ObjectKey: "users/acc-1/f-2"},
	}

	t.Run("удаляет объекты файлов", func(t *testing.T) {
		repo := new(RepoMock)
		objects := new(ObjectsMock)
		repo.On("ListUserFiles", mock.Anything, "acc-1").Return(files, nil).Once()
		repo.On("RemoveAccount", mock.Anything, "acc-1").Return(nil).Once()
		objects.On("Delete", mock.Anything, "users/acc-1/f-1").Return(errors.New("s3 down")).Once()
		objects.On("Delete", mock.Anything, "users/acc-1/f-2").Return(nil).Once()
		svc := NewAccountService(repo, objects, events.NopPublisher{}, newNoopLogger())

		assert.NoError(t, svc.Remove(context.Background(), admin, "acc-1"))
		repo.AssertExpectations(t)
		objects.AssertExpectations(t)
	})

	t.Run("объекты не трогаются при ошибке удаления", func(t *testing.T) {
		repo := new(RepoMock)
		objects := new(ObjectsMock)
		repo.On("ListUserFiles", mock.Anything, "acc-1").Return(files, nil).Once()
		repo.On("RemoveAccount", mock.Anything, "acc-1").Return(storage.ErrNotFound).Once()
		svc := NewAccountService(repo, objects, events.NopPublisher{}, newNoopLogger())

		assert.ErrorIs(t, svc.Remove(context.Background(), owner, "acc-1"), storage.ErrNotFound)
		objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("чужой аккаунт", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		assert.ErrorIs(t, svc.Remove(context.Background(), stranger, "acc-1"), services.ErrForbidden)
		repo.AssertNotCalled(t, "ListUserFiles", mock.Anything, mock.Anything)
	})
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	t.Run("создает администратора", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccountByEmail", mock.Anything, "root@example.com").Return(nil, storage.ErrNotFound).Once()
		repo.On("CreateAccount", mock.Anything, mock.MatchedBy(func(a models.Account) bool {
			return a.Email == "root@example.com" &&
				a.Username == "root" &&
				a.Role == models.RoleAdmin &&
				password.CompareHash(a.PasswordHash, "s3cret-pass") == nil
		})).Return("adm-1", nil).Once()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		require.NoError(t, svc.EnsureAdmin(context.Background(), " root@example.com", "s3cret-pass"))
		repo.AssertExpectations(t)
	})

	t.Run("уже существует", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccountByEmail", mock.Anything, "root@example.com").
			Return(&models.Account{ID: "adm-1", Role: models.RoleAdmin}, nil).Once()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		require.NoError(t, svc.EnsureAdmin(context.Background(), "root@example.com", "s3cret-pass"))
		repo.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	})

	t.Run("пустой пароль", func(t *testing.T) {
		svc := NewAccountService(new(RepoMock), new(ObjectsMock), events.NopPublisher{}, newNoopLogger())
		assert.Error(t, svc.EnsureAdmin(context.Background(), "root@example.com", ""))
	})

	t.Run("ошибка хранилища", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccountByEmail", mock.Anything, "root@example.com").Return(nil, errors.New("db down")).Once()
		svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

		assert.Error(t, svc.EnsureAdmin(context.Background(), "root@example.com", "s3cret-pass"))
	})
}

func TestAccountService_Me(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetAccount", mock.Anything, "acc-1").Return(&models.Account{ID: "acc-1"}, nil).Once()
	svc := NewAccountService(repo, new(ObjectsMock), events.NopPublisher{}, newNoopLogger())

	got, err := svc.Me(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
}
