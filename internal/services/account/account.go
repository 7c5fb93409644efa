// Package account регистрация и управление учетными записями.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/iedcs-server/internal/events"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/password"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

// Repository методы хранилища учетных записей
type Repository interface {
	CreateAccount(ctx context.Context, account models.Account) (string, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, id string, req models.AccountUpdateRequest) (*models.Account, error)
	RemoveAccount(ctx context.Context, id string) error
	ListUserFiles(ctx context.Context, accountID string) ([]*models.UserFile, error)
}

// ObjectRemover удаляет содержимое файлов пользователя
type ObjectRemover interface {
	Delete(ctx context.Context, key string) error
}

type AccountService struct {
	repo      Repository
	objects   ObjectRemover
	publisher events.Publisher
	log       *slog.Logger
}

func NewAccountService(repo Repository, objects ObjectRemover, publisher events.Publisher, log *slog.Logger) *AccountService {
	return &AccountService{
		repo:      repo,
		objects:   objects,
		publisher: publisher,
		log:       log,
	}
}

// EnsureAdmin создает администратора с указанной почтой, если его еще нет.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, secret string) error {
	const op = "account.EnsureAdmin"
	email = strings.TrimSpace(email)
	if email == "" || secret == "" {
		return fmt.Errorf("%s: admin email and password are required", op)
	}
	existing, err := s.repo.GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsAdmin() {
			s.log.Warn("admin email belongs to a regular account", slog.String("account_id", existing.ID))
		}
		return nil
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(secret)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	username, _, _ := strings.Cut(email, "@")
	id, err := s.repo.CreateAccount(ctx, models.Account{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin account created", slog.String("account_id", id))
	return nil
}

// Register создает учетную запись с ролью user и публикует account.registered.
func (s *AccountService) Register(ctx context.Context, req models.AccountRequest) (*models.Account, error) {
	const op = "account.Register"
	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	account := models.Account{
		Email:        strings.TrimSpace(req.Email),
		Username:     strings.TrimSpace(req.Username),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	id, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, uniqueFieldError(err))
	}
	created, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account registered", slog.String("account_id", id))

	event := events.AccountRegistered{
		AccountID: created.ID,
		Email:     created.Email,
		Username:  created.Username,
		At:        time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, rabbitmq.AccountRegistered, event); err != nil {
		s.log.Warn("failed to publish event", slog.String("key", rabbitmq.AccountRegistered), sl.Err(err))
	}
	return created, nil
}

// Me возвращает учетную запись текущего пользователя
func (s *AccountService) Me(ctx context.Context, actor models.Actor) (*models.Account, error) {
	const op = "account.Me"
	account, err := s.repo.GetAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func (s *AccountService) Read(ctx context.Context, actor models.Actor, id string) (*models.Account, error) {
	const op = "account.Read"
	if !actor.CanAccess(id) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// List администратору отдает все записи, остальным только собственную.
func (s *AccountService) List(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Account, error) {
	const op = "account.List"
	if !actor.IsAdmin() {
		account, err := s.repo.GetAccount(ctx, actor.AccountID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if offset > 0 {
			return []*models.Account{}, nil
		}
		return []*models.Account{account}, nil
	}
	accounts, err := s.repo.ListAccounts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return accounts, nil
}

func (s *AccountService) Update(ctx context.Context, actor models.Actor, id string, req models.AccountUpdateRequest) (*models.Account, error) {
	const op = "account.Update"
	if !actor.CanAccess(id) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	account, err := s.repo.UpdateAccount(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, uniqueFieldError(err))
	}
	return account, nil
}

func (s *AccountService) Remove(ctx context.Context, actor models.Actor, id string) error {
	const op = "account.Remove"
	if !actor.CanAccess(id) {
		return fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	files, err := s.repo.ListUserFiles(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RemoveAccount(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account removed", slog.String("account_id", id), slog.Int("files", len(files)))

	// строки user_files удаляются каскадом, объекты чистим сами
	for _, f := range files {
		if err := s.objects.Delete(ctx, f.ObjectKey); err != nil {
			s.log.Warn("failed to delete user object", slog.String("key", f.ObjectKey), sl.Err(err))
		}
	}
	return nil
}

// uniqueFieldError превращает нарушение уникальности в ошибку конкретного поля.
func uniqueFieldError(err error) error {
	if !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	if strings.Contains(err.Error(), "username") {
		return services.NewFieldError("username", "account with this username already exists")
	}
	return services.NewFieldError("email", "account with this email already exists")
}
