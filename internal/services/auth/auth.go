// Package auth вход по email и паролю, отзыв токенов и смена пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/iedcs-server/internal/cache"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/password"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
	"github.com/magabrotheeeer/iedcs-server/internal/services"
	"github.com/magabrotheeeer/iedcs-server/internal/storage"
)

// AccountRepository часть хранилища, нужная для аутентификации.
type AccountRepository interface {
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Denylist хранит идентификаторы отозванных токенов.
type Denylist interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Session результат успешного входа.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *models.Account `json:"account"`
}

// AuthService отвечает за выдачу, проверку и отзыв JWT.
type AuthService struct {
	accounts AccountRepository
	jwtMaker jwt.Maker
	denylist Denylist
	log      *slog.Logger
}

func NewAuthService(accounts AccountRepository, jwtMaker jwt.Maker, denylist Denylist, log *slog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		jwtMaker: jwtMaker,
		denylist: denylist,
		log:      log,
	}
}

// Login проверяет пароль и выдает токен. Неизвестный email и неверный пароль неразличимы для клиента.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"
	account, err := s.accounts.GetAccountByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, services.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(account.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, services.ErrInvalidCredentials)
	}
	token, claims, err := s.jwtMaker.GenerateToken(account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account logged in", slog.String("account_id", account.ID))
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Account: account}, nil
}

// Logout отзывает токен до окончания срока его действия.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.CustomClaims) error {
	const op = "auth.Logout"
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Set(ctx, cache.RevokedPrefix+claims.ID, true, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("token revoked", slog.String("account_id", claims.AccountID))
	return nil
}

// ValidateToken разбирает токен и проверяет, что он не отозван.
// Если redis недоступен, токен принимается, а ошибка пишется в лог.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "auth.ValidateToken"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	revoked, err := s.denylist.Exists(ctx, cache.RevokedPrefix+claims.ID)
	if err != nil {
		s.log.Warn("failed to check token denylist", sl.Err(err))
		return claims, nil
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w", op, jwt.ErrInvalidToken)
	}
	return claims, nil
}

// ChangePassword меняет пароль аккаунта id. Старый пароль не требуется только от администратора,
// меняющего чужой пароль.
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, id string, req models.ChangePasswordRequest) error {
	const op = "auth.ChangePassword"
	if !actor.CanAccess(id) {
		return fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	account, err := s.accounts.GetAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if actor.AccountID == id {
		if err := password.CompareHash(account.PasswordHash, req.OldPassword); err != nil {
			return fmt.Errorf("%s: %w", op, services.NewFieldError("old_password", "wrong password"))
		}
	}
	hash, err := password.GetHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.accounts.UpdatePassword(ctx, id, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password changed", slog.String("account_id", id))
	return nil
}
