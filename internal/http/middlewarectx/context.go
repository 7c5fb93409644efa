package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// AccountID ключ идентификатора учётной записи в контексте
	AccountID Key = "account_id"
	// User ключ для имени пользователя в контексте
	User Key = "username"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
	// Claims ключ для разобранного токена
	Claims Key = "claims"
)

// WithClaims кладет данные токена в контекст.
func WithClaims(ctx context.Context, claims *jwt.CustomClaims) context.Context {
	ctx = context.WithValue(ctx, Claims, claims)
	ctx = context.WithValue(ctx, AccountID, claims.AccountID)
	ctx = context.WithValue(ctx, User, claims.Username)
	return context.WithValue(ctx, Role, claims.Role)
}

// ActorFrom достает пользователя, от имени которого выполняется запрос.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	id, ok := ctx.Value(AccountID).(string)
	if !ok || id == "" {
		return models.Actor{}, false
	}
	username, _ := ctx.Value(User).(string)
	role, _ := ctx.Value(Role).(string)
	return models.Actor{AccountID: id, Username: username, Role: role}, true
}

func ClaimsFrom(ctx context.Context) (*jwt.CustomClaims, bool) {
	claims, ok := ctx.Value(Claims).(*jwt.CustomClaims)
	return claims, ok && claims != nil
}
