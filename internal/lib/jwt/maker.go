// Package jwt выпускает и проверяет токены доступа аккаунтов.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/iedcs-server/internal/models"
)

// ErrInvalidToken токен не прошел проверку подписи, срока или формата
var ErrInvalidToken = errors.New("invalid token")

// CustomClaims данные аккаунта внутри токена. ID (jti) нужен для отзыва при logout.
type CustomClaims struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Actor переводит claims в субъекта запроса
func (c *CustomClaims) Actor() models.Actor {
	return models.Actor{AccountID: c.AccountID, Username: c.Username, Role: c.Role}
}

// Maker создает и разбирает токены
type Maker interface {
	GenerateToken(account *models.Account) (string, *CustomClaims, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 общим секретом
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}

// GenerateToken выпускает токен на tokenTTL и возвращает его вместе с claims.
func (j *MakerImpl) GenerateToken(account *models.Account) (string, *CustomClaims, error) {
	const op = "jwt.GenerateToken"
	now := time.Now()
	claims := &CustomClaims{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.secretKey))
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, claims, nil
}

// ParseToken проверяет подпись и срок действия токена.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.AccountID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}
	return claims, nil
}
