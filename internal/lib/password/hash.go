// Package password хеширует и проверяет пароли аккаунтов через bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch пароль не соответствует хешу
var ErrMismatch = errors.New("password mismatch")

// GetHash возвращает bcrypt-хеш пароля для хранения в accounts.password_hash.
// Хеш совместим с crypt(gen_salt('bf')) из pgcrypto, которым заведен admin.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash возвращает nil при совпадении и ErrMismatch, если пароль неверный.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
