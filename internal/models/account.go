// Package models содержит доменные структуры учётных записей, каталога книг,
// заказов, устройств, обмена rd1/rd2 и пользовательских файлов,
// а также структуры для приёма данных из JSON-запросов.
package models

import "time"

const (
	// RoleAdmin роль администратора каталога.
	RoleAdmin = "admin"
	// RoleUser роль обычного пользователя.
	RoleUser = "user"
)

// Account представляет учётную запись пользователя.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin сообщает, обладает ли учётная запись правами администратора.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// AccountRequest используется при регистрации новой учётной записи.
type AccountRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,min=3,max=50"`
	FirstName       string `json:"first_name" validate:"max=50"`
	LastName        string `json:"last_name" validate:"max=50"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// AccountUpdateRequest используется при изменении профиля учётной записи.
type AccountUpdateRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=50"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
}

// ChangePasswordRequest запрос на смену пароля.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// LoginRequest учётные данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Actor описывает пользователя, от имени которого выполняется запрос.
type Actor struct {
	AccountID string
	Username  string
	Role      string
}

// IsAdmin сообщает, является ли пользователь администратором.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess сообщает, может ли пользователь работать с ресурсом указанного владельца.
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin() || a.AccountID == ownerID
}
