package models

import "time"

// Order связывает учётную запись с одной или несколькими книгами.
type Order struct {
	ID              int       `json:"id"`
	AccountID       string    `json:"account_id"`
	BooksIdentifier []string  `json:"books_identifier"`
	CreatedAt       time.Time `json:"created_at"`
}

// OrderRequest запрос на создание заказа.
type OrderRequest struct {
	BooksIdentifier []string `json:"books_identifier" validate:"required,min=1,dive,required"`
}
