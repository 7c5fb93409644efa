package models

import "time"

// SecurityExchange запись обмена значениями rd1/rd2 для устройства.
// Значения непрозрачны для сервера и живут ограниченное время.
type SecurityExchange struct {
	AccountID        string    `json:"account_id"`
	DeviceIdentifier string    `json:"device_identifier"`
	Rd1              string    `json:"rd1"`
	Rd2              string    `json:"rd2"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
}

// ExchangeRequest запрос клиента с его значением rd1.
type ExchangeRequest struct {
	DeviceIdentifier string `json:"device_identifier" validate:"required"`
	Rd1              string `json:"rd1" validate:"required,max=1024"`
}
