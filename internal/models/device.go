package models

import "time"

// Device клиентское устройство пользователя.
type Device struct {
	ID               int       `json:"id"`
	AccountID        string    `json:"account_id"`
	UniqueIdentifier string    `json:"unique_identifier"`
	CPUModel         string    `json:"cpu_model"`
	OpSystem         string    `json:"op_system"`
	IPAddress        string    `json:"ip_address"`
	CreatedAt        time.Time `json:"created_at"`
}

// DeviceRequest запрос на регистрацию устройства.
type DeviceRequest struct {
	UniqueIdentifier string `json:"unique_identifier" validate:"required,max=255"`
	CPUModel         string `json:"cpu_model" validate:"max=255"`
	OpSystem         string `json:"op_system" validate:"max=255"`
}
