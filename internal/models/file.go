package models

import "time"

// UserFile метаданные файла, загруженного пользователем.
type UserFile struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	ObjectKey   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
