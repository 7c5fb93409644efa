package models

import (
	"bytes"
	"fmt"
	"time"
)

// ProductionDateLayout формат даты выпуска книги в запросах и ответах.
const ProductionDateLayout = "2006-01-02"

// Date дата без времени. В JSON записывается как 2006-01-02.
type Date struct {
	time.Time
}

// NewDate отбрасывает время суток.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(ProductionDateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(ProductionDateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("models.Date: invalid value %s", data)
	}
	t, err := time.Parse(ProductionDateLayout, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("models.Date: %w", err)
	}
	d.Time = t
	return nil
}

// Book запись каталога.
// OriginalFile хранит ключ объекта в хранилище с оригинальным текстом книги.
type Book struct {
	ID             int       `json:"id"`
	Identifier     string    `json:"identifier"`
	Name           string    `json:"name"`
	Author         string    `json:"author"`
	ProductionDate Date      `json:"production_date"`
	OriginalFile   string    `json:"original_file"`
	CreatedAt      time.Time `json:"created_at"`
}

// BookRequest используется для приёма данных книги из JSON или multipart-формы.
// Дата выпуска приходит строкой в формате 2006-01-02.
type BookRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	Author         string `json:"author" validate:"required,max=255"`
	ProductionDate string `json:"production_date" validate:"required"`
	OriginalFile   string `json:"original_file"`
}

// BookContent содержимое книги, выдаваемое владельцу заказа.
type BookContent struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Author     string `json:"author"`
	Content    string `json:"content"`
}
