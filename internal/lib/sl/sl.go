// Package sl содержит вспомогательные атрибуты для slog.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки.
//
//	log.Error("failed to create order", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
