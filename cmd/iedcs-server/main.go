// Package main IEDCS Server API
//
// @title           IEDCS Server API
// @version         1.0
// @description     API сервера распространения электронных книг: аккаунты, каталог, заказы, устройства и обмен ключами.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/iedcs-server/internal/app/iedcs"
	"github.com/magabrotheeeer/iedcs-server/internal/config"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
)

const envLocal = "local"

var envFile = flag.String("env-file", ".env", "file with environment variables, may be absent")

func main() {
	flag.Parse()
	// .env необязателен, переменные могут прийти из окружения
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load env file", slog.String("path", *envFile), sl.Err(err))
		os.Exit(1)
	}

	cfg := config.MustLoad()
	logger := setupLogger(cfg.Env)

	logger.Info("starting iedcs-server", slog.String("env", cfg.Env))
	logger.Debug("debug messages are enabled")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := iedcs.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("iedcs-server stopped gracefully")
}

func setupLogger(env string) *slog.Logger {
	if env == envLocal {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
