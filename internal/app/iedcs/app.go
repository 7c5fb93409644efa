package iedcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/iedcs-server/internal/cache"
	"github.com/magabrotheeeer/iedcs-server/internal/config"
	"github.com/magabrotheeeer/iedcs-server/internal/events"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/health"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/spa"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/jwt"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
	"github.com/magabrotheeeer/iedcs-server/internal/migrations"
	"github.com/magabrotheeeer/iedcs-server/internal/objectstore"
	accountservice "github.com/magabrotheeeer/iedcs-server/internal/services/account"
	authservice "github.com/magabrotheeeer/iedcs-server/internal/services/auth"
	bookservice "github.com/magabrotheeeer/iedcs-server/internal/services/book"
	deviceservice "github.com/magabrotheeeer/iedcs-server/internal/services/device"
	exchangeservice "github.com/magabrotheeeer/iedcs-server/internal/services/exchange"
	orderservice "github.com/magabrotheeeer/iedcs-server/internal/services/order"
	fileservice "github.com/magabrotheeeer/iedcs-server/internal/services/userfile"
	"github.com/magabrotheeeer/iedcs-server/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	publisher io.Closer
}

// New поднимает зависимости в порядке: postgres, миграции, redis, s3, rabbitmq.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "iedcs.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	objects, err := objectstore.New(ctx, cfg.ObjectStorage)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = objects.EnsureBucket(ctx); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = amqpPublisher
		publisher = amqpPublisher
	} else {
		logger.Warn("rabbitmq url is empty, domain events are not published")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	books, err := bookservice.NewBookService(db, app.cache, objects, cfg.BookCacheSize, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	services := Services{
		Auth:     authservice.NewAuthService(db, jwtMaker, app.cache, logger),
		Accounts: accountservice.NewAccountService(db, objects, publisher, logger),
		Books:    books,
		Orders:   orderservice.NewOrderService(db, publisher, logger),
		Devices:  deviceservice.NewDeviceService(db, publisher, logger),
		Exchange: exchangeservice.NewExchangeService(db, app.cache, cfg.Exchange.TTL, logger),
		Files:    fileservice.NewFileService(db, objects, logger),
	}

	if err = services.Accounts.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	shell, err := spa.New(logger, cfg.SPATemplatePath, APIBase)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RPS:            cfg.RPS,
		Burst:          cfg.Burst,
		Health: map[string]health.Check{
			"postgres": db.DB.PingContext,
			"redis": func(ctx context.Context) error {
				return app.cache.Db.Ping(ctx).Err()
			},
		},
		SPA: shell,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq publisher", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close postgres", sl.Err(err))
		}
	}
}
