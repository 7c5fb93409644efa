// Package iedcs собирает HTTP-приложение сервера: зависимости, маршруты и жизненный цикл.
package iedcs

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/iedcs-server/docs"

	accountcreate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/account/create"
	accountlist "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/account/list"
	accountread "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/account/read"
	accountremove "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/account/remove"
	accountupdate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/account/update"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/auth/changepassword"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/book/content"
	bookcreate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/book/create"
	booklist "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/book/list"
	bookread "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/book/read"
	bookremove "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/book/remove"
	bookupdate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/book/update"
	devicecreate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/device/create"
	devicelist "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/device/list"
	deviceread "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/device/read"
	deviceremove "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/device/remove"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/device/retrieve"
	exchangecreate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/exchange/create"
	exchangeread "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/exchange/read"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/file/download"
	filelist "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/file/list"
	fileread "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/file/read"
	fileremove "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/file/remove"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/file/upload"
	"github.com/magabrotheeeer/iedcs-server/internal/http/handlers/health"
	ordercreate "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/order/create"
	orderlist "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/order/list"
	orderread "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/order/read"
	orderremove "github.com/magabrotheeeer/iedcs-server/internal/http/handlers/order/remove"
	"github.com/magabrotheeeer/iedcs-server/internal/http/middlewarectx"
	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	accountservice "github.com/magabrotheeeer/iedcs-server/internal/services/account"
	authservice "github.com/magabrotheeeer/iedcs-server/internal/services/auth"
	bookservice "github.com/magabrotheeeer/iedcs-server/internal/services/book"
	deviceservice "github.com/magabrotheeeer/iedcs-server/internal/services/device"
	exchangeservice "github.com/magabrotheeeer/iedcs-server/internal/services/exchange"
	orderservice "github.com/magabrotheeeer/iedcs-server/internal/services/order"
	fileservice "github.com/magabrotheeeer/iedcs-server/internal/services/userfile"
)

// APIBase префикс REST API.
const APIBase = "/api/v1"

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth     *authservice.AuthService
	Accounts *accountservice.AccountService
	Books    *bookservice.BookService
	Orders   *orderservice.OrderService
	Devices  *deviceservice.DeviceService
	Exchange *exchangeservice.ExchangeService
	Files    *fileservice.FileService
}

// RouterOptions параметры маршрутизатора, не связанные с сервисами.
type RouterOptions struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
	Health         map[string]health.Check
	// SPA обслуживает все пути, для которых нет маршрута.
	SPA http.Handler
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, opts RouterOptions) {
	// до Use, иначе chi повторно оборачивает обработчик глобальными middleware
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("method not allowed"))
	})

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.MetricsMiddleware,
		cors.New(corsOptions(opts.AllowedOrigins)).Handler,
		middleware.StripSlashes,
	)

	// один лимитер на все точки входа
	loginLimit := middlewarectx.RateLimitMiddleware(logger, opts.RPS, opts.Burst)
	loginHandler := login.New(logger, svc.Auth).ServeHTTP
	logoutHandler := logout.New(logger, svc.Auth).ServeHTTP

	r.Route(APIBase, func(r chi.Router) {
		r.NotFound(notFound)

		r.Route("/auth", func(r chi.Router) {
			r.With(loginLimit).Post("/login", loginHandler)
			r.With(middlewarectx.JWTMiddleware(svc.Auth, logger)).Post("/logout", logoutHandler)
		})

		// Регистрация открыта
		r.Post("/accounts", accountcreate.New(logger, svc.Accounts).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))

			r.Get("/me", me.New(logger, svc.Accounts).ServeHTTP)

			r.Get("/accounts", accountlist.New(logger, svc.Accounts).ServeHTTP)
			r.Get("/accounts/{id}", accountread.New(logger, svc.Accounts).ServeHTTP)
			r.Put("/accounts/{id}", accountupdate.New(logger, svc.Accounts).ServeHTTP)
			r.Patch("/accounts/{id}", accountupdate.New(logger, svc.Accounts).ServeHTTP)
			r.Delete("/accounts/{id}", accountremove.New(logger, svc.Accounts).ServeHTTP)
			r.Put("/change_password/{id}", changepassword.New(logger, svc.Auth).ServeHTTP)

			r.Get("/books", booklist.New(logger, svc.Books).ServeHTTP)
			r.Get("/books/{identifier}", bookread.New(logger, svc.Books).ServeHTTP)
			r.Get("/get_book/{identifier}", content.New(logger, svc.Books).ServeHTTP)
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Post("/books", bookcreate.New(logger, svc.Books).ServeHTTP)
				r.Put("/books/{identifier}", bookupdate.New(logger, svc.Books).ServeHTTP)
				r.Delete("/books/{identifier}", bookremove.New(logger, svc.Books).ServeHTTP)
			})

			orderRoutes(r, "/user_books", logger, svc)
			orderRoutes(r, "/orders", logger, svc)

			r.Get("/devices", devicelist.New(logger, svc.Devices).ServeHTTP)
			r.Post("/devices", devicecreate.New(logger, svc.Devices).ServeHTTP)
			r.Get("/devices/{id}", deviceread.New(logger, svc.Devices).ServeHTTP)
			r.Delete("/devices/{id}", deviceremove.New(logger, svc.Devices).ServeHTTP)
			r.Get("/retrieveDevice/{unique_identifier}", retrieve.New(logger, svc.Devices).ServeHTTP)

			r.Post("/security_exchange_r1r2", exchangecreate.New(logger, svc.Exchange).ServeHTTP)
			r.Get("/security_exchange_r1r2/{unique_identifier}", exchangeread.New(logger, svc.Exchange).ServeHTTP)

			r.Get("/files/user", filelist.New(logger, svc.Files).ServeHTTP)
			r.Post("/files/user", upload.New(logger, svc.Files).ServeHTTP)
			r.Get("/files/user/{id}", fileread.New(logger, svc.Files).ServeHTTP)
			r.Get("/files/user/{id}/download", download.New(logger, svc.Files).ServeHTTP)
			r.Delete("/files/user/{id}", fileremove.New(logger, svc.Files).ServeHTTP)
		})
	})

	// вход и выход браузерного клиента
	r.Route("/api-auth", func(r chi.Router) {
		r.NotFound(notFound)
		r.With(loginLimit).Post("/login", loginHandler)
		r.With(middlewarectx.JWTMiddleware(svc.Auth, logger)).Post("/logout", logoutHandler)
	})

	r.Get("/health", health.New(logger, opts.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)

	if opts.SPA != nil {
		r.Get("/*", opts.SPA.ServeHTTP)
		r.Head("/*", opts.SPA.ServeHTTP)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, response.Error("not found"))
}

// corsOptions с "*" в списке источников куки и Authorization кросс-доменно не передаются.
// Пустой список запрещает кросс-доменные запросы.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: !slices.Contains(origins, "*"),
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return opts
}

// orderRoutes заказы; /orders повторяет /user_books.
func orderRoutes(r chi.Router, prefix string, logger *slog.Logger, svc Services) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", orderlist.New(logger, svc.Orders).ServeHTTP)
		r.Post("/", ordercreate.New(logger, svc.Orders).ServeHTTP)
		r.Get("/{id}", orderread.New(logger, svc.Orders).ServeHTTP)
		r.Delete("/{id}", orderremove.New(logger, svc.Orders).ServeHTTP)
	})
}
