// Package spa отдаёт оболочку одностраничного клиента для всех путей вне /api/.
// Маршрутизацию внутри приложения выполняет сам клиент.
package spa

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/iedcs-server/internal/http/response"
	"github.com/magabrotheeeer/iedcs-server/internal/lib/sl"
)

//go:embed index.html
var defaultShell string

// Shell данные, доступные шаблону оболочки.
type Shell struct {
	Title   string
	APIBase string
	Path    string
}

type Handler struct {
	log     *slog.Logger
	tmpl    *template.Template
	apiBase string
}

// New загружает шаблон из templatePath; пустой путь означает встроенную оболочку.
func New(log *slog.Logger, templatePath, apiBase string) (*Handler, error) {
	const op = "spa.New"

	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = template.New("index.html").Parse(defaultShell)
	} else {
		tmpl, err = template.ParseFiles(templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Handler{
		log:     log,
		tmpl:    tmpl,
		apiBase: apiBase,
	}, nil
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.spa"

	if isAPI(r.URL.Path) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("not found"))
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, response.Error("method not allowed"))
		return
	}

	var buf bytes.Buffer
	err := h.tmpl.Execute(&buf, Shell{
		Title:   "iedcs",
		APIBase: h.apiBase,
		Path:    r.URL.Path,
	})
	if err != nil {
		h.log.Error("failed to render shell",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(buf.Bytes())
	}
}
