// Package fixture serves a small stand-in for the GitLobster registry UI: a
// repository view with a Settings panel whose save flow raises the Agent Action
// Required modal. Behavior switches break the flow at each checkpoint.
package fixture

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed static/*.html
var staticFS embed.FS

var pages = template.Must(template.ParseFS(staticFS, "static/*.html"))

// Behavior toggles deliberate defects in the served flow.
type Behavior struct {
	OmitSettings  bool          // no Settings control on the repository view
	OmitModal     bool          // saving does not raise the Agent Action modal
	WrongCommand  bool          // modal shows a command other than "botkit repo update"
	OmitSuccess   bool          // debug execute neither closes the modal nor marks the save
	CheckmarkOnly bool          // debug execute marks the save but leaves the modal open
	LoadDelay     time.Duration // delay before package JSON is served
}

// pageConfig is handed to the page script as JSON.
type pageConfig struct {
	Package       string `json:"package"`
	Tab           string `json:"tab"`
	BasePath      string `json:"base_path"`
	OmitSettings  bool   `json:"omit_settings"`
	OmitModal     bool   `json:"omit_modal"`
	OmitSuccess   bool   `json:"omit_success"`
	CheckmarkOnly bool   `json:"checkmark_only"`
}

type repoPage struct {
	Title  string
	Config pageConfig
}

type indexPage struct {
	Packages []string
}

type server struct {
	reg      *Registry
	behavior Behavior
}

// NewServer builds the fixture HTTP handler.
func NewServer(reg *Registry, behavior Behavior) http.Handler {
	s := &server{reg: reg, behavior: behavior}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("GitLobster Fixture Registry", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/", s.handleIndex)
	router.Get("/{scope}/{name}", s.handleRepo(""))
	router.Get("/{scope}/{name}/settings", s.handleRepo("settings"))

	registerPackageHandlers(api, s)

	return router
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("view") == "repo" && q.Get("package") != "" {
		s.renderRepo(w, q.Get("package"), q.Get("tab"), "/?view=repo&package="+q.Get("package"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "index.html", indexPage{Packages: s.reg.Names()}); err != nil {
		slog.Debug("index render failed", "error", err)
	}
}

func (s *server) handleRepo(tab string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := chi.URLParam(r, "scope")
		if !strings.HasPrefix(scope, "@") {
			http.NotFound(w, r)
			return
		}
		name := scope + "/" + chi.URLParam(r, "name")
		s.renderRepo(w, name, tab, "/"+name)
	}
}

// renderRepo always serves the shell; unknown packages surface through the API.
func (s *server) renderRepo(w http.ResponseWriter, name, tab, basePath string) {
	data := repoPage{
		Title: name,
		Config: pageConfig{
			Package:       name,
			Tab:           tab,
			BasePath:      basePath,
			OmitSettings:  s.behavior.OmitSettings,
			OmitModal:     s.behavior.OmitModal,
			OmitSuccess:   s.behavior.OmitSuccess,
			CheckmarkOnly: s.behavior.CheckmarkOnly,
		},
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, "repo.html", data); err != nil {
		slog.Debug("repository page render failed", "package", name, "error", err)
	}
}

// delay waits for the configured load delay or until ctx ends.
func (s *server) delay(ctx context.Context) error {
	if s.behavior.LoadDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.behavior.LoadDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, ErrNothingPending):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, ErrInvalidName):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
