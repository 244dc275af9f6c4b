package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dgallion1/rssmd/internal/config"
	"github.com/dgallion1/rssmd/internal/pages"
	"github.com/dgallion1/rssmd/internal/version"
)

// Server is the local gateway. It hosts page controllers and exposes
// their views and events as JSON.
type Server struct {
	router   chi.Router
	env      *pages.Env
	registry *Registry
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(env *pages.Env, registry *Registry, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		env:      env,
		registry: registry,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.GatewayAPIKey, s.log))

		r.Post("/api/launch", s.handleLaunch)

		r.Post("/api/pages", s.handleOpenPage)
		r.Get("/api/pages/{pageID}", s.handleGetPage)
		r.Delete("/api/pages/{pageID}", s.handleClosePage)
		r.Post("/api/pages/{pageID}/events/{event}", s.handleEvent)
		r.Post("/api/pages/{pageID}/import", s.handleImport)

		r.Get("/api/exports/{batchID}", s.handleExportStatus)
		r.Get("/api/stats/backend", s.handleBackendStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Get(),
		"pages":   s.registry.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
