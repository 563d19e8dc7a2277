// Package server provides the buscador web application: HTML pages, the JSON
// API and permission enforcement over one chi route table.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/accounts"
	"github.com/hyperjump/buscador/internal/config"
	"github.com/hyperjump/buscador/internal/ingest"
	"github.com/hyperjump/buscador/internal/metrics"
	"github.com/hyperjump/buscador/internal/models"
	"github.com/hyperjump/buscador/internal/scraper"
	"github.com/hyperjump/buscador/internal/search"
	"github.com/hyperjump/buscador/internal/session"
)

// Deps are the collaborators the server routes requests to. All are required.
type Deps struct {
	Accounts *accounts.Service
	Search   *search.Client
	Pipeline *ingest.Pipeline
	Scraper  *scraper.Scraper
	Sessions *session.Manager
}

// Server is the HTTP server for buscador.
type Server struct {
	accounts *accounts.Service
	search   *search.Client
	pipeline *ingest.Pipeline
	scraper  *scraper.Scraper
	sessions *session.Manager
	config   *config.Config
	pages    *pages
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(deps Deps, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		accounts: deps.Accounts,
		search:   deps.Search,
		pipeline: deps.Pipeline,
		scraper:  deps.Scraper,
		sessions: deps.Sessions,
		config:   cfg,
		pages:    loadPages(),
		logger:   logger,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	timeout := time.Duration(s.config.Server.RequestTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Timeout(timeout))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/static/*", staticHandler())
	r.Get("/api/buscar", s.handleAPISearch)

	r.Group(func(r chi.Router) {
		r.Use(s.loadSession)

		r.Get("/", s.handleLanding)
		r.Get("/buscador", s.handleSearchPage)
		r.Get("/about", s.handleAbout)
		r.Get("/contacto", s.handleContact)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/logout", s.handleLogout)

		r.With(s.requirePage(models.PermLogin)).Get("/admin", s.handleAdmin)
		r.With(s.requirePage(models.PermAdminUsers)).Get("/admin/usuarios", s.handleUsersPage)
		r.With(s.requirePage(models.PermAdminElastic)).Get("/admin/elastic", s.handleElasticPage)
		r.Route("/admin/carga-archivos", func(r chi.Router) {
			r.Use(s.requirePage(models.PermAdminDataElastic))
			r.Get("/", s.handleUploadPage)
			r.Post("/", s.handleUpload)
		})

		r.Route("/api/usuarios", func(r chi.Router) {
			r.Use(s.requireAPI(models.PermAdminUsers))
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Put("/{usuario}", s.handleUpdateUser)
			r.Delete("/{usuario}", s.handleDeleteUser)
		})
		r.Route("/api/elastic", func(r chi.Router) {
			r.Use(s.requireAPI(models.PermAdminElastic))
			r.Get("/indices", s.handleListIndices)
			r.Post("/ejecutar", s.handleExecute)
		})
	})

	r.NotFound(s.handleNotFound)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  seconds(s.config.Server.ReadTimeoutSec, 30),
		WriteTimeout: seconds(s.config.Server.WriteTimeoutSec, 300),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

// requestLogger emits one log line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http_request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
