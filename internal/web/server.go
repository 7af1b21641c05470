// Package web exposes validation and saving over a JSON HTTP API.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dexit/ACRUD/internal/logging"
	"github.com/dexit/ACRUD/pkg/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Service is what the handlers need from the engine
type Service interface {
	Catalog(ctx context.Context) (engine.Catalog, error)
	Schema(ctx context.Context, table string) (*engine.TableSchema, error)
	Validate(ctx context.Context, table string, data engine.Record) (engine.ValidationErrors, error)
	ValidateAndSave(ctx context.Context, table string, data engine.Record) (*engine.SaveResult, error)
}

// Options tunes the server
type Options struct {
	// RateLimit is requests per second per client; zero disables limiting
	RateLimit float64
	RateBurst int
	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64
}

// DefaultOptions returns the options used by `acrud serve`
func DefaultOptions() Options {
	return Options{
		RateLimit:    10,
		RateBurst:    20,
		MaxBodyBytes: 1 << 20,
	}
}

// Server is the HTTP front end of an engine
type Server struct {
	service Service
	opts    Options
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a server over service
func NewServer(service Service, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultOptions().MaxBodyBytes
	}
	s := &Server{
		service: service,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	if s.opts.RateLimit > 0 {
		limiter := newRateLimiter(s.opts.RateLimit, s.opts.RateBurst)
		s.router.Use(limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/tables", s.handleListTables)
		r.Get("/tables/{table}", s.handleGetTable)
		r.Post("/tables/{table}/validate", s.handleValidate)
		r.Post("/tables/{table}/save", s.handleSave)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logging.FromContext(context.Background()).Info("server starting", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// requestLogger logs one line per request through slog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
