package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"assetview/internal/aggregate"
	"assetview/internal/core"
	"assetview/internal/inventory"
	applog "assetview/internal/log"
)

// OverviewService runs the retrieve-then-aggregate pipeline.
type OverviewService interface {
	Overview(ctx context.Context, f core.Filters) (aggregate.Overview, error)
}

// Options configures NewServer.
type Options struct {
	Source   inventory.Source
	Importer inventory.Importer // nil disables seeding
	Overview OverviewService
	SeedFile string
	Logger   *applog.Logger

	// RateLimitRPS <= 0 disables per-client rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	http.Server
	source   inventory.Source
	importer inventory.Importer
	overview OverviewService
	seedFile string
	logger   *applog.Logger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16, // 64KB
		},
		source:   opts.Source,
		importer: opts.Importer,
		overview: opts.Overview,
		seedFile: opts.SeedFile,
		logger:   logger.WithComponent(applog.ComponentHTTP),
	}
	if opts.RateLimitRPS > 0 {
		s.rateLimiter = newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(applog.Middleware(logger))
	r.Use(securityHeaders)
	if s.rateLimiter != nil {
		r.Use(s.rateLimiter.middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not Found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/health", handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/assets", s.handleListAssets)
		r.Get("/assets/{wid}", s.handleGetAsset)
		r.Post("/seed", s.handleSeed)
		r.Get("/overview", s.handleOverview)
	})

	s.Handler = r
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down", applog.FieldOperation, applog.OpShutdown)
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
