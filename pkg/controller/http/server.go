package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/brave-versions/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// config holds internal HTTP server configuration
type config struct {
	addr   string
	reload bool
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithReload exposes the unauthenticated POST /reload endpoint. Off by default.
func WithReload(enabled bool) Option {
	return func(c *config) {
		c.reload = enabled
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server serving the manifest read from reader.
// The manifest is loaded once here and again on POST /reload when enabled.
func NewServer(
	ctx context.Context,
	reader interfaces.ManifestReader,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: "localhost:8080",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	handler := NewManifestHandler(reader)
	if err := handler.Reload(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to load manifest")
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handler.Health)

	// Manifest endpoints
	router.Get("/releases", handler.List)
	router.Get("/releases/{tag}", handler.Get)
	router.Get("/channels/{channel}", handler.Channel)
	if cfg.reload {
		router.Post("/reload", handler.HandleReload)
	}

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
