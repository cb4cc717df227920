// Package server exposes the joke operations over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// Default server settings.
const (
	DefaultHost              = "127.0.0.1"
	DefaultPort              = 3000
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
	MetricsNamespace         = "jokebox"
)

// Server is the HTTP front of the joke store.
type Server struct {
	handlers          *Handlers
	metrics           *Metrics
	metricsPath       string
	addr              string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	logger            *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Pool              *pool.Pool
	Store             *store.Store
	Host              string
	Port              int
	CollectionMode    string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	MetricsPath       string
	Logger            *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	var metrics *Metrics
	if cfg.MetricsEnabled {
		metrics = NewMetrics(MetricsNamespace, cfg.Pool)
	}

	return &Server{
		handlers:          NewHandlers(cfg.Pool, cfg.Store, metrics, cfg.CollectionMode, logger),
		metrics:           metrics,
		metricsPath:       cfg.MetricsPath,
		addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		readHeaderTimeout: cfg.ReadHeaderTimeout,
		shutdownTimeout:   cfg.ShutdownTimeout,
		logger:            logger,
	}
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Handler builds the router with middleware and all routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	SetupRoutes(r, s.handlers, s.metrics, s.metricsPath)
	return r
}

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully, letting in-flight requests finish within the shutdown timeout.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://%s", ln.Addr()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.Handler(),
		// Requests are not tied to ctx; Shutdown waits for them to finish.
		BaseContext:       func(_ net.Listener) context.Context { return context.Background() },
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
