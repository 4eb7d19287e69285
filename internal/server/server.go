// Package server exposes the scoring pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/ppiankov/jobtrust/internal/logging"
	"github.com/ppiankov/jobtrust/internal/model"
	"github.com/ppiankov/jobtrust/internal/pipeline"
	"github.com/ppiankov/jobtrust/internal/sink"
)

// shutdownTimeout bounds graceful shutdown after the serve context ends
const shutdownTimeout = 10 * time.Second

// Server routes scoring requests to a pipeline
type Server struct {
	pipeline *pipeline.Pipeline
	sink     sink.Sink
	metrics  *Metrics
	config   model.ServerConfig
	workers  int
	router   *mux.Router
	logger   *log.Logger
}

// Option customizes a server
type Option func(*Server)

// WithSink writes every scored posting to s
func WithSink(s sink.Sink) Option {
	return func(srv *Server) { srv.sink = s }
}

// WithMetrics replaces the server's metrics
func WithMetrics(m *Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// New creates a server around p
func New(p *pipeline.Pipeline, cfg *model.Config, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		sink:     sink.Discard{},
		config:   cfg.Server,
		workers:  cfg.Concurrency.Workers,
		logger:   logging.WithPrefix("server"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.config.MaxBodyBytes <= 0 {
		s.config.MaxBodyBytes = 1 << 20
	}
	if s.config.MaxBatchSize <= 0 {
		s.config.MaxBatchSize = 500
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/api/v1/health", s.Health).Methods(http.MethodGet)

	// Scoring endpoints
	router.HandleFunc("/api/v1/score", s.Score).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/score/batch", s.ScoreBatch).Methods(http.MethodPost)

	// Catalog endpoints
	router.HandleFunc("/api/v1/rules", s.Rules).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/capabilities", s.Capabilities).Methods(http.MethodGet)

	// Metrics endpoint
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Middleware
	router.Use(requestIDMiddleware)
	router.Use(s.loggingMiddleware)

	return router
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
