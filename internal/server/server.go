// Package server exposes document processing over HTTP: synchronous
// single-document runs, asynchronous batch jobs, session management, and a
// websocket channel that streams per-page progress.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/textsift/textsift/internal/config"
	"github.com/textsift/textsift/internal/engine"
	"github.com/textsift/textsift/internal/runner"
	"github.com/textsift/textsift/internal/session"
)

const shutdownGrace = 10 * time.Second

// Server holds the HTTP API state. The engine handle is owned by the
// caller; the server builds a runner around it per request so each run can
// carry its own progress observer.
type Server struct {
	engine   engine.Engine
	sessions *session.Manager
	cfg      *config.Config
	limiter  *rateLimiter
	jobs     *jobStore
}

// New wires a server around an already-constructed engine.
func New(eng engine.Engine, cfg *config.Config) (*Server, error) {
	if eng == nil {
		return nil, errors.New("server requires an engine")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	var limiter *rateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = newRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	}

	return &Server{
		engine:   eng,
		sessions: session.NewManager(cfg.OutputDir),
		cfg:      cfg,
		limiter:  limiter,
		jobs:     newJobStore(),
	}, nil
}

// newRunner builds a run pipeline around the shared engine. A nil progress
// observer is fine.
func (s *Server) newRunner(progress func(runner.PageEvent)) (*runner.Runner, error) {
	b := runner.NewBuilder().
		WithEngine(s.engine).
		WithLanguages(s.cfg.Languages...).
		WithDedupThreshold(s.cfg.Dedup.IoUThreshold).
		WithSessionBase(s.cfg.OutputDir).
		WithExportFormats(s.cfg.Run.Formats...).
		WithVisualization(s.cfg.Run.Visualize).
		WithWorkers(s.cfg.Run.Workers)
	if progress != nil {
		b = b.WithProgress(progress)
	}
	return b.Build()
}

// SetupRoutes registers all endpoints on the given mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.instrument(s.healthHandler))
	mux.HandleFunc("/process", s.instrument(s.rateLimit(s.processHandler)))
	mux.HandleFunc("/sessions", s.instrument(s.sessionsHandler))
	mux.HandleFunc("/batch", s.instrument(s.rateLimit(s.batchHandler)))
	mux.HandleFunc("/jobs/", s.instrument(s.jobHandler))
	mux.HandleFunc("/ws/process", s.processWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Run serves until the context is cancelled, then drains in-flight
// requests within the shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
