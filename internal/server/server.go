// Package server hosts the HTTP API: execution submission and
// lifecycle routes under /v1, plus health and version endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/3leaps/nbrun/internal/config"
	"github.com/3leaps/nbrun/internal/observability"
	"github.com/3leaps/nbrun/internal/server/handlers"
	"github.com/3leaps/nbrun/internal/server/middleware"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	host    string
	port    int
	svc     handlers.ExecutionService
	httpSrv *http.Server
}

// New creates a server for the given bind address and execution service.
func New(host string, port int, svc handlers.ExecutionService) *Server {
	return &Server{host: host, port: port, svc: svc}
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.port
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, req, http.StatusNotFound,
			"NOT_FOUND", "resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteError(w, req, http.StatusMethodNotAllowed,
			"METHOD_NOT_ALLOWED", "method not allowed for this resource", nil)
	})

	hm := handlers.GetHealthManager()
	if hm == nil {
		hm = handlers.InitHealthManager(Version)
	}
	r.Get("/health", hm.HealthHandler)
	r.Get("/health/live", hm.LivenessHandler)
	r.Get("/health/ready", hm.ReadinessHandler)

	r.Get("/version", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": Version})
	})

	exec := handlers.NewExecutionHandler(s.svc)
	r.Route("/v1/executions", func(r chi.Router) {
		r.Post("/", exec.Submit)
		r.Get("/", exec.List)
		r.Get("/{name}", exec.Get)
		r.Delete("/{name}", exec.Stop)
	})

	return r
}

// Run serves until the context is canceled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		observability.ServerLogger.Info("HTTP server listening",
			zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	observability.ServerLogger.Info("Shutting down HTTP server")
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-errCh
}
