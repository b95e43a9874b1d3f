// Package server exposes the local status and diagnostics HTTP
// surface: health, version, per-stream statistics and optional debug
// endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Import for side effects (registers pprof handlers)
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/stillkeep/internal/config"
	"github.com/zsiec/stillkeep/internal/errors"
	"github.com/zsiec/stillkeep/internal/health"
	"github.com/zsiec/stillkeep/internal/logger"
	"github.com/zsiec/stillkeep/internal/pipeline"
)

// StatsProvider reports statistics for the streams the process is
// handling.
type StatsProvider interface {
	StreamStats() []pipeline.Stats
}

// Server represents the status HTTP server.
type Server struct {
	config       *config.ServerConfig
	router       *mux.Router
	httpServer   *http.Server
	logger       *logrus.Logger
	healthMgr    *health.Manager
	errorHandler *errors.ErrorHandler
	stats        StatsProvider
}

// New creates a new server instance.
func New(cfg *config.ServerConfig, log *logrus.Logger, healthMgr *health.Manager, stats StatsProvider) *Server {
	s := &Server{
		config:       cfg,
		router:       mux.NewRouter(),
		logger:       log,
		healthMgr:    healthMgr,
		errorHandler: errors.NewErrorHandler(log),
		stats:        stats,
	}

	s.setupRoutes()

	return s
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go s.healthMgr.StartPeriodicChecks(ctx, 30*time.Second)

	s.logger.WithField("port", s.config.Port).Info("Starting status server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("status server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down status server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown status server: %w", err)
	}

	s.logger.Info("Status server shutdown complete")
	return nil
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.errorHandler.Middleware)
	s.router.Use(s.metricsMiddleware)

	healthHandler := health.NewHandler(s.healthMgr)
	s.router.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET")
	s.router.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET")
	s.router.HandleFunc("/live", healthHandler.HandleLive).Methods("GET")

	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/streams", s.handleStreams).Methods("GET")
	api.HandleFunc("/streams/{id}", s.handleStream).Methods("GET")

	if s.config.DebugEndpoints {
		s.setupDebugEndpoints()
	}

	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}

// setupDebugEndpoints registers debug endpoints like pprof
func (s *Server) setupDebugEndpoints() {
	s.logger.Info("Enabling debug endpoints")

	// pprof endpoints are registered at /debug/pprof/ by importing
	// net/http/pprof; route them through the mux router.
	s.router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}
