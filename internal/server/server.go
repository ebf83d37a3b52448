// Package server provides the HTTP API for typegait.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/typegait/typegait/internal/biometric"
	"github.com/typegait/typegait/internal/config"
	"github.com/typegait/typegait/internal/metrics"
	"github.com/typegait/typegait/internal/storage"
)

// Server is the HTTP server for the typegait API.
type Server struct {
	engine  *biometric.Engine
	storage storage.Storage
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *biometric.Engine,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Server {
	return &Server{
		engine:  engine,
		storage: store,
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/enroll", s.handleEnroll)
	r.Post("/api/v1/identify", s.handleIdentify)
	r.Get("/api/v1/users", s.handleListUsers)
	r.Get("/api/v1/users/{id}", s.handleGetUser)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
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
