// Package server provides the HTTP API for Karte.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/karte/internal/auth"
	"github.com/hyperjump/karte/internal/config"
	"github.com/hyperjump/karte/internal/index"
	"github.com/hyperjump/karte/internal/join"
	"github.com/hyperjump/karte/internal/search"
	"github.com/hyperjump/karte/internal/storage"
)

// Server is the HTTP server for the Karte API.
type Server struct {
	client   search.Client
	joins    *join.Engine
	resolver *index.Resolver
	storage  storage.Storage
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	client search.Client,
	joins *join.Engine,
	resolver *index.Resolver,
	storage storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		client:   client,
		joins:    joins,
		resolver: resolver,
		storage:  storage,
		config:   cfg,
		logger:   logger,
	}
}

// Handler builds the routed handler. Exposed separately from Start so tests
// can drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.Auth.Enabled {
			r.Use(auth.Middleware(s.config.Auth.Secret, s.logger))
		}

		r.Post("/query/translate", s.handleTranslate)
		r.Post("/query/validate", s.handleValidate)
		r.Post("/query/run", s.handleRun)
		r.Post("/join", s.handleJoin)

		r.Get("/queries", s.handleListSavedQueries)
		r.Get("/queries/{id}", s.handleGetSavedQuery)
		r.Get("/queries/{id}/export", s.handleExportSavedQuery)
		r.Get("/dashboards", s.handleListDashboards)
		r.Get("/dashboards/{id}", s.handleGetDashboard)
		r.Get("/dashboards/{id}/datapoints", s.handleListDatapoints)
		r.Get("/datapoints/{id}", s.handleGetDatapoint)

		r.Group(func(r chi.Router) {
			if s.config.Auth.Enabled {
				r.Use(auth.RequireEditor)
			}
			r.Post("/queries", s.handleCreateSavedQuery)
			r.Put("/queries/{id}", s.handleUpdateSavedQuery)
			r.Delete("/queries/{id}", s.handleDeleteSavedQuery)
			r.Post("/dashboards", s.handleCreateDashboard)
			r.Put("/dashboards/{id}", s.handleUpdateDashboard)
			r.Delete("/dashboards/{id}", s.handleDeleteDashboard)
			r.Post("/datapoints", s.handleCreateDatapoint)
			r.Delete("/datapoints/{id}", s.handleDeleteDatapoint)
		})
	})
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
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
