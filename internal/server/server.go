// Package server provides the ambient HTTP server setup for scoutd: a
// health endpoint and a Prometheus metrics endpoint, nothing else — the
// notebook-facing surface is driven by the Supervisor and agents directly,
// not by REST handlers.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kestrelresearch/scout/internal/api"
	"github.com/kestrelresearch/scout/internal/config"
	"github.com/kestrelresearch/scout/internal/external"
	"github.com/kestrelresearch/scout/internal/gatherer"
	"github.com/kestrelresearch/scout/internal/middleware"
	"github.com/kestrelresearch/scout/internal/store"
)

// Server holds the router and its dependencies.
type Server struct {
	Router *chi.Mux
	Config *config.Config
	Logger *slog.Logger
}

// New builds a Server with health and metrics routes configured. registerer
// is the Prometheus registry metrics.New was constructed against.
func New(cfg *config.Config, db *store.DB, gatherers *gatherer.Registry, notifier external.Notifier, registerer prometheus.Gatherer, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))

	healthHandler := api.NewHealthHandler(db, gatherers, notifier)

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", promhttp.HandlerFor(registerer, promhttp.HandlerOpts{}))

	return &Server{Router: r, Config: cfg, Logger: logger}
}
