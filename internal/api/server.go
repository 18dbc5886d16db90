package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/ryanbastic/gymdesk/internal/desk"
	"github.com/ryanbastic/gymdesk/internal/metrics"
)

// Deps are the collaborators the admin API serves.
type Deps struct {
	Customers *desk.CustomerBoard
	Trainings *desk.TrainingBoard
	// Backends are pinged by the readiness probe.
	Backends map[string]Pinger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(logger *slog.Logger, deps Deps) http.Handler {
	mux := chi.NewRouter()

	mux.Use(RequestID)
	mux.Use(Logging(logger))
	mux.Use(Recovery(logger))
	mux.Use(metrics.Middleware)

	config := huma.DefaultConfig("gymdesk", "1.0.0")
	config.Info.Description = "Admin desk over the gym customer and training API."
	api := humachi.New(mux, config)

	registerCustomerRoutes(api, NewCustomerHandler(deps.Customers, deps.Trainings, logger))
	registerEditRoutes(api, NewEditHandler(deps.Customers, deps.Trainings, logger))
	registerTrainingRoutes(api, NewTrainingHandler(deps.Trainings, logger))

	health := NewHealthHandler(deps.Backends, logger)
	mux.Get("/v1/livez", health.Livez)
	mux.Get("/v1/readyz", health.Readyz)
	mux.Handle("/metrics", metrics.Handler())

	return mux
}
