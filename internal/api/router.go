// Package api exposes the recipient pipeline over HTTP.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sungwon/recipient-check/internal/auth"
	"github.com/sungwon/recipient-check/internal/pipeline"
	"github.com/sungwon/recipient-check/internal/report"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	// Verifier guards /api/v1. Nil leaves the API open.
	Verifier *auth.Verifier
	// Reports serves exported runs. Nil disables GET /api/v1/reports/{id}.
	Reports report.Store
	// Ready lists the dependencies /readyz pings.
	Ready map[string]Pinger
	Log   zerolog.Logger
}

// NewRouter creates a chi.Mux with all routes and middleware configured.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CorrelationIDMiddleware(d.Log))
	r.Use(LoggingMiddleware(d.Log))
	r.Use(RecoverMiddleware(d.Log))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(d.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if d.Verifier != nil {
			r.Use(auth.BearerAuth(d.Verifier))
		}

		r.Post("/preview", PreviewHandler(d.Orchestrator))
		r.Post("/validate", ValidateHandler(d.Orchestrator))
		r.Post("/run", RunHandler(d.Orchestrator))
		r.Get("/mode", GetModeHandler(d.Orchestrator))
		r.Put("/mode", SetModeHandler(d.Orchestrator))
		r.Get("/state", StateHandler(d.Orchestrator))

		if d.Reports != nil {
			r.Get("/reports/{id}", GetReportHandler(d.Reports))
		}
	})

	return r
}
