// Package api exposes the prediction service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-ai/internal/health"
	"github.com/yourusername/taixiu-ai/internal/logger"
	"github.com/yourusername/taixiu-ai/internal/metrics"
	"github.com/yourusername/taixiu-ai/internal/models"
)

// Predictor runs one prediction round.
type Predictor interface {
	Predict(ctx context.Context) (*models.PredictionReport, error)
}

// HistoryReader exposes the current rolling history.
type HistoryReader interface {
	Snapshot() models.HistorySnapshot
}

// ReportLookup finds a previously issued report by the session it forecasts.
type ReportLookup interface {
	Get(nextSession int64) (*models.PredictionReport, bool)
}

// Config controls the inbound surface.
type Config struct {
	Name           string
	Version        string
	APIKey         string
	MetricsEnabled bool
	MetricsPath    string
}

// Dependencies are the collaborators behind the routes. Reports, Stream and
// Health are optional.
type Dependencies struct {
	Predictor Predictor
	History   HistoryReader
	Reports   ReportLookup
	Stream    http.Handler
	Health    *health.Server
	Logger    logrus.FieldLogger
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config, deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	h := &handlers{
		name:      cfg.Name,
		version:   cfg.Version,
		predictor: deps.Predictor,
		history:   deps.History,
		reports:   deps.Reports,
		logger:    deps.Logger.WithField("component", "api"),
	}

	exempt := map[string]bool{"/health": true, "/live": true, "/ready": true}
	if cfg.MetricsEnabled {
		exempt[cfg.MetricsPath] = true
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(logger.NewAccessLogger(deps.Logger)))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors)
	r.Use(requireAPIKey(cfg.APIKey, exempt))

	if deps.Health != nil {
		r.Get("/health", deps.Health.HandleHealth)
		r.Get("/live", deps.Health.HandleLive)
		r.Get("/ready", deps.Health.HandleReady)
	}
	if cfg.MetricsEnabled {
		r.Handle(cfg.MetricsPath, metrics.Handler())
	}

	r.Get("/", h.root)
	r.Route("/api/taixiu", func(r chi.Router) {
		r.Get("/predict", h.predict)
		r.Get("/history", h.historySnapshot)
		r.Get("/predictions/{nextSession}", h.issuedReport)
		if deps.Stream != nil {
			r.Handle("/stream", deps.Stream)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}
