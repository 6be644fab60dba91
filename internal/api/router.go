// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package api serves the optional operational endpoint of a run:
// Prometheus metrics, liveness, run progress and the live event feed.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/badgesim/internal/logging"
)

// StatusFunc reports the current run status as a JSON-encodable value.
type StatusFunc func() interface{}

// RouterConfig configures the router.
type RouterConfig struct {
	// Status backs /status; nil serves an empty object.
	Status StatusFunc

	// RateLimitRequests per RateLimitWindow per client IP; 0 disables limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// AllowedOrigins enables CORS for the listed browser origins.
	AllowedOrigins []string

	// EventFeed is mounted at /events when set.
	EventFeed http.Handler
}

// DefaultRouterConfig returns a permissive limit suitable for scrapers.
func DefaultRouterConfig(status StatusFunc) RouterConfig {
	return RouterConfig{
		Status:            status,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}
}

// NewRouter builds the chi router:
//
//	GET /healthz  liveness
//	GET /status   run progress
//	GET /metrics  Prometheus exposition
//	GET /events   WebSocket event feed, when configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(instrument)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if cfg.RateLimitRequests > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		var body interface{} = struct{}{}
		if cfg.Status != nil {
			body = cfg.Status()
		}
		writeJSON(w, http.StatusOK, body)
	})
	r.Handle("/metrics", promhttp.Handler())
	if cfg.EventFeed != nil {
		r.Get("/events", cfg.EventFeed.ServeHTTP)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("Failed to write response")
	}
}
