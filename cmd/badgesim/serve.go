// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/badgesim/internal/api"
	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/supervisor"
	"github.com/tomtom215/badgesim/internal/supervisor/services"
	"github.com/tomtom215/badgesim/internal/websocket"
)

const readHeaderTimeout = 5 * time.Second

// newEventFeed returns the feed hub when the event feed is enabled and has
// an endpoint to be served on.
func newEventFeed(cfg *config.Config) *websocket.Hub {
	if !cfg.Metrics.EventFeed || cfg.Metrics.Addr == "" {
		return nil
	}
	return websocket.NewHub()
}

// supervise runs job under the supervisor tree, next to the metrics
// endpoint when an address is configured, and returns the job's result.
// hub may be nil.
func supervise(ctx context.Context, cfg *config.Config, name string, job services.Job, status api.StatusFunc, hub *websocket.Hub) error {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc := services.NewJobService(name, job, cancel)
	tree.AddJob(svc)

	if addr := cfg.Metrics.Addr; addr != "" {
		routerCfg := api.DefaultRouterConfig(status)
		routerCfg.AllowedOrigins = cfg.Metrics.AllowedOrigins
		if hub != nil {
			tree.AddEndpoint(services.NewEventFeedService(hub))
			routerCfg.EventFeed = websocket.Handler(hub, cfg.Metrics.AllowedOrigins)
		}
		server := &http.Server{
			Handler:           api.NewRouter(routerCfg),
			ReadHeaderTimeout: readHeaderTimeout,
		}
		tree.AddEndpoint(services.NewEndpointService(addr, server, cfg.Supervisor.HTTPShutdownTimeout))
		logging.Info().Str("addr", addr).Bool("event_feed", hub != nil).Msg("Serving metrics, health and status")
	}

	return tree.Run(ctx, svc)
}
