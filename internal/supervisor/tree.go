// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/supervisor/services"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of endpoint failures before backoff.
	FailureThreshold float64
	// FailureDecay is the rate at which failures decay in seconds.
	FailureDecay float64
	// FailureBackoff is how long a failing layer waits before restarting.
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the built-in tree settings.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// TreeConfigFrom maps the supervisor section of the configuration.
func TreeConfigFrom(cfg config.SupervisorConfig) TreeConfig {
	c := DefaultTreeConfig()
	c.FailureThreshold = cfg.FailureThreshold
	c.FailureBackoff = cfg.FailureBackoff
	c.ShutdownTimeout = cfg.ShutdownTimeout
	return c
}

// SupervisorTree runs one badgesim job next to its endpoints. The job layer
// holds the generate or analyze run and never restarts it; the endpoint
// layer holds the HTTP server and the event feed and restarts them on
// failure until the job is done.
type SupervisorTree struct {
	root      *suture.Supervisor
	jobs      *suture.Supervisor
	endpoints *suture.Supervisor
	logger    *slog.Logger
	config    TreeConfig
}

// NewSupervisorTree creates a supervisor tree, applying defaults for zero
// config values.
func NewSupervisorTree(logger *slog.Logger, cfg TreeConfig) (*SupervisorTree, error) {
	defaults := DefaultTreeConfig()
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = defaults.FailureDecay
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = defaults.FailureBackoff
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.FailureThreshold < 0 || cfg.FailureBackoff < 0 || cfg.ShutdownTimeout < 0 {
		return nil, fmt.Errorf("supervisor: negative setting in %+v", cfg)
	}
	if logger == nil {
		logger = slog.Default()
	}

	// MustHook has a pointer receiver.
	handler := &sutureslog.Handler{Logger: logger}
	spec := func(hook suture.EventHook) suture.Spec {
		return suture.Spec{
			EventHook:        hook,
			FailureThreshold: cfg.FailureThreshold,
			FailureDecay:     cfg.FailureDecay,
			FailureBackoff:   cfg.FailureBackoff,
			Timeout:          cfg.ShutdownTimeout,
		}
	}

	// Children inherit the hook from the root.
	root := suture.New("badgesim", spec(handler.MustHook()))
	jobs := suture.New("jobs", spec(nil))
	endpoints := suture.New("endpoints", spec(nil))
	root.Add(jobs)
	root.Add(endpoints)

	return &SupervisorTree{
		root:      root,
		jobs:      jobs,
		endpoints: endpoints,
		logger:    logger,
		config:    cfg,
	}, nil
}

// Root returns the root supervisor.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddJob adds a run to the job layer.
func (t *SupervisorTree) AddJob(job *services.JobService) suture.ServiceToken {
	return t.jobs.Add(job)
}

// AddEndpoint adds a long-running service to the endpoint layer.
func (t *SupervisorTree) AddEndpoint(svc suture.Service) suture.ServiceToken {
	return t.endpoints.Add(svc)
}

// ServeBackground runs the tree in a goroutine. The returned channel receives
// the tree's result when it stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// Run serves the tree until job returns, then stops the endpoints and
// returns the job's result. The tree is stopped when the job's onDone
// cancels ctx; a tree that ends first, for example on a signal, reports the
// job as unfinished.
func (t *SupervisorTree) Run(ctx context.Context, job *services.JobService) error {
	treeErr := <-t.ServeBackground(ctx)

	select {
	case <-job.Done():
		return job.Err()
	default:
	}
	if report, err := t.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within the shutdown timeout")
		}
	}
	return fmt.Errorf("%s did not finish: %w", job, treeErr)
}
