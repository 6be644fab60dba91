// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

/*
Package supervisor runs the long-lived parts of a badgesim invocation under a
suture v4 supervisor tree.

A run has one finite job (generation or analysis) and, when a metrics address
is configured, the endpoints that expose metrics, health, progress and the
event feed:

	badgesim
	├── jobs
	│   └── JobService ("generate" or "analyze")
	└── endpoints
	    ├── EndpointService (if metrics.addr is set)
	    └── EventFeedService (if metrics.event_feed is set)

The job runs exactly once. When it returns, the job service records the
result and cancels the tree, which drains the endpoint within
supervisor.http_shutdown_timeout. A crashed endpoint is restarted by its
layer without disturbing the job; the event feed hub is not restarted once
it has stopped.

Timeouts and restart backoff come from the supervisor section of the
configuration. Supervisor events are logged through sutureslog into the
zerolog-backed slog logger from the logging package.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
	    return err
	}
	ctx, cancel := context.WithCancel(ctx)
	job := services.NewJobService("generate", run, cancel)
	tree.AddJob(job)
	tree.AddEndpoint(services.NewEndpointService(cfg.Metrics.Addr, server, cfg.Supervisor.HTTPShutdownTimeout))
	return tree.Run(ctx, job)
*/
package supervisor
