// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/detection"
	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/metrics"
	"github.com/tomtom215/badgesim/internal/simulation"
	"github.com/tomtom215/badgesim/internal/sink"
	"github.com/tomtom215/badgesim/internal/websocket"
)

func runGenerate(args []string, stdout, stderr io.Writer) error {
	opts, err := parseGenerateFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithKoanf(config.LoadOptions{
		Path:      opts.configPath,
		Overrides: opts.overrides,
	})
	if err != nil {
		return err
	}
	initLogging(cfg, &opts.commonOptions, stderr)

	if opts.printConfig {
		data, err := cfg.JSON()
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = fmt.Fprintf(stdout, "%s\n", data)
		return err
	}

	seed, generated, err := simulation.ResolveSeed(cfg.Seed)
	if err != nil {
		return err
	}
	if opts.dryRun {
		return simulation.WriteDryRun(stdout, cfg, seed, generated)
	}

	for _, warning := range cfg.Warnings() {
		logging.Warn().Msg(warning)
	}
	if generated {
		logging.Warn().Uint64("seed", seed).Msg("No seed configured, generated one; pass --seed to reproduce this run")
	} else {
		logging.Info().Uint64("seed", seed).Msg("Using configured seed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.SetAppInfo(version, runtime.Version())

	sim, err := simulation.New(cfg, seed)
	if err != nil {
		return err
	}

	hub := newEventFeed(cfg)
	job := func(ctx context.Context) error {
		return generate(ctx, cfg, sim, hub, stdout, stderr)
	}
	status := func() interface{} { return sim.Progress() }
	return supervise(ctx, cfg, "generate", job, status, hub)
}

// generate runs the simulation into the configured sinks and writes the
// answer key, the optional in-process analysis report and the summary.
func generate(ctx context.Context, cfg *config.Config, sim *simulation.Simulator, hub *websocket.Hub, stdout, stderr io.Writer) error {
	out, collector, err := openSinks(cfg, hub, stdout)
	if err != nil {
		return err
	}

	stats, runErr := sim.Run(ctx, out)
	closeErr := out.Close()
	if runErr != nil {
		if stats != nil {
			return fmt.Errorf("generation stopped after %d events: %w", stats.Events, runErr)
		}
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}
	stats.Log()
	if hub != nil {
		hub.BroadcastJSON(websocket.MessageTypeProgress, sim.Progress())
	}

	if path := cfg.Output.UserProfilesOutput; path != "" {
		if err := sim.WriteAnswerKey(path); err != nil {
			return err
		}
		logging.Info().Str("path", path).Msg("Wrote answer key")
	}

	if collector != nil {
		if err := analyzeGenerated(ctx, cfg, sim, hub, collector.Events); err != nil {
			return err
		}
	}

	// stdout may be carrying the event stream.
	summary := stdout
	if cfg.Output.Path == sink.StdoutPath {
		summary = stderr
	}
	return stats.WriteSummary(summary)
}

// analyzeGenerated runs the detectors over the stream just produced and
// scores them against the run's own answer key. Flagged users are sent to
// the event feed as alerts when hub is not nil.
func analyzeGenerated(ctx context.Context, cfg *config.Config, sim *simulation.Simulator, hub *websocket.Hub, evs []events.Event) error {
	engine, err := detection.NewEngine(simulation.DetectionConfig(cfg), sim.Facility())
	if err != nil {
		return err
	}
	report, err := engine.Analyze(ctx, evs)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	report.Evaluation = detection.Evaluate(report, sim.Population().AnswerKey(), detection.EvaluateOptions{
		Start:     cfg.StartTime(),
		RoomTypes: sim.Facility().RoomTypes(),
	})
	if err := report.WriteFile(cfg.Output.AnalyzeReport); err != nil {
		return err
	}
	if hub != nil {
		logging.Debug().Int("alerts", websocket.PublishAlerts(hub, report)).Msg("Published detection alerts")
	}
	logging.Info().
		Str("path", cfg.Output.AnalyzeReport).
		Int("suspected_clones", len(report.SuspectedCloneSet())).
		Int("curious_users", len(report.CuriousSet())).
		Msg("Wrote analysis report")
	return nil
}

func initLogging(cfg *config.Config, opts *commonOptions, stderr io.Writer) {
	logging.Init(logging.Config{
		Level:  logging.LevelForFlags(cfg.Logging.Level, opts.verbose, opts.debug),
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: stderr,
	})
}
