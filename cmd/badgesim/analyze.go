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
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/detection"
	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/metrics"
	"github.com/tomtom215/badgesim/internal/population"
	"github.com/tomtom215/badgesim/internal/simulation"
)

// analyzeStatus is served on /status during an analysis.
type analyzeStatus struct {
	Phase  string `json:"phase"`
	Events int64  `json:"events"`
}

func runAnalyze(args []string, stdout, stderr io.Writer) error {
	opts, err := parseAnalyzeFlags(args, stderr)
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.SetAppInfo(version, runtime.Version())

	var phase atomic.Value
	var loaded atomic.Int64
	phase.Store("reading")

	job := func(ctx context.Context) error {
		err := analyze(ctx, cfg, opts, stdout, func(p string, n int) {
			phase.Store(p)
			loaded.Store(int64(n))
		})
		if err != nil {
			phase.Store("failed")
		}
		return err
	}
	status := func() interface{} {
		return analyzeStatus{Phase: phase.Load().(string), Events: loaded.Load()}
	}
	return supervise(ctx, cfg, "analyze", job, status, nil)
}

// analyze reads the event file, runs every detector, optionally scores the
// result against an answer key, and writes the report.
func analyze(ctx context.Context, cfg *config.Config, opts *analyzeOptions, stdout io.Writer, progress func(string, int)) error {
	res, err := readEvents(opts.events)
	if err != nil {
		return err
	}
	if res.Malformed > 0 {
		logging.Warn().
			Int("malformed", res.Malformed).
			Err(res.FirstError).
			Msg("Skipped malformed event lines")
	}
	progress("analyzing", len(res.Events))

	// With a seed the run's facility is rebuilt and every event is checked
	// against it; otherwise the hierarchy is taken from the events.
	var index facility.Index
	var roomTypes map[string]facility.RoomType
	if cfg.Seed != 0 {
		f, err := simulation.GenerateFacility(cfg, cfg.Seed)
		if err != nil {
			return err
		}
		index = f
		roomTypes = f.RoomTypes()
		logging.Info().Uint64("seed", cfg.Seed).Int("rooms", f.RoomCount()).Msg("Rebuilt facility from seed")
	}

	engine, err := detection.NewEngine(simulation.DetectionConfig(cfg), index)
	if err != nil {
		return err
	}
	report, err := engine.Analyze(ctx, res.Events)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	report.Malformed = res.Malformed

	if opts.answerKey != "" {
		key, err := readAnswerKey(opts.answerKey)
		if err != nil {
			return err
		}
		report.Evaluation = detection.Evaluate(report, key, detection.EvaluateOptions{
			Start:     firstDay(res.Events),
			RoomTypes: roomTypes,
		})
	}

	if path := cfg.Output.AnalyzeReport; path != "" {
		if err := report.WriteFile(path); err != nil {
			return err
		}
		logging.Info().Str("path", path).Msg("Wrote analysis report")
	}
	progress("done", len(res.Events))
	return report.WriteSummary(stdout)
}

func readEvents(path string) (*events.ReadResult, error) {
	f, err := os.Open(path) //nolint:gosec // input path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	res, err := events.NewSerializer(events.Options{}).ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read events %s: %w", path, err)
	}
	return res, nil
}

func readAnswerKey(path string) ([]population.AnswerKeyEntry, error) {
	f, err := os.Open(path) //nolint:gosec // input path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("open answer key: %w", err)
	}
	defer f.Close()

	key, err := population.ReadAnswerKey(f)
	if err != nil {
		return nil, fmt.Errorf("read answer key %s: %w", path, err)
	}
	return key, nil
}

// firstDay is midnight UTC of the earliest event, which is day 0 of the run
// for a generated stream.
func firstDay(evs []events.Event) time.Time {
	var first time.Time
	for i := range evs {
		if first.IsZero() || evs[i].Timestamp.Before(first) {
			first = evs[i].Timestamp
		}
	}
	if first.IsZero() {
		return first
	}
	return first.UTC().Truncate(24 * time.Hour)
}
