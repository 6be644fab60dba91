// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package simulation orchestrates a run: it builds the facility and the
// population from the run seed, generates each simulated day with a
// bounded worker pool, merges the user sub-streams in time order and
// hands the global stream to a sink.
package simulation

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/badgesim/internal/behavior"
	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/metrics"
	"github.com/tomtom215/badgesim/internal/population"
	"github.com/tomtom215/badgesim/internal/seeds"
	"github.com/tomtom215/badgesim/internal/sink"
	"github.com/tomtom215/badgesim/internal/timeline"
)

// Simulator holds the static world of one run. Facility and population
// are generated once in New and never change.
type Simulator struct {
	cfg        *config.Config
	seed       uint64
	workers    int
	facility   *facility.Facility
	population *population.Population
	engine     *behavior.Engine
	behaviors  []behavior.Behavior
	progress   *progress
}

// GenerateFacility rebuilds only the facility of a run. The analyzer uses it
// to validate event references against the world that produced them.
func GenerateFacility(cfg *config.Config, seed uint64) (*facility.Facility, error) {
	fp, err := FacilityParams(cfg)
	if err != nil {
		return nil, err
	}
	f, err := facility.Generate(seeds.New(seed, seeds.StreamFacility), fp)
	if err != nil {
		return nil, fmt.Errorf("generate facility: %w", err)
	}
	return f, nil
}

// New builds the facility, the population and the behavior engine for a
// validated configuration and a resolved (non-zero) seed.
func New(cfg *config.Config, seed uint64) (*Simulator, error) {
	f, err := GenerateFacility(cfg, seed)
	if err != nil {
		return nil, err
	}

	pop, err := population.Generate(seeds.New(seed, seeds.StreamPopulation), f, PopulationParams(cfg, seed))
	if err != nil {
		return nil, fmt.Errorf("generate population: %w", err)
	}

	engine, err := behavior.NewEngine(f, BehaviorSettings(cfg), seed, cfg.StartTime())
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	s := &Simulator{
		cfg:        cfg,
		seed:       seed,
		workers:    workers,
		facility:   f,
		population: pop,
		engine:     engine,
		behaviors:  make([]behavior.Behavior, len(pop.Profiles)),
		progress:   newProgress(cfg.Days),
	}
	for i, u := range pop.Profiles {
		s.behaviors[i] = engine.For(u)
	}

	counts := pop.CountByVariant()
	logging.Info().
		Uint64("seed", seed).
		Int("locations", len(f.Locations)).
		Int("buildings", f.BuildingCount()).
		Int("rooms", f.RoomCount()).
		Int("users", len(pop.Profiles)).
		Int("curious_users", counts[population.VariantCurious]).
		Int("cloned_users", counts[population.VariantCloned]).
		Msg("Simulation world generated")
	return s, nil
}

// Seed returns the run seed.
func (s *Simulator) Seed() uint64 { return s.seed }

// Facility returns the generated facility.
func (s *Simulator) Facility() *facility.Facility { return s.facility }

// Population returns the generated population.
func (s *Simulator) Population() *population.Population { return s.population }

// Engine returns the behavior engine.
func (s *Simulator) Engine() *behavior.Engine { return s.engine }

// GenerateDay produces every user's sub-streams for one day, in user
// order. Users are generated concurrently; the result does not depend on
// scheduling.
func (s *Simulator) GenerateDay(ctx context.Context, day int) ([]timeline.Stream, error) {
	results := make([][]timeline.Stream, len(s.behaviors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, b := range s.behaviors {
		g.Go(func() error {
			streams, err := b.Day(gctx, day)
			if err != nil {
				return fmt.Errorf("user %s day %d: %w", s.population.Profiles[i].ID, day, err)
			}
			results[i] = streams
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	out := make([]timeline.Stream, 0, total)
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// Run generates every day in order and writes the merged stream to out.
// It does not close out. On error the output written so far is
// incomplete.
func (s *Simulator) Run(ctx context.Context, out sink.Sink) (stats *Stats, err error) {
	stats = s.newStats()
	merger := timeline.NewMerger()

	s.progress.phase.Store(PhaseGenerating)
	defer func() {
		if err != nil {
			s.progress.phase.Store(PhaseFailed)
		} else {
			s.progress.phase.Store(PhaseDone)
		}
	}()

	for day := 0; day < s.cfg.Days; day++ {
		started := time.Now()
		streams, err := s.GenerateDay(ctx, day)
		if err != nil {
			return stats, err
		}
		for i := range streams {
			if streams[i].Ordinal > 0 && len(streams[i].Events) > 0 {
				stats.CloneUserDays++
			}
		}
		merged, err := merger.MergeDay(streams)
		if err != nil {
			return stats, fmt.Errorf("merge day %d: %w", day, err)
		}
		metrics.RecordDayGenerated(time.Since(started))

		for i := range merged {
			if err := out.Write(ctx, merged[i]); err != nil {
				return stats, fmt.Errorf("write event: %w", err)
			}
			stats.add(&merged[i])
			metrics.RecordEvent(merged[i].Success)
			s.progress.events.Add(1)
			s.progress.simulated.Store(merged[i].Timestamp.UnixMilli())
		}
		stats.Days++
		s.progress.completed.Add(1)

		logging.Debug().
			Int("day", day).
			Str("date", s.engine.Midnight(day).Format(config.StartDateLayout)).
			Int("events", len(merged)).
			Dur("elapsed", time.Since(started)).
			Msg("Simulated day complete")
	}
	return stats, nil
}

// WriteAnswerKey writes the population's ground truth to path.
func (s *Simulator) WriteAnswerKey(path string) (err error) {
	f, err := os.Create(path) //nolint:gosec // output path is operator supplied
	if err != nil {
		return fmt.Errorf("create answer key %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close answer key: %w", cerr)
		}
	}()
	return population.WriteAnswerKey(f, s.population.AnswerKey())
}
