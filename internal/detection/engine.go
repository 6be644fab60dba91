// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/metrics"
)

// Detector is one analysis pass over the prepared input. Each detector
// writes only its own section of the report.
type Detector interface {
	Name() DetectorName
	Detect(ctx context.Context, in *Input, report *Report) (findings int, err error)
}

// UserEvents is the resolved, time-ordered event list of one user.
type UserEvents struct {
	UserID string
	Events []events.Event
}

// Input is the read-only view every detector consumes.
type Input struct {
	// Users are sorted by user id.
	Users []UserEvents
	// Days is the number of distinct UTC calendar days in the stream.
	Days int
	// Events counts resolved events.
	Events  int
	Skipped int
}

// Engine runs the detectors concurrently over one event stream.
type Engine struct {
	config    Config
	index     facility.Index
	detectors []Detector
}

// NewEngine creates an engine with the three built-in detectors. When
// index is nil the rooms are resolved from the stream itself: the first
// reference seen for a room wins.
func NewEngine(cfg Config, index facility.Index) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	return &Engine{
		config: cfg,
		index:  index,
		detectors: []Detector{
			NewImpossibleTravelDetector(cfg.Travel),
			NewCuriousUserDetector(cfg),
			NewRoomClassifier(cfg.MaxDwell, cfg.Rooms),
		},
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Analyze prepares the events and runs every detector.
func (e *Engine) Analyze(ctx context.Context, evs []events.Event) (*Report, error) {
	in := Prepare(evs, e.index)
	if in.Skipped > 0 {
		logging.Warn().
			Int("skipped", in.Skipped).
			Int("events", len(evs)).
			Msg("Skipped events referencing unknown or inconsistent entities")
	}

	report := &Report{
		Events:    in.Events,
		Users:     len(in.Users),
		Days:      in.Days,
		Skipped:   in.Skipped,
		Durations: make(map[string]int64, len(e.detectors)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range e.detectors {
		g.Go(func() error {
			start := time.Now()
			findings, err := d.Detect(gctx, in, report)
			if err != nil {
				return fmt.Errorf("%s: %w", d.Name(), err)
			}
			elapsed := time.Since(start)
			metrics.RecordDetection(string(d.Name()), findings, in.Skipped, elapsed)

			mu.Lock()
			report.Durations[string(d.Name())] = elapsed.Milliseconds()
			mu.Unlock()

			logging.Debug().
				Str("detector", string(d.Name())).
				Int("findings", findings).
				Dur("elapsed", elapsed).
				Msg("Detector complete")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// Prepare resolves every event against the index, drops the ones that do
// not resolve consistently and groups the rest by user in time order.
func Prepare(evs []events.Event, index facility.Index) *Input {
	if index == nil {
		index = indexFromEvents(evs)
	}

	in := &Input{}
	byUser := make(map[string]int)
	days := make(map[string]struct{})
	for i := range evs {
		e := &evs[i]
		if e.Validate() != nil {
			in.Skipped++
			continue
		}
		ref, ok := index.Resolve(e.RoomID)
		if !ok || ref != e.Ref() {
			in.Skipped++
			continue
		}
		idx, ok := byUser[e.UserID]
		if !ok {
			idx = len(in.Users)
			byUser[e.UserID] = idx
			in.Users = append(in.Users, UserEvents{UserID: e.UserID})
		}
		in.Users[idx].Events = append(in.Users[idx].Events, *e)
		days[dayOf(e.Timestamp)] = struct{}{}
		in.Events++
	}

	sort.Slice(in.Users, func(i, j int) bool { return in.Users[i].UserID < in.Users[j].UserID })
	for i := range in.Users {
		list := in.Users[i].Events
		sort.SliceStable(list, func(a, b int) bool { return list[a].Timestamp.Before(list[b].Timestamp) })
	}
	in.Days = len(days)
	return in
}

func indexFromEvents(evs []events.Event) *facility.EventIndex {
	x := facility.NewEventIndex()
	for i := range evs {
		x.Observe(evs[i].Ref())
	}
	return x
}

func dayOf(ts time.Time) string {
	return ts.UTC().Format(DayLayout)
}

func refOf(e *events.Event) EventRef {
	return EventRef{
		Timestamp:  e.Timestamp,
		RoomID:     e.RoomID,
		BuildingID: e.BuildingID,
		LocationID: e.LocationID,
		Success:    e.Success,
	}
}
