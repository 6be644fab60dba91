// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package behavior turns user profiles into daily badge activity. Each
// profile is driven by one of a closed set of behaviors (normal, curious,
// cloned badge) that produce the user's event sub-streams for a day.
//
// Every user-day draws from its own seeded source, so days and users can
// be generated in any order, or concurrently, with identical output.
package behavior

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/metrics"
	"github.com/tomtom215/badgesim/internal/population"
	"github.com/tomtom215/badgesim/internal/seeds"
	"github.com/tomtom215/badgesim/internal/timeline"
)

// Anomaly kinds reported to metrics.
const (
	AnomalyCloneDay       = "clone_day"
	AnomalyCuriousAttempt = "curious_attempt"
	AnomalyIncidental     = "incidental_denial"
)

// Behavior produces one user's sub-streams for a day.
type Behavior interface {
	Variant() population.Variant
	Day(ctx context.Context, day int) ([]timeline.Stream, error)
}

// Engine holds what every behavior shares: the facility, the settings,
// the run seed and the first simulated day. It is safe for concurrent use.
type Engine struct {
	facility *facility.Facility
	settings Settings
	seed     uint64
	start    time.Time
}

// NewEngine validates the settings and returns an engine. start is the
// midnight (UTC) of day 0.
func NewEngine(f *facility.Facility, s Settings, seed uint64, start time.Time) (*Engine, error) {
	if f == nil || len(f.Locations) == 0 {
		return nil, errors.New("behavior: empty facility")
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("behavior settings: %w", err)
	}
	y, m, d := start.UTC().Date()
	return &Engine{
		facility: f,
		settings: s,
		seed:     seed,
		start:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Settings returns the engine's settings.
func (e *Engine) Settings() Settings {
	return e.settings
}

// Midnight returns the start of a simulated day.
func (e *Engine) Midnight(day int) time.Time {
	return e.start.AddDate(0, 0, day)
}

// For returns the behavior of a profile.
func (e *Engine) For(u *population.Profile) Behavior {
	base := normal{engine: e, user: u}
	switch u.Variant {
	case population.VariantCurious:
		return &Curious{normal: base}
	case population.VariantCloned:
		return &ClonedBadge{normal: base}
	default:
		return &Normal{normal: base}
	}
}

// Schedule builds a user's genuine schedule for a day. Curious users get
// their unauthorized attempts; every user may get a maintenance visit or an incidental
// denial.
func (e *Engine) Schedule(u *population.Profile, day int) *Schedule {
	rng := seeds.New(e.seed, seeds.StreamDay, uint64(u.Index), uint64(day))
	d := newDayBuilder(e, rng, u, day)
	d.build()

	d.addMaintenance()
	if n := d.addIncidentalDenial(); n > 0 {
		metrics.RecordAnomaly(AnomalyIncidental, n)
	}
	if u.Variant == population.VariantCurious {
		metrics.RecordAnomaly(AnomalyCuriousAttempt, d.addCuriousAttempts())
	}
	return d.schedule()
}

// CloneSchedule builds the cloned badge's schedule for a day, or nil when
// the badge is not used that day.
func (e *Engine) CloneSchedule(u *population.Profile, genuine *Schedule) *Schedule {
	if u.Variant != population.VariantCloned || !u.IsCloneDay(genuine.Day) {
		return nil
	}
	rng := seeds.New(e.seed, seeds.StreamClone, uint64(u.Index), uint64(genuine.Day))
	return e.cloneSchedule(rng, u, genuine)
}

func (e *Engine) otherLocations(except string) []*facility.Location {
	out := make([]*facility.Location, 0, len(e.facility.Locations))
	for _, l := range e.facility.Locations {
		if l.ID != except {
			out = append(out, l)
		}
	}
	return out
}

type normal struct {
	engine *Engine
	user   *population.Profile
}

func (n *normal) day(ctx context.Context, day int) (*Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if day < 0 {
		return nil, fmt.Errorf("behavior: negative day %d", day)
	}
	metrics.RecordUserDay(string(n.user.Variant))
	return n.engine.Schedule(n.user, day), nil
}

// Normal users follow their schedule and rarely hit a stale permission.
type Normal struct {
	normal
}

// Variant implements Behavior.
func (b *Normal) Variant() population.Variant { return population.VariantNormal }

// Day implements Behavior.
func (b *Normal) Day(ctx context.Context, day int) ([]timeline.Stream, error) {
	s, err := b.day(ctx, day)
	if err != nil {
		return nil, err
	}
	return []timeline.Stream{s.Stream(b.user.ID)}, nil
}

// Curious users additionally try rooms outside their authorized set.
type Curious struct {
	normal
}

// Variant implements Behavior.
func (b *Curious) Variant() population.Variant { return population.VariantCurious }

// Day implements Behavior.
func (b *Curious) Day(ctx context.Context, day int) ([]timeline.Stream, error) {
	s, err := b.day(ctx, day)
	if err != nil {
		return nil, err
	}
	return []timeline.Stream{s.Stream(b.user.ID)}, nil
}

// ClonedBadge users have a second badge in use at another location on
// their clone days.
type ClonedBadge struct {
	normal
}

// Variant implements Behavior.
func (b *ClonedBadge) Variant() population.Variant { return population.VariantCloned }

// Day implements Behavior.
func (b *ClonedBadge) Day(ctx context.Context, day int) ([]timeline.Stream, error) {
	s, err := b.day(ctx, day)
	if err != nil {
		return nil, err
	}
	streams := []timeline.Stream{s.Stream(b.user.ID)}
	if clone := b.engine.CloneSchedule(b.user, s); clone != nil && len(clone.Activities) > 0 {
		metrics.RecordAnomaly(AnomalyCloneDay, 1)
		streams = append(streams, clone.Stream(b.user.ID))
	}
	return streams, nil
}
