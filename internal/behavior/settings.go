// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package behavior

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
)

// Range is a closed duration interval. Time-of-day windows are offsets
// from midnight.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// IntRange is a closed integer interval.
type IntRange struct {
	Min int
	Max int
}

// Affinity is the three-way distribution of where an activity happens.
type Affinity struct {
	Primary           float64
	SameLocation      float64
	DifferentLocation float64
}

// Settings drive schedule generation and anomaly injection.
type Settings struct {
	Arrival   Range
	Lunch     Range
	Departure Range

	Meetings        IntRange
	Breaks          IntRange
	MeetingDuration Range
	BreakDuration   Range
	LunchDuration   Range

	Affinity Affinity
	Travel   facility.TravelTable

	IncidentalDenialRate   float64
	CuriousAttempts        IntRange
	CloneRooms             IntRange
	MaintenanceProbability float64
}

// DefaultSettings returns the default office day.
func DefaultSettings() Settings {
	return Settings{
		Arrival:         Range{Min: 8 * time.Hour, Max: 10 * time.Hour},
		Lunch:           Range{Min: 11*time.Hour + 30*time.Minute, Max: 13*time.Hour + 30*time.Minute},
		Departure:       Range{Min: 16*time.Hour + 30*time.Minute, Max: 18*time.Hour + 30*time.Minute},
		Meetings:        IntRange{Min: 1, Max: 4},
		Breaks:          IntRange{Min: 2, Max: 3},
		MeetingDuration: Range{Min: 30 * time.Minute, Max: 60 * time.Minute},
		BreakDuration:   Range{Min: 5 * time.Minute, Max: 15 * time.Minute},
		LunchDuration:   Range{Min: 30 * time.Minute, Max: 60 * time.Minute},
		Affinity:        Affinity{Primary: 0.85, SameLocation: 0.10, DifferentLocation: 0.05},
		Travel:          facility.DefaultTravelTable(),

		IncidentalDenialRate:   0.02,
		CuriousAttempts:        IntRange{Min: 3, Max: 6},
		CloneRooms:             IntRange{Min: 2, Max: 6},
		MaintenanceProbability: 0.3,
	}
}

// Validate checks the settings for internal consistency.
func (s *Settings) Validate() error {
	var errs []error
	check := func(name string, r Range) {
		if r.Min < 0 || r.Min > r.Max {
			errs = append(errs, fmt.Errorf("%s: invalid range %s..%s", name, r.Min, r.Max))
		}
	}
	checkInt := func(name string, r IntRange, floor int) {
		if r.Min < floor || r.Min > r.Max {
			errs = append(errs, fmt.Errorf("%s: invalid range %d..%d", name, r.Min, r.Max))
		}
	}

	check("arrival window", s.Arrival)
	check("lunch window", s.Lunch)
	check("departure window", s.Departure)
	check("meeting duration", s.MeetingDuration)
	check("break duration", s.BreakDuration)
	check("lunch duration", s.LunchDuration)
	checkInt("meetings", s.Meetings, 0)
	checkInt("breaks", s.Breaks, 0)
	checkInt("curious attempts", s.CuriousAttempts, 1)
	checkInt("clone rooms", s.CloneRooms, 1)

	if s.Arrival.Max > s.Departure.Min {
		errs = append(errs, errors.New("arrival window must end before the departure window starts"))
	}
	if s.Departure.Max > 24*time.Hour {
		errs = append(errs, errors.New("departure window must end by midnight"))
	}
	a := s.Affinity
	if a.Primary < 0 || a.SameLocation < 0 || a.DifferentLocation < 0 ||
		math.Abs(a.Primary+a.SameLocation+a.DifferentLocation-1) > 0.01 {
		errs = append(errs, fmt.Errorf("affinity %.3f/%.3f/%.3f must be non-negative and sum to 1",
			a.Primary, a.SameLocation, a.DifferentLocation))
	}
	if s.Travel.SameLocation < 0 || s.Travel.CrossLocation <= s.Travel.SameLocation {
		errs = append(errs, fmt.Errorf("travel times %s/%s: cross-location must exceed same-location",
			s.Travel.SameLocation, s.Travel.CrossLocation))
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"incidental denial rate", s.IncidentalDenialRate},
		{"maintenance probability", s.MaintenanceProbability},
	} {
		if p.value < 0 || p.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.3f must be within [0,1]", p.name, p.value))
		}
	}
	return errors.Join(errs...)
}
