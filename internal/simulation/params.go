// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package simulation

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/tomtom215/badgesim/internal/behavior"
	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/detection"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/population"
)

// ResolveSeed returns the configured seed, or a fresh non-zero seed from
// crypto/rand when none is configured. generated reports which.
func ResolveSeed(configured uint64) (seed uint64, generated bool, err error) {
	if configured != 0 {
		return configured, false, nil
	}
	var buf [8]byte
	for seed == 0 {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, false, fmt.Errorf("draw run seed: %w", err)
		}
		seed = binary.LittleEndian.Uint64(buf[:])
	}
	return seed, true, nil
}

// FacilityParams maps the configuration to facility generation params.
func FacilityParams(cfg *config.Config) (facility.Params, error) {
	weights := make(map[facility.RoomType]int, len(cfg.RoomTypeWeights))
	for key, w := range cfg.RoomTypeWeights {
		t, err := facility.ParseRoomType(key)
		if err != nil {
			return facility.Params{}, fmt.Errorf("room_type_weights: %w", err)
		}
		weights[t] = w
	}
	return facility.Params{
		LocationCount:   cfg.LocationCount,
		MinBuildings:    cfg.MinBuildingsPerLocation,
		MaxBuildings:    cfg.MaxBuildingsPerLocation,
		MinRooms:        cfg.MinRoomsPerBuilding,
		MaxRooms:        cfg.MaxRoomsPerBuilding,
		RoomTypeWeights: weights,
	}, nil
}

// PopulationParams maps the configuration to population params.
func PopulationParams(cfg *config.Config, seed uint64) population.Params {
	return population.Params{
		UserCount:           cfg.UserCount,
		LocationWeights:     cfg.LocationWeights,
		CuriousPercentage:   cfg.CuriousUserPercentage,
		ClonedPercentage:    cfg.ClonedBadgePercentage,
		Days:                cfg.Days,
		CloneDayProbability: cfg.Behavior.CloneDayProbability,
		Seed:                seed,
	}
}

// TravelTable returns the configured travel times.
func TravelTable(cfg *config.Config) facility.TravelTable {
	return facility.TravelTable{
		SameLocation:  cfg.Travel.SameLocation,
		CrossLocation: cfg.Travel.CrossLocation,
	}
}

// BehaviorSettings maps the configuration to behavior settings.
func BehaviorSettings(cfg *config.Config) behavior.Settings {
	window := func(w config.ClockWindow) behavior.Range {
		return behavior.Range{Min: w.Start, Max: w.End}
	}
	s := &cfg.Schedule
	b := &cfg.Behavior
	return behavior.Settings{
		Arrival:         window(s.Arrival()),
		Lunch:           window(s.Lunch()),
		Departure:       window(s.Departure()),
		Meetings:        behavior.IntRange{Min: s.MinMeetings, Max: s.MaxMeetings},
		Breaks:          behavior.IntRange{Min: s.MinBreaks, Max: s.MaxBreaks},
		MeetingDuration: behavior.Range{Min: s.MeetingMinDuration, Max: s.MeetingMaxDuration},
		BreakDuration:   behavior.Range{Min: s.BreakMinDuration, Max: s.BreakMaxDuration},
		LunchDuration:   behavior.Range{Min: s.LunchMinDuration, Max: s.LunchMaxDuration},
		Affinity: behavior.Affinity{
			Primary:           cfg.PrimaryBuildingAffinity,
			SameLocation:      cfg.SameLocationTravel,
			DifferentLocation: cfg.DifferentLocationTravel,
		},
		Travel: TravelTable(cfg),

		IncidentalDenialRate:   b.IncidentalDenialRate,
		CuriousAttempts:        behavior.IntRange{Min: b.CuriousAttemptsMin, Max: b.CuriousAttemptsMax},
		CloneRooms:             behavior.IntRange{Min: b.CloneRoomsMin, Max: b.CloneRoomsMax},
		MaintenanceProbability: b.MaintenanceProbability,
	}
}

// DetectionConfig maps the configuration to analysis thresholds. The
// travel table is shared with generation.
func DetectionConfig(cfg *config.Config) detection.Config {
	d := detection.DefaultConfig()
	d.Travel = TravelTable(cfg)
	d.DistinctRoomThreshold = cfg.Detection.DistinctRoomThreshold
	d.TotalDistinctRoomThreshold = cfg.Detection.TotalDistinctRoomThreshold
	d.FailureRatePercentile = cfg.Detection.FailureRatePercentile
	d.MinFailures = cfg.Detection.MinFailures
	d.MaxDwell = cfg.Detection.MaxDwell
	return d
}
