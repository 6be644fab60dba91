// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package config

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/badgesim/internal/validation"
)

// affinityTolerance is how far the three affinity probabilities may sum from 1.
const affinityTolerance = 0.01

// RoomTypeKeys lists the keys accepted in room_type_weights. Lobbies are
// placed one per building and are not weighted.
var RoomTypeKeys = []string{
	"workspace",
	"meeting_room",
	"bathroom",
	"cafeteria",
	"kitchen",
	"storage",
	"executive_office",
	"server_room",
	"laboratory",
}

// Validate checks every field and cross-field rule. All problems are
// reported together in one error wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []string

	if err := validation.ValidateStruct(c); err != nil {
		for _, fe := range err.Errors() {
			problems = append(problems, fe.Error())
		}
	}

	problems = append(problems, c.validateRanges()...)
	problems = append(problems, c.validateAffinity()...)
	problems = append(problems, c.validateRoomTypeWeights()...)
	problems = append(problems, c.validateLocationWeights()...)
	problems = append(problems, c.validateSchedule()...)
	problems = append(problems, c.validateBehavior()...)
	problems = append(problems, c.validateTravel()...)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// validateRanges checks min/max pairs of the facility shape.
func (c *Config) validateRanges() []string {
	var problems []string
	if c.MinBuildingsPerLocation > c.MaxBuildingsPerLocation {
		problems = append(problems, fmt.Sprintf("min_buildings_per_location (%d) must not exceed max_buildings_per_location (%d)",
			c.MinBuildingsPerLocation, c.MaxBuildingsPerLocation))
	}
	if c.MinRoomsPerBuilding > c.MaxRoomsPerBuilding {
		problems = append(problems, fmt.Sprintf("min_rooms_per_building (%d) must not exceed max_rooms_per_building (%d)",
			c.MinRoomsPerBuilding, c.MaxRoomsPerBuilding))
	}
	return problems
}

// validateAffinity checks that the affinity scope distribution sums to 1.
func (c *Config) validateAffinity() []string {
	sum := c.PrimaryBuildingAffinity + c.SameLocationTravel + c.DifferentLocationTravel
	if math.Abs(sum-1) > affinityTolerance {
		return []string{fmt.Sprintf(
			"primary_building_affinity + same_location_travel + different_location_travel must sum to 1 (got %.3f)", sum)}
	}
	return nil
}

// validateRoomTypeWeights checks weight keys and values.
func (c *Config) validateRoomTypeWeights() []string {
	known := make(map[string]bool, len(RoomTypeKeys))
	for _, k := range RoomTypeKeys {
		known[k] = true
	}

	var problems []string
	total := 0
	keys := make([]string, 0, len(c.RoomTypeWeights))
	for k := range c.RoomTypeWeights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w := c.RoomTypeWeights[k]
		if !known[k] {
			problems = append(problems, fmt.Sprintf("room_type_weights.%s is not a known room type", k))
			continue
		}
		if w < 0 {
			problems = append(problems, fmt.Sprintf("room_type_weights.%s must not be negative", k))
			continue
		}
		total += w
	}
	if total == 0 {
		problems = append(problems, "room_type_weights must contain at least one positive weight")
	}
	return problems
}

// validateLocationWeights checks the optional per-location population shares.
func (c *Config) validateLocationWeights() []string {
	if len(c.LocationWeights) == 0 {
		return nil
	}
	if len(c.LocationWeights) != c.LocationCount {
		return []string{fmt.Sprintf("location_weights has %d entries but location_count is %d",
			len(c.LocationWeights), c.LocationCount)}
	}
	sum := 0.0
	for i, w := range c.LocationWeights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return []string{fmt.Sprintf("location_weights[%d] must be a non-negative number", i)}
		}
		sum += w
	}
	if sum == 0 {
		return []string{"location_weights must contain at least one positive weight"}
	}
	return nil
}

// validateSchedule checks that the day windows are ordered and the
// activity bounds are consistent. Unparseable clock values were already
// reported by the struct tags.
func (c *Config) validateSchedule() []string {
	s := &c.Schedule
	var problems []string

	clocks := []struct {
		key   string
		value string
	}{
		{"schedule.arrival_start", s.ArrivalStart},
		{"schedule.arrival_end", s.ArrivalEnd},
		{"schedule.lunch_start", s.LunchStart},
		{"schedule.lunch_end", s.LunchEnd},
		{"schedule.departure_start", s.DepartureStart},
		{"schedule.departure_end", s.DepartureEnd},
	}
	prev := int64(-1)
	for i, clk := range clocks {
		d, err := ParseClock(clk.value)
		if err != nil {
			return problems
		}
		// Each window must be non-empty; adjacent windows may touch.
		if i%2 == 1 && int64(d) <= prev {
			problems = append(problems, fmt.Sprintf("%s must be after %s", clk.key, clocks[i-1].key))
		} else if i%2 == 0 && int64(d) < prev {
			problems = append(problems, fmt.Sprintf("%s must not be before %s", clk.key, clocks[i-1].key))
		}
		prev = int64(d)
	}

	if s.MinMeetings > s.MaxMeetings {
		problems = append(problems, "schedule.min_meetings must not exceed schedule.max_meetings")
	}
	if s.MinBreaks > s.MaxBreaks {
		problems = append(problems, "schedule.min_breaks must not exceed schedule.max_breaks")
	}
	if s.MeetingMinDuration > s.MeetingMaxDuration {
		problems = append(problems, "schedule.meeting_min_duration must not exceed schedule.meeting_max_duration")
	}
	if s.BreakMinDuration > s.BreakMaxDuration {
		problems = append(problems, "schedule.break_min_duration must not exceed schedule.break_max_duration")
	}
	if s.LunchMinDuration > s.LunchMaxDuration {
		problems = append(problems, "schedule.lunch_min_duration must not exceed schedule.lunch_max_duration")
	}
	return problems
}

// validateBehavior checks min/max pairs of the behavior variants.
func (c *Config) validateBehavior() []string {
	var problems []string
	if c.Behavior.CuriousAttemptsMin > c.Behavior.CuriousAttemptsMax {
		problems = append(problems, "behavior.curious_attempts_min must not exceed behavior.curious_attempts_max")
	}
	if c.Behavior.CloneRoomsMin > c.Behavior.CloneRoomsMax {
		problems = append(problems, "behavior.clone_rooms_min must not exceed behavior.clone_rooms_max")
	}
	return problems
}

// validateTravel checks that crossing locations takes longer than moving
// between buildings of one location.
func (c *Config) validateTravel() []string {
	if c.Travel.CrossLocation <= c.Travel.SameLocation {
		return []string{"travel.cross_location must be longer than travel.same_location"}
	}
	return nil
}
