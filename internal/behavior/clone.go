// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package behavior

import (
	"math/rand"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/population"
)

// Clone timing.
const (
	cloneMinOffset = 5 * time.Minute
	cloneMaxOffset = 3 * time.Hour
)

var cloneVisitGap = Range{Min: 5 * time.Minute, Max: 40 * time.Minute}

// cloneSchedule builds the cloned badge's day. It starts shortly after a
// random event of the genuine schedule, at a location other than where
// the genuine badge was last seen, so the first clone event can never be
// reached in time from the genuine one before it.
func (e *Engine) cloneSchedule(rng *rand.Rand, u *population.Profile, primary *Schedule) *Schedule {
	clone := &Schedule{Day: primary.Day, Clone: true}
	if len(primary.Activities) == 0 {
		return clone
	}
	dayEnd := e.Midnight(primary.Day).Add(24 * time.Hour)

	anchor := primary.Activities[rng.Intn(len(primary.Activities))].At
	hi := cloneMaxOffset
	if e.settings.Travel.CrossLocation < hi {
		hi = e.settings.Travel.CrossLocation
	}
	lo := cloneMinOffset
	if hi <= lo {
		lo = 0
	}
	start := anchor.Add(between(rng, Range{Min: lo, Max: hi}))
	if !start.Before(dayEnd) {
		start = anchor.Add(lo)
		if !start.Before(dayEnd) {
			start = anchor
		}
	}

	seenAt := primary.Activities[0].Room.LocationID
	for i := range primary.Activities {
		if primary.Activities[i].At.After(start) {
			break
		}
		seenAt = primary.Activities[i].Room.LocationID
	}
	locs := e.otherLocations(seenAt)
	if len(locs) == 0 {
		return clone
	}
	loc := locs[rng.Intn(len(locs))]
	b := loc.Buildings[rng.Intn(len(loc.Buildings))]

	at := start.Truncate(time.Millisecond)
	clone.Activities = append(clone.Activities, e.cloneVisit(u, b.Lobby(), at))
	for n := intBetween(rng, e.settings.CloneRooms); n > 0; n-- {
		at = at.Add(between(rng, cloneVisitGap))
		if !at.Before(dayEnd) {
			break
		}
		clone.Activities = append(clone.Activities, e.cloneVisit(u, cloneRoom(rng, u, b), at))
	}
	clone.finalize()
	return clone
}

func (e *Engine) cloneVisit(u *population.Profile, r *facility.Room, at time.Time) Activity {
	return Activity{Kind: KindClone, Room: r, At: at, Success: u.IsAuthorized(r.ID)}
}

// cloneRoom picks a room the badge opens in the building.
func cloneRoom(rng *rand.Rand, u *population.Profile, b *facility.Building) *facility.Room {
	var rooms []*facility.Room
	for _, r := range b.Rooms {
		if u.IsAuthorized(r.ID) {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) == 0 {
		return b.Lobby()
	}
	return rooms[rng.Intn(len(rooms))]
}
