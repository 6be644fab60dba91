// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package behavior

import (
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
)

// attemptSpacing is the minimum time between the attempts of one excursion.
const attemptSpacing = time.Minute

// slot is the time between two consecutive activities in one building.
type slot struct {
	after    int
	from, to time.Time
	building *facility.Building
}

// excursion is a short side trip placed into a slot of the day.
type excursion struct {
	kind  Kind
	count int
	// targets returns the candidate rooms of a building.
	targets func(b *facility.Building) []*facility.Room
	// roam allows trips to other buildings at the same location.
	roam bool
	// sensitive prefers rooms with a higher security level.
	sensitive bool
}

// freeSlots returns the unused slots between same-building activities.
func (d *dayBuilder) freeSlots() []slot {
	var out []slot
	for i := 0; i+1 < len(d.acts); i++ {
		if d.used[i] {
			continue
		}
		a, b := &d.acts[i], &d.acts[i+1]
		if a.Room.BuildingID != b.Room.BuildingID || !b.At.After(a.At) {
			continue
		}
		out = append(out, slot{after: i, from: a.At, to: b.At, building: d.building(a.Room.BuildingID)})
	}
	return out
}

// place inserts the excursion into a random slot with enough room for the
// trip, trying fewer attempts when the full count fits nowhere. It returns
// the rooms attempted.
//
// A trip inside the slot's building needs one attempt spacing per attempt
// plus one. A trip to another building at the location also needs the
// same-location travel time both ways.
func (d *dayBuilder) place(x excursion) []*facility.Room {
	slots := d.freeSlots()
	if len(slots) == 0 {
		return nil
	}
	order := d.rng.Perm(len(slots))
	travel := d.e.settings.Travel.SameLocation

	for want := x.count; want >= 1; want-- {
		need := time.Duration(want+1) * attemptSpacing
		for _, i := range order {
			s := slots[i]
			span := s.to.Sub(s.from)
			if span >= need {
				if rooms := x.targets(s.building); len(rooms) >= want {
					return d.insert(s, x, rooms, want, 0)
				}
			}
			if !x.roam || span < 2*travel+need {
				continue
			}
			loc, _ := d.e.facility.Location(s.building.LocationID)
			neighbours := otherBuildings(loc, s.building)
			for _, j := range d.rng.Perm(len(neighbours)) {
				if rooms := x.targets(neighbours[j]); len(rooms) >= want {
					return d.insert(s, x, rooms, want, travel)
				}
			}
		}
	}
	return nil
}

// insert spreads n attempts evenly over the slot, leaving the travel time
// at both ends.
func (d *dayBuilder) insert(s slot, x excursion, rooms []*facility.Room, n int, travel time.Duration) []*facility.Room {
	chosen := d.sample(rooms, n, x.sensitive)
	step := (s.to.Sub(s.from) - 2*travel) / time.Duration(n+1)
	at := s.from.Add(travel)
	for _, r := range chosen {
		at = at.Add(step)
		d.extra[s.after] = append(d.extra[s.after], Activity{
			Kind:    x.kind,
			Room:    r,
			At:      at.Truncate(time.Millisecond),
			Success: d.user.IsAuthorized(r.ID),
		})
	}
	d.used[s.after] = true
	return chosen
}

// sample draws n distinct rooms, weighted toward higher security levels
// when sensitive is set.
func (d *dayBuilder) sample(rooms []*facility.Room, n int, sensitive bool) []*facility.Room {
	pool := make([]*facility.Room, len(rooms))
	copy(pool, rooms)
	weight := func(r *facility.Room) int {
		if !sensitive {
			return 1
		}
		w := int(r.Security) + 1
		return w * w
	}

	out := make([]*facility.Room, 0, n)
	for len(out) < n && len(pool) > 0 {
		total := 0
		for _, r := range pool {
			total += weight(r)
		}
		x := d.rng.Intn(total)
		for i, r := range pool {
			w := weight(r)
			if x < w {
				out = append(out, r)
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
			x -= w
		}
	}
	return out
}

// unauthorizedRooms returns the rooms of b the user's badge does not open.
func (d *dayBuilder) unauthorizedRooms(b *facility.Building) []*facility.Room {
	var out []*facility.Room
	for _, r := range b.Rooms {
		if !d.user.IsAuthorized(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// grantedRooms returns the restricted rooms of b the user holds a role
// grant for.
func (d *dayBuilder) grantedRooms(b *facility.Building) []*facility.Room {
	var out []*facility.Room
	for _, r := range b.Rooms {
		if r.Security.RequiresGrant() && d.user.HasGrant(r.Type) && d.user.IsAuthorized(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// addMaintenance sends a user holding a role grant to one granted room.
func (d *dayBuilder) addMaintenance() int {
	if d.rng.Float64() >= d.e.settings.MaintenanceProbability || len(d.user.Grants) == 0 {
		return 0
	}
	return len(d.place(excursion{
		kind:    KindMaintenance,
		count:   1,
		targets: d.grantedRooms,
		roam:    true,
	}))
}

// addIncidentalDenial adds one stale-permission denial in the building the
// user is in.
func (d *dayBuilder) addIncidentalDenial() int {
	if d.rng.Float64() >= d.e.settings.IncidentalDenialRate {
		return 0
	}
	return len(d.place(excursion{
		kind:    KindDenied,
		count:   1,
		targets: d.unauthorizedRooms,
	}))
}

// addCuriousAttempts adds attempts on distinct rooms outside the authorized
// set, preferring sensitive rooms. Each attempt goes into its own randomly
// drawn slot; attempts are grouped into one slot only when there are more
// attempts left than free slots.
func (d *dayBuilder) addCuriousAttempts() int {
	count := intBetween(d.rng, d.e.settings.CuriousAttempts)
	tried := make(map[string]bool, count)
	targets := func(b *facility.Building) []*facility.Room {
		var out []*facility.Room
		for _, r := range d.unauthorizedRooms(b) {
			if !tried[r.ID] {
				out = append(out, r)
			}
		}
		return out
	}

	placed := 0
	for placed < count {
		left := count - placed
		free := len(d.freeSlots())
		if free == 0 {
			break
		}
		group := 1
		if left > free {
			group = (left + free - 1) / free
		}
		rooms := d.place(excursion{
			kind:      KindCuriousAttempt,
			count:     group,
			targets:   targets,
			roam:      true,
			sensitive: true,
		})
		if len(rooms) == 0 {
			break
		}
		for _, r := range rooms {
			tried[r.ID] = true
		}
		placed += len(rooms)
	}
	return placed
}
