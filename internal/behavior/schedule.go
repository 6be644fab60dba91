// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package behavior

import (
	"math/rand"
	"sort"
	"time"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/population"
	"github.com/tomtom215/badgesim/internal/timeline"
)

// Kind is what a user is doing at a badge reader.
type Kind string

// Activity kinds.
const (
	KindArrival        Kind = "arrival"
	KindDesk           Kind = "desk"
	KindMeeting        Kind = "meeting"
	KindBreak          Kind = "break"
	KindLunch          Kind = "lunch"
	KindTransit        Kind = "transit"
	KindMaintenance    Kind = "maintenance"
	KindDenied         Kind = "denied"
	KindCuriousAttempt Kind = "curious_attempt"
	KindDeparture      Kind = "departure"
	KindClone          Kind = "clone"
)

// Scheduling constants.
const (
	settleTime    = 10 * time.Minute // arrival to first activity
	wrapUpTime    = 5 * time.Minute  // last activity end to departure
	deskSlack     = 10 * time.Minute // minimum time at the desk worth a return
	minDayLength  = time.Hour
	departureStep = time.Minute
	travelBuffer  = 5 * time.Minute // added to a trip that moves an activity
)

var (
	deskDelay    = Range{Min: time.Minute, Max: 5 * time.Minute}
	transitDelay = Range{Min: 30 * time.Second, Max: 2 * time.Minute}
)

// preferredTypes are the room types each activity looks for, best first.
var preferredTypes = map[Kind][]facility.RoomType{
	KindMeeting: {facility.RoomMeeting},
	KindBreak:   {facility.RoomKitchen, facility.RoomCafeteria, facility.RoomBathroom},
	KindLunch:   {facility.RoomCafeteria, facility.RoomKitchen},
}

// Activity is one badge presentation in a schedule.
type Activity struct {
	Kind    Kind
	Room    *facility.Room
	At      time.Time
	Dwell   time.Duration
	Success bool
}

// Schedule is one user's activities for one day, in time order. A clone
// schedule is the cloned badge's independent day.
type Schedule struct {
	Day        int
	Clone      bool
	Activities []Activity
}

// Events converts the schedule to badge events.
func (s *Schedule) Events(userID string) []events.Event {
	out := make([]events.Event, 0, len(s.Activities))
	for i := range s.Activities {
		a := &s.Activities[i]
		e := events.New(a.At, userID, a.Room, a.Success)
		if a.Kind == KindCuriousAttempt && !a.Success {
			e.FailureReason = events.ReasonCuriousUser
		}
		if s.Clone {
			e.Type = events.TypeSuspicious
		}
		out = append(out, e)
	}
	return out
}

// Stream wraps the schedule's events as a merge input.
func (s *Schedule) Stream(userID string) timeline.Stream {
	ordinal := 0
	if s.Clone {
		ordinal = 1
	}
	return timeline.Stream{UserID: userID, Ordinal: ordinal, Events: s.Events(userID)}
}

// Count returns the number of activities of a kind.
func (s *Schedule) Count(kind Kind) int {
	n := 0
	for i := range s.Activities {
		if s.Activities[i].Kind == kind {
			n++
		}
	}
	return n
}

// finalize sets dwell times from consecutive activities.
func (s *Schedule) finalize() {
	for i := range s.Activities {
		if i+1 < len(s.Activities) {
			s.Activities[i].Dwell = s.Activities[i+1].At.Sub(s.Activities[i].At)
		}
	}
}

// planned is an activity before a room is chosen.
type planned struct {
	kind  Kind
	start time.Time
	dur   time.Duration
}

// dayBuilder produces one user-day. It owns its random source.
type dayBuilder struct {
	e        *Engine
	rng      *rand.Rand
	user     *population.Profile
	day      int
	midnight time.Time

	acts  []Activity
	extra map[int][]Activity // excursions placed after acts[i]
	used  map[int]bool
}

func newDayBuilder(e *Engine, rng *rand.Rand, u *population.Profile, day int) *dayBuilder {
	return &dayBuilder{
		e:        e,
		rng:      rng,
		user:     u,
		day:      day,
		midnight: e.Midnight(day),
		extra:    make(map[int][]Activity),
		used:     make(map[int]bool),
	}
}

// between draws a millisecond-aligned duration in r.
func between(rng *rand.Rand, r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min.Truncate(time.Millisecond)
	}
	return (r.Min + time.Duration(rng.Int63n(int64(r.Max-r.Min)))).Truncate(time.Millisecond)
}

func intBetween(rng *rand.Rand, r IntRange) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// plan draws arrival, departure and the time-sorted, non-overlapping
// activities between them.
func (d *dayBuilder) plan() (arrival, departure time.Time, acts []planned) {
	s := &d.e.settings
	arrival = d.midnight.Add(between(d.rng, s.Arrival))
	departure = d.midnight.Add(between(d.rng, s.Departure))
	if earliest := arrival.Add(minDayLength); departure.Before(earliest) {
		departure = earliest
	}
	workStart := arrival.Add(settleTime)
	workEnd := departure.Add(-wrapUpTime)

	acts = append(acts, planned{
		kind:  KindLunch,
		start: d.midnight.Add(between(d.rng, s.Lunch)),
		dur:   between(d.rng, s.LunchDuration),
	})
	for n := intBetween(d.rng, s.Meetings); n > 0; n-- {
		acts = append(acts, planned{
			kind:  KindMeeting,
			start: d.uniform(workStart, workEnd),
			dur:   between(d.rng, s.MeetingDuration),
		})
	}
	for n := intBetween(d.rng, s.Breaks); n > 0; n-- {
		acts = append(acts, planned{
			kind:  KindBreak,
			start: d.uniform(workStart, workEnd),
			dur:   between(d.rng, s.BreakDuration),
		})
	}
	sort.SliceStable(acts, func(i, j int) bool { return acts[i].start.Before(acts[j].start) })

	// No activity starts before the previous one ends; whatever no
	// longer fits before departure is dropped.
	cur := workStart
	kept := acts[:0]
	for _, a := range acts {
		if a.start.Before(cur) {
			a.start = cur
		}
		if a.start.Add(a.dur).After(workEnd) {
			continue
		}
		kept = append(kept, a)
		cur = a.start.Add(a.dur)
	}
	return arrival, departure, kept
}

func (d *dayBuilder) uniform(from, to time.Time) time.Time {
	return from.Add(between(d.rng, Range{Min: 0, Max: to.Sub(from)}))
}

// build turns the plan into activities: lobby, desk, each activity with a
// return to the desk when the gap allows, lobby on the way out.
//
// An activity drawn in a building the user cannot reach by its planned
// start is moved to the earliest time the user can be there, and later
// activities move along with it.
func (d *dayBuilder) build() {
	arrival, departure, plan := d.plan()
	workEnd := departure.Add(-wrapUpTime)

	d.visit(KindArrival, d.user.PrimaryBuilding.Lobby(), arrival)
	d.visit(KindDesk, d.user.Workspace, arrival.Add(between(d.rng, deskDelay)))

	var busy time.Time
	for i, p := range plan {
		p.start = maxTime(p.start, busy)
		if p.start.Add(p.dur).After(workEnd) {
			continue
		}
		room, start := d.selectRoom(p, workEnd)
		d.visit(p.kind, room, start)
		end := d.last().At.Add(p.dur)
		busy = end

		next := departure
		if i+1 < len(plan) {
			next = maxTime(plan[i+1].start, end)
		}
		d.returnToDesk(end, next)
		busy = maxTime(busy, d.last().At)
	}

	last := d.last()
	d.visit(KindDeparture, d.building(last.Room.BuildingID).Lobby(),
		maxTime(departure, last.At.Add(departureStep)))
}

func (d *dayBuilder) last() *Activity {
	return &d.acts[len(d.acts)-1]
}

func (d *dayBuilder) building(id string) *facility.Building {
	b, ok := d.e.facility.Building(id)
	if !ok {
		// rooms are only ever drawn from the facility
		panic("behavior: room references unknown building " + id)
	}
	return b
}

// visit appends a badge presentation. Entering a different building goes
// through its lobby first.
func (d *dayBuilder) visit(kind Kind, room *facility.Room, at time.Time) {
	if len(d.acts) > 0 {
		last := d.last()
		at = maxTime(at, last.At)
		if last.Room.BuildingID != room.BuildingID {
			lobby := d.building(room.BuildingID).Lobby()
			if lobby.ID != room.ID {
				d.add(KindTransit, lobby, at)
				at = at.Add(between(d.rng, transitDelay))
			}
		}
	}
	d.add(kind, room, at)
}

func (d *dayBuilder) add(kind Kind, room *facility.Room, at time.Time) {
	d.acts = append(d.acts, Activity{
		Kind:    kind,
		Room:    room,
		At:      at.Truncate(time.Millisecond),
		Success: d.user.IsAuthorized(room.ID),
	})
}

// selectRoom draws the affinity scope and a room for the activity and
// returns the room with the activity's start. A building the user cannot
// reach by the planned start moves the start to the earliest arrival there;
// when that no longer fits before workEnd the current building is used.
func (d *dayBuilder) selectRoom(p planned, workEnd time.Time) (*facility.Room, time.Time) {
	last := d.last()
	current := d.building(last.Room.BuildingID)
	b := d.drawBuilding(current)
	start := p.start
	if b != current {
		required := d.e.settings.Travel.Required(last.Room.Ref(), b.Lobby().Ref())
		if earliest := last.At.Add(required); earliest.After(start) {
			if required > 0 {
				earliest = earliest.Add(travelBuffer)
			}
			if earliest.Add(p.dur).After(workEnd) {
				b = current
			} else {
				start = earliest
			}
		}
	}
	return d.roomFor(b, p.kind), start
}

// drawBuilding draws from the primary / same-location / different-location
// distribution. Scopes that do not exist fall back to the primary building.
//
// A user who has travelled to another location stays there for the rest of
// the day: the primary and different-location scopes keep the current
// building and the same-location scope picks a neighbour of it.
func (d *dayBuilder) drawBuilding(current *facility.Building) *facility.Building {
	primary := d.user.PrimaryBuilding
	a := d.e.settings.Affinity
	x := d.rng.Float64()

	if current.LocationID != d.user.HomeLocation.ID {
		if x < a.Primary || x >= a.Primary+a.SameLocation {
			return current
		}
		loc, _ := d.e.facility.Location(current.LocationID)
		others := otherBuildings(loc, current)
		if len(others) == 0 {
			return current
		}
		return others[d.rng.Intn(len(others))]
	}

	switch {
	case x < a.Primary:
		return primary
	case x < a.Primary+a.SameLocation:
		others := otherBuildings(d.user.HomeLocation, primary)
		if len(others) == 0 {
			return primary
		}
		return others[d.rng.Intn(len(others))]
	default:
		locs := d.e.otherLocations(d.user.HomeLocation.ID)
		if len(locs) == 0 {
			return primary
		}
		loc := locs[d.rng.Intn(len(locs))]
		return loc.Buildings[d.rng.Intn(len(loc.Buildings))]
	}
}

// roomFor picks an authorized room of a preferred type in the building,
// else any authorized room there. The lobby is always authorized.
func (d *dayBuilder) roomFor(b *facility.Building, kind Kind) *facility.Room {
	var preferred, authorized []*facility.Room
	for _, r := range b.Rooms {
		if !d.user.IsAuthorized(r.ID) {
			continue
		}
		authorized = append(authorized, r)
		for _, t := range preferredTypes[kind] {
			if r.Type == t {
				preferred = append(preferred, r)
				break
			}
		}
	}
	switch {
	case len(preferred) > 0:
		return preferred[d.rng.Intn(len(preferred))]
	case len(authorized) > 0:
		return authorized[d.rng.Intn(len(authorized))]
	default:
		return b.Lobby()
	}
}

// returnToDesk goes back to the workspace after an activity ending at end
// when there is enough time before the next one. Users away from their home
// location do not return.
func (d *dayBuilder) returnToDesk(end, next time.Time) {
	last := d.last()
	ws := d.user.Workspace
	if last.Room.ID == ws.ID || last.Room.LocationID != ws.LocationID {
		return
	}
	arrive := maxTime(end, last.At).Add(d.e.settings.Travel.Required(last.Room.Ref(), ws.Ref()))
	if next.Sub(arrive) < deskSlack {
		return
	}
	d.visit(KindDesk, ws, arrive)
}

// schedule assembles the activities, with excursions, into a schedule.
func (d *dayBuilder) schedule() *Schedule {
	s := &Schedule{Day: d.day}
	total := len(d.acts)
	for _, x := range d.extra {
		total += len(x)
	}
	s.Activities = make([]Activity, 0, total)
	for i := range d.acts {
		s.Activities = append(s.Activities, d.acts[i])
		s.Activities = append(s.Activities, d.extra[i]...)
	}
	s.finalize()
	return s
}

func otherBuildings(loc *facility.Location, except *facility.Building) []*facility.Building {
	out := make([]*facility.Building, 0, len(loc.Buildings))
	for _, b := range loc.Buildings {
		if b != except {
			out = append(out, b)
		}
	}
	return out
}
