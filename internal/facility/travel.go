// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package facility

import (
	"sync"
	"time"
)

// Default travel constants.
const (
	DefaultSameLocationTravel  = 30 * time.Minute
	DefaultCrossLocationTravel = 4 * time.Hour
)

// Hop classifies the move between two rooms.
type Hop int

// Hops, shortest first.
const (
	HopSameBuilding Hop = iota
	HopSameLocation
	HopCrossLocation
)

// String returns the hop name.
func (h Hop) String() string {
	switch h {
	case HopSameBuilding:
		return "same_building"
	case HopSameLocation:
		return "same_location"
	default:
		return "cross_location"
	}
}

// TravelTable holds the minimum feasible travel time per hop. Generation
// and detection share one table so they agree on feasibility.
type TravelTable struct {
	SameLocation  time.Duration
	CrossLocation time.Duration
}

// DefaultTravelTable returns the default constants.
func DefaultTravelTable() TravelTable {
	return TravelTable{SameLocation: DefaultSameLocationTravel, CrossLocation: DefaultCrossLocationTravel}
}

// HopBetween classifies the move from one room to another.
func HopBetween(from, to Ref) Hop {
	switch {
	case from.LocationID != to.LocationID:
		return HopCrossLocation
	case from.BuildingID != to.BuildingID:
		return HopSameLocation
	default:
		return HopSameBuilding
	}
}

// Required returns the minimum time needed to move from one room to another.
func (t TravelTable) Required(from, to Ref) time.Duration {
	switch HopBetween(from, to) {
	case HopCrossLocation:
		return t.CrossLocation
	case HopSameLocation:
		return t.SameLocation
	default:
		return 0
	}
}

// Feasible reports whether the move fits in the elapsed time.
func (t TravelTable) Feasible(from, to Ref, elapsed time.Duration) bool {
	return elapsed >= t.Required(from, to)
}

// EventIndex resolves rooms from the references seen in an event stream,
// for analysis without the generating facility. The first reference seen
// for a room wins; later conflicting references are reported as
// inconsistent.
type EventIndex struct {
	mu    sync.RWMutex
	rooms map[string]Ref
}

// NewEventIndex returns an empty index.
func NewEventIndex() *EventIndex {
	return &EventIndex{rooms: make(map[string]Ref)}
}

// Observe records a reference. It returns false when the room was
// previously seen under a different building or location, or when an
// identifier is empty.
func (x *EventIndex) Observe(ref Ref) bool {
	if ref.RoomID == "" || ref.BuildingID == "" || ref.LocationID == "" {
		return false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if prev, ok := x.rooms[ref.RoomID]; ok {
		return prev == ref
	}
	x.rooms[ref.RoomID] = ref
	return true
}

// Resolve implements Index.
func (x *EventIndex) Resolve(roomID string) (Ref, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	ref, ok := x.rooms[roomID]
	return ref, ok
}

// Len returns the number of known rooms.
func (x *EventIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.rooms)
}
