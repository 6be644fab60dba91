// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package facility

import (
	"fmt"
)

// Facility is the complete, read-only hierarchy of one run. It is safe for
// concurrent reads once built.
type Facility struct {
	Locations []*Location

	locations map[string]*Location
	buildings map[string]*Building
	rooms     map[string]*Room
	lobbies   []*Room
	roomCount int
}

// New indexes a hierarchy and checks its integrity: every building
// references an existing location, every room an existing building, and
// every building starts with a lobby.
func New(locations []*Location) (*Facility, error) {
	f := &Facility{
		Locations: locations,
		locations: make(map[string]*Location, len(locations)),
		buildings: make(map[string]*Building),
		rooms:     make(map[string]*Room),
	}

	for _, loc := range locations {
		if _, dup := f.locations[loc.ID]; dup {
			return nil, fmt.Errorf("duplicate location %s", loc.ID)
		}
		f.locations[loc.ID] = loc
	}

	for _, loc := range locations {
		for _, b := range loc.Buildings {
			if b.LocationID != loc.ID {
				return nil, fmt.Errorf("building %s references location %s but is listed under %s", b.ID, b.LocationID, loc.ID)
			}
			if _, dup := f.buildings[b.ID]; dup {
				return nil, fmt.Errorf("duplicate building %s", b.ID)
			}
			if len(b.Rooms) == 0 || b.Rooms[0].Type != RoomLobby {
				return nil, fmt.Errorf("building %s has no lobby", b.ID)
			}
			f.buildings[b.ID] = b

			for _, r := range b.Rooms {
				if r.BuildingID != b.ID || r.LocationID != loc.ID {
					return nil, fmt.Errorf("room %s does not reference building %s at %s", r.ID, b.ID, loc.ID)
				}
				if _, dup := f.rooms[r.ID]; dup {
					return nil, fmt.Errorf("duplicate room %s", r.ID)
				}
				f.rooms[r.ID] = r
			}
			f.lobbies = append(f.lobbies, b.Lobby())
			f.roomCount += len(b.Rooms)
		}
	}

	return f, nil
}

// Location returns the location with the given identifier.
func (f *Facility) Location(id string) (*Location, bool) {
	l, ok := f.locations[id]
	return l, ok
}

// Building returns the building with the given identifier.
func (f *Facility) Building(id string) (*Building, bool) {
	b, ok := f.buildings[id]
	return b, ok
}

// Room returns the room with the given identifier.
func (f *Facility) Room(id string) (*Room, bool) {
	r, ok := f.rooms[id]
	return r, ok
}

// Resolve implements Index.
func (f *Facility) Resolve(roomID string) (Ref, bool) {
	r, ok := f.rooms[roomID]
	if !ok {
		return Ref{}, false
	}
	return r.Ref(), true
}

// Lobbies returns every lobby, the global common-area set.
func (f *Facility) Lobbies() []*Room {
	return f.lobbies
}

// Rooms returns every room in hierarchy order.
func (f *Facility) Rooms() []*Room {
	out := make([]*Room, 0, f.roomCount)
	for _, loc := range f.Locations {
		for _, b := range loc.Buildings {
			out = append(out, b.Rooms...)
		}
	}
	return out
}

// BuildingCount returns the number of buildings.
func (f *Facility) BuildingCount() int {
	return len(f.buildings)
}

// RoomCount returns the number of rooms.
func (f *Facility) RoomCount() int {
	return f.roomCount
}

// RoomTypeCounts returns the number of rooms per type.
func (f *Facility) RoomTypeCounts() map[RoomType]int {
	counts := make(map[RoomType]int)
	for _, r := range f.rooms {
		counts[r.Type]++
	}
	return counts
}

// RoomTypes returns room identifier -> true room type, the ground truth
// the room classifier is scored against.
func (f *Facility) RoomTypes() map[string]RoomType {
	out := make(map[string]RoomType, len(f.rooms))
	for id, r := range f.rooms {
		out[id] = r.Type
	}
	return out
}
