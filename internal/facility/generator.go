// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package facility

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// maxSecurityShare is the fraction of server rooms and laboratories
// generated at the max level rather than high.
const maxSecurityShare = 0.3

// cityNames provides location display names; later locations are numbered.
var cityNames = []string{
	"Seattle", "Portland", "San Francisco", "Denver", "Chicago",
	"Austin", "Atlanta", "Boston", "New York", "Toronto",
	"London", "Paris", "Berlin", "Amsterdam", "Dublin",
	"Zurich", "Tokyo", "Seoul", "Singapore", "Sydney",
}

// Params shapes the generated hierarchy.
type Params struct {
	LocationCount int
	MinBuildings  int
	MaxBuildings  int
	MinRooms      int
	MaxRooms      int
	// RoomTypeWeights are relative weights for non-lobby rooms.
	RoomTypeWeights map[RoomType]int
}

// Validate checks the ranges. The config layer rejects these earlier;
// Generate repeats the check so it never builds a malformed hierarchy.
func (p *Params) Validate() error {
	switch {
	case p.LocationCount < 1:
		return errors.New("location count must be at least 1")
	case p.MinBuildings < 1 || p.MinBuildings > p.MaxBuildings:
		return fmt.Errorf("invalid buildings range %d..%d", p.MinBuildings, p.MaxBuildings)
	case p.MinRooms < 2 || p.MinRooms > p.MaxRooms:
		return fmt.Errorf("invalid rooms range %d..%d", p.MinRooms, p.MaxRooms)
	}
	total := 0
	for t, w := range p.RoomTypeWeights {
		if t == RoomLobby {
			return errors.New("lobby cannot be weighted")
		}
		if w < 0 {
			return fmt.Errorf("negative weight for %s", t)
		}
		total += w
	}
	if total == 0 {
		return errors.New("room type weights must contain a positive weight")
	}
	return nil
}

// Generate builds a facility from a seeded source. Identical sources and
// params produce identical facilities, identifiers included.
func Generate(rng *rand.Rand, p Params) (*Facility, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("facility params: %w", err)
	}

	g := &generator{rng: rng, params: p}
	locations := make([]*Location, 0, p.LocationCount)
	for i := 0; i < p.LocationCount; i++ {
		locations = append(locations, g.location(i))
	}
	return New(locations)
}

type generator struct {
	rng    *rand.Rand
	params Params
}

// id returns prefix + a uuid in simple (unhyphenated) form drawn from the
// seeded source.
func (g *generator) id(prefix string) string {
	u, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand never fails to read
		panic(fmt.Sprintf("uuid from seeded source: %v", err))
	}
	return prefix + strings.ReplaceAll(u.String(), "-", "")
}

func (g *generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

func (g *generator) location(index int) *Location {
	loc := &Location{ID: g.id(LocationPrefix), Name: locationName(index)}
	n := g.between(g.params.MinBuildings, g.params.MaxBuildings)
	loc.Buildings = make([]*Building, 0, n)
	for i := 0; i < n; i++ {
		loc.Buildings = append(loc.Buildings, g.building(loc, i))
	}
	return loc
}

func locationName(index int) string {
	if index < len(cityNames) {
		return cityNames[index] + " Office"
	}
	return fmt.Sprintf("Location %d", index+1)
}

func (g *generator) building(loc *Location, index int) *Building {
	b := &Building{
		ID:         g.id(BuildingPrefix),
		Name:       buildingName(index),
		LocationID: loc.ID,
	}
	n := g.between(g.params.MinRooms, g.params.MaxRooms)
	b.Rooms = make([]*Room, 0, n)
	b.Rooms = append(b.Rooms, g.room(b, RoomLobby, 1))

	numbers := make(map[RoomType]int)
	for i := 1; i < n; i++ {
		t := g.roomType()
		numbers[t]++
		b.Rooms = append(b.Rooms, g.room(b, t, numbers[t]))
	}
	return b
}

// buildingName returns "Building A", "Building B", ... "Building AA".
func buildingName(index int) string {
	name := ""
	for n := index; ; n = n/26 - 1 {
		name = string(rune('A'+n%26)) + name
		if n < 26 {
			break
		}
	}
	return "Building " + name
}

func (g *generator) room(b *Building, t RoomType, number int) *Room {
	return &Room{
		ID:         g.id(RoomPrefix),
		Name:       fmt.Sprintf("%s %d", t.Title(), number),
		BuildingID: b.ID,
		LocationID: b.LocationID,
		Type:       t,
		Security:   g.securityLevel(t),
	}
}

// roomType draws a type by weight, walking WeightedRoomTypes in order.
func (g *generator) roomType() RoomType {
	total := 0
	for _, t := range WeightedRoomTypes {
		total += g.params.RoomTypeWeights[t]
	}
	n := g.rng.Intn(total)
	for _, t := range WeightedRoomTypes {
		w := g.params.RoomTypeWeights[t]
		if n < w {
			return t
		}
		n -= w
	}
	return RoomWorkspace
}

// securityLevel derives the level from the type.
func (g *generator) securityLevel(t RoomType) SecurityLevel {
	switch t {
	case RoomLobby, RoomBathroom, RoomCafeteria, RoomKitchen:
		return SecurityPublic
	case RoomWorkspace, RoomMeeting:
		return SecurityStandard
	case RoomStorage, RoomExecutiveOffice:
		return SecurityRestricted
	default:
		if g.rng.Float64() < maxSecurityShare {
			return SecurityMax
		}
		return SecurityHigh
	}
}
