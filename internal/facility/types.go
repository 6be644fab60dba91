// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package facility models the static location -> building -> room
// hierarchy, the room semantics used to bias generation, and the travel
// table shared by generation and analysis.
package facility

import (
	"fmt"
	"strings"
)

// Identifier prefixes.
const (
	LocationPrefix = "LOC_"
	BuildingPrefix = "BLD_"
	RoomPrefix     = "ROOM_"
)

// RoomType is the latent semantic type of a room.
type RoomType string

// Room types.
const (
	RoomLobby           RoomType = "lobby"
	RoomWorkspace       RoomType = "workspace"
	RoomMeeting         RoomType = "meeting_room"
	RoomBathroom        RoomType = "bathroom"
	RoomCafeteria       RoomType = "cafeteria"
	RoomKitchen         RoomType = "kitchen"
	RoomStorage         RoomType = "storage"
	RoomExecutiveOffice RoomType = "executive_office"
	RoomServer          RoomType = "server_room"
	RoomLaboratory      RoomType = "laboratory"
)

// WeightedRoomTypes lists the room types placed by weighted draw, in the
// fixed order the draw walks them. Lobbies are placed one per building.
var WeightedRoomTypes = []RoomType{
	RoomWorkspace,
	RoomMeeting,
	RoomBathroom,
	RoomKitchen,
	RoomStorage,
	RoomCafeteria,
	RoomExecutiveOffice,
	RoomServer,
	RoomLaboratory,
}

// ParseRoomType parses a room type key such as "meeting_room".
func ParseRoomType(s string) (RoomType, error) {
	t := RoomType(strings.ToLower(strings.TrimSpace(s)))
	if t == RoomLobby {
		return t, nil
	}
	for _, known := range WeightedRoomTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown room type %q", s)
}

// Title returns a display form such as "Meeting Room".
func (t RoomType) Title() string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Category returns the coarse category a room classifier can infer.
func (t RoomType) Category() Category {
	switch t {
	case RoomLobby:
		return CategoryLobby
	case RoomWorkspace:
		return CategoryOffice
	case RoomMeeting:
		return CategoryMeeting
	case RoomBathroom, RoomCafeteria, RoomKitchen:
		return CategoryBreak
	default:
		return CategoryRestricted
	}
}

// Category is the coarse room semantics observable from access patterns.
type Category string

// Room categories.
const (
	CategoryLobby      Category = "lobby"
	CategoryOffice     Category = "office"
	CategoryMeeting    Category = "meeting"
	CategoryBreak      Category = "break"
	CategoryRestricted Category = "restricted"
	CategoryUnknown    Category = "unknown"
)

// SecurityLevel orders rooms by sensitivity.
type SecurityLevel int

// Security levels, least to most sensitive.
const (
	SecurityPublic SecurityLevel = iota
	SecurityStandard
	SecurityRestricted
	SecurityHigh
	SecurityMax
)

// String returns the level name.
func (l SecurityLevel) String() string {
	switch l {
	case SecurityPublic:
		return "public"
	case SecurityStandard:
		return "standard"
	case SecurityRestricted:
		return "restricted"
	case SecurityHigh:
		return "high"
	case SecurityMax:
		return "max"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// RequiresGrant reports whether access needs an explicit role grant
// rather than building membership.
func (l SecurityLevel) RequiresGrant() bool {
	return l >= SecurityRestricted
}

// Location is a site holding one or more buildings.
type Location struct {
	ID        string
	Name      string
	Buildings []*Building
}

// Building belongs to one location and holds its rooms. Rooms[0] is
// always the lobby.
type Building struct {
	ID         string
	Name       string
	LocationID string
	Rooms      []*Room
}

// Lobby returns the building's lobby.
func (b *Building) Lobby() *Room {
	return b.Rooms[0]
}

// RoomsOfType returns the rooms of the given type, in building order.
func (b *Building) RoomsOfType(t RoomType) []*Room {
	var out []*Room
	for _, r := range b.Rooms {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Room is a badge-controlled door.
type Room struct {
	ID         string
	Name       string
	BuildingID string
	LocationID string
	Type       RoomType
	Security   SecurityLevel
}

// Ref returns the room's position in the hierarchy.
func (r *Room) Ref() Ref {
	return Ref{RoomID: r.ID, BuildingID: r.BuildingID, LocationID: r.LocationID}
}

// Ref locates a room in the hierarchy by identifiers only.
type Ref struct {
	RoomID     string
	BuildingID string
	LocationID string
}

// Index resolves a room identifier to its building and location.
type Index interface {
	Resolve(roomID string) (Ref, bool)
}
