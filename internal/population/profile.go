// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package population generates the simulated users: their home location,
// primary building, workspace, authorized-room set and behavior variant,
// together with the answer key that records this ground truth.
package population

import (
	"fmt"
	"sort"

	"github.com/tomtom215/badgesim/internal/facility"
)

// UserPrefix prefixes user identifiers.
const UserPrefix = "USER_"

// Variant is the closed set of behavior variants.
type Variant string

// Behavior variants.
const (
	VariantNormal  Variant = "normal"
	VariantCurious Variant = "curious"
	VariantCloned  Variant = "cloned"
)

// Variants lists every variant in report order.
var Variants = []Variant{VariantNormal, VariantCurious, VariantCloned}

// ParseVariant parses a variant name.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown behavior variant %q", s)
}

// Profile is one simulated user. Profiles are immutable once generated
// and shared read-only between generation workers.
type Profile struct {
	ID    string
	Index int

	HomeLocation    *facility.Location
	PrimaryBuilding *facility.Building
	Workspace       *facility.Room

	// Grants lists the restricted room types the user holds a role grant
	// for, at the home location.
	Grants []facility.RoomType

	Variant Variant
	// CloneDays are the day indexes on which a cloned badge is used.
	CloneDays []int

	// authorized caches the rooms the access policy resolves for the
	// user's roles.
	authorized map[string]struct{}
}

// IsAuthorized reports whether the user's badge opens the room.
func (p *Profile) IsAuthorized(roomID string) bool {
	_, ok := p.authorized[roomID]
	return ok
}

// AuthorizedCount returns the size of the authorized-room set.
func (p *Profile) AuthorizedCount() int {
	return len(p.authorized)
}

// AuthorizedRooms returns the authorized-room set, sorted.
func (p *Profile) AuthorizedRooms() []string {
	out := make([]string, 0, len(p.authorized))
	for id := range p.authorized {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsCloneDay reports whether the cloned badge is used on the given day.
func (p *Profile) IsCloneDay(day int) bool {
	for _, d := range p.CloneDays {
		if d == day {
			return true
		}
	}
	return false
}

// HasGrant reports whether the user holds a role grant for the room type.
func (p *Profile) HasGrant(t facility.RoomType) bool {
	for _, g := range p.Grants {
		if g == t {
			return true
		}
	}
	return false
}

// Population is the generated user set.
type Population struct {
	Profiles []*Profile
	byID     map[string]*Profile
	access   *AccessPolicy
}

// Access returns the badge policy the profiles' authorized rooms were
// resolved from.
func (p *Population) Access() *AccessPolicy {
	return p.access
}

// Profile returns the user with the given identifier.
func (p *Population) Profile(id string) (*Profile, bool) {
	u, ok := p.byID[id]
	return u, ok
}

// CountByVariant returns the number of users per variant.
func (p *Population) CountByVariant() map[Variant]int {
	counts := make(map[Variant]int, len(Variants))
	for _, u := range p.Profiles {
		counts[u.Variant]++
	}
	return counts
}

// AnswerKey returns the ground-truth entries of every user, in user order.
func (p *Population) AnswerKey() []AnswerKeyEntry {
	out := make([]AnswerKeyEntry, 0, len(p.Profiles))
	for _, u := range p.Profiles {
		out = append(out, u.AnswerKeyEntry())
	}
	return out
}

// AnswerKeyEntry returns the user's ground truth.
func (p *Profile) AnswerKeyEntry() AnswerKeyEntry {
	cloneDays := make([]int, len(p.CloneDays))
	copy(cloneDays, p.CloneDays)
	return AnswerKeyEntry{
		UserID:          p.ID,
		HomeLocation:    p.HomeLocation.ID,
		PrimaryBuilding: p.PrimaryBuilding.ID,
		Workspace:       p.Workspace.ID,
		AuthorizedRooms: p.AuthorizedRooms(),
		BehaviorVariant: p.Variant,
		CloneDays:       cloneDays,
	}
}
