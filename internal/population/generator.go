// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package population

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/seeds"
)

// travelGrantProbability is the chance a user holds the visitor role of
// each other building at the home location.
const travelGrantProbability = 0.3

// roleGrants are the per-type probabilities of a grant role, walked in
// this order. A grant opens every room of that type at the home location.
var roleGrants = []struct {
	Type        facility.RoomType
	Probability float64
}{
	{facility.RoomServer, 0.05},
	{facility.RoomExecutiveOffice, 0.02},
	{facility.RoomLaboratory, 0.03},
	{facility.RoomStorage, 0.10},
}

// Params controls population generation.
type Params struct {
	UserCount int
	// LocationWeights are per-location population shares; empty means uniform.
	LocationWeights   []float64
	CuriousPercentage float64
	ClonedPercentage  float64

	// Days and CloneDayProbability select the clone days of cloned users.
	Days                int
	CloneDayProbability float64
	// Seed is the run seed; clone days use per user-day sub-seeds.
	Seed uint64
}

// Generate creates the population. Identical sources, facilities and
// params produce identical populations.
//
// Variant policy: the curious and cloned draws are independent Bernoulli
// trials; when both succeed the user is cloned. Cloned users need at least
// two locations, so with a single location the cloned draw is ignored.
func Generate(rng *rand.Rand, f *facility.Facility, p Params) (*Population, error) {
	if p.UserCount < 1 {
		return nil, errors.New("user count must be at least 1")
	}
	if p.Days < 1 {
		return nil, errors.New("days must be at least 1")
	}
	if len(p.LocationWeights) != 0 && len(p.LocationWeights) != len(f.Locations) {
		return nil, fmt.Errorf("%d location weights for %d locations", len(p.LocationWeights), len(f.Locations))
	}

	clonesEnabled := len(f.Locations) >= 2
	if !clonesEnabled && p.ClonedPercentage > 0 {
		logging.Warn().
			Float64("cloned_badge_percentage", p.ClonedPercentage).
			Msg("Cloned badges need at least two locations; no cloned users will be generated")
	}

	access, err := NewAccessPolicy(f)
	if err != nil {
		return nil, err
	}
	pop := &Population{
		Profiles: make([]*Profile, 0, p.UserCount),
		byID:     make(map[string]*Profile, p.UserCount),
		access:   access,
	}
	for i := 0; i < p.UserCount; i++ {
		u, roles := generateProfile(rng, f, &p, i, clonesEnabled)
		if _, dup := pop.byID[u.ID]; dup {
			return nil, fmt.Errorf("duplicate user id %s", u.ID)
		}
		if u.authorized, err = access.Assign(u.ID, u.HomeLocation.ID, roles); err != nil {
			return nil, err
		}
		pop.Profiles = append(pop.Profiles, u)
		pop.byID[u.ID] = u
	}
	return pop, nil
}

// generateProfile draws one user and the access roles of its badge.
func generateProfile(rng *rand.Rand, f *facility.Facility, p *Params, index int, clonesEnabled bool) (*Profile, []string) {
	u := &Profile{
		ID:    userID(rng),
		Index: index,
	}

	u.HomeLocation = f.Locations[pickLocation(rng, len(f.Locations), p.LocationWeights)]
	u.PrimaryBuilding = u.HomeLocation.Buildings[rng.Intn(len(u.HomeLocation.Buildings))]
	u.Workspace = pickWorkspace(rng, u.PrimaryBuilding)

	roles := []string{RoleCommon, MemberRole(u.PrimaryBuilding.ID)}
	for _, b := range u.HomeLocation.Buildings {
		if b == u.PrimaryBuilding {
			continue
		}
		if rng.Float64() < travelGrantProbability {
			roles = append(roles, VisitorRole(b.ID))
		}
	}
	for _, g := range roleGrants {
		if rng.Float64() >= g.Probability {
			continue
		}
		u.Grants = append(u.Grants, g.Type)
		roles = append(roles, GrantRole(g.Type))
	}

	// Both draws always happen so the source advances identically
	// regardless of the outcome.
	curious := rng.Float64() < p.CuriousPercentage
	cloned := rng.Float64() < p.ClonedPercentage && clonesEnabled
	switch {
	case cloned:
		u.Variant = VariantCloned
		u.CloneDays = cloneDays(p, index)
	case curious:
		u.Variant = VariantCurious
	default:
		u.Variant = VariantNormal
	}
	return u, roles
}

func userID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		panic(fmt.Sprintf("uuid from seeded source: %v", err))
	}
	return UserPrefix + strings.ReplaceAll(id.String(), "-", "")
}

// pickLocation draws a location index by weight, uniformly when no
// weights are configured.
func pickLocation(rng *rand.Rand, n int, weights []float64) int {
	if len(weights) == 0 {
		return rng.Intn(n)
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	// Floating point remainder: return the last location with weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return i
		}
	}
	return n - 1
}

// pickWorkspace returns a random workspace of the building, else a random
// standard room, else the lobby.
func pickWorkspace(rng *rand.Rand, b *facility.Building) *facility.Room {
	if ws := b.RoomsOfType(facility.RoomWorkspace); len(ws) > 0 {
		return ws[rng.Intn(len(ws))]
	}
	var standard []*facility.Room
	for _, r := range b.Rooms {
		if r.Security == facility.SecurityStandard {
			standard = append(standard, r)
		}
	}
	if len(standard) > 0 {
		return standard[rng.Intn(len(standard))]
	}
	return b.Lobby()
}

// cloneDays selects the days a cloned badge is used, each decided by its
// own user-day sub-seed. At least one day is always selected so every
// cloned user is observable.
func cloneDays(p *Params, index int) []int {
	days := []int{}
	for d := 0; d < p.Days; d++ {
		r := seeds.New(p.Seed, seeds.StreamCloneDays, uint64(index), uint64(d))
		if r.Float64() < p.CloneDayProbability {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		r := seeds.New(p.Seed, seeds.StreamCloneDays, uint64(index), uint64(p.Days))
		days = append(days, r.Intn(p.Days))
	}
	return days
}
