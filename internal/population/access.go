// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package population

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tomtom215/badgesim/internal/facility"
)

//go:embed access_model.conf
var accessModel string

// Access roles. Building and room-type roles carry the identifier after
// the colon.
const (
	RoleCommon        = "common"
	rolePrefixMember  = "member:"
	rolePrefixVisitor = "visitor:"
	rolePrefixGrant   = "grant:"
)

// MemberRole opens the public and standard rooms of a building.
func MemberRole(buildingID string) string { return rolePrefixMember + buildingID }

// VisitorRole opens the public rooms and meeting rooms of a building.
func VisitorRole(buildingID string) string { return rolePrefixVisitor + buildingID }

// GrantRole opens every room of a restricted type at the badge's location.
func GrantRole(t facility.RoomType) string { return rolePrefixGrant + string(t) }

// AccessPolicy holds the facility's badge policy in a casbin enforcer.
// Each location is a domain; a user's roles are assigned in the domain of
// the home location.
type AccessPolicy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewAccessPolicy builds the role permissions of every location of f.
func NewAccessPolicy(f *facility.Facility) (*AccessPolicy, error) {
	m, err := model.NewModelFromString(accessModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load access model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create access enforcer: %w", err)
	}

	var rules [][]string
	for _, loc := range f.Locations {
		// Lobbies are common areas for every badge.
		for _, r := range f.Lobbies() {
			rules = append(rules, []string{RoleCommon, loc.ID, r.ID})
		}
		for _, b := range loc.Buildings {
			for _, r := range b.Rooms {
				if !r.Security.RequiresGrant() {
					rules = append(rules, []string{MemberRole(b.ID), loc.ID, r.ID})
				}
				if r.Security == facility.SecurityPublic || r.Type == facility.RoomMeeting {
					rules = append(rules, []string{VisitorRole(b.ID), loc.ID, r.ID})
				}
			}
		}
		for _, g := range roleGrants {
			for _, b := range loc.Buildings {
				for _, r := range b.RoomsOfType(g.Type) {
					rules = append(rules, []string{GrantRole(g.Type), loc.ID, r.ID})
				}
			}
		}
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("failed to add access policies: %w", err)
		}
	}
	return &AccessPolicy{enforcer: enforcer}, nil
}

// Assign gives the user the roles in the home domain and returns the rooms
// those roles open.
func (a *AccessPolicy) Assign(userID, home string, roles []string) (map[string]struct{}, error) {
	links := make([][]string, 0, len(roles))
	for _, role := range roles {
		links = append(links, []string{userID, role, home})
	}
	if len(links) > 0 {
		if _, err := a.enforcer.AddGroupingPolicies(links); err != nil {
			return nil, fmt.Errorf("failed to assign roles to %s: %w", userID, err)
		}
	}

	perms, err := a.enforcer.GetImplicitPermissionsForUser(userID, home)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve rooms of %s: %w", userID, err)
	}
	rooms := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		rooms[p[2]] = struct{}{}
	}
	return rooms, nil
}

// Allows reports whether the user's badge, issued at home, opens the room.
func (a *AccessPolicy) Allows(userID, home, roomID string) (bool, error) {
	ok, err := a.enforcer.Enforce(userID, home, roomID)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return ok, nil
}

// Roles returns the user's roles in the home domain.
func (a *AccessPolicy) Roles(userID, home string) []string {
	return a.enforcer.GetRolesForUserInDomain(userID, home)
}
