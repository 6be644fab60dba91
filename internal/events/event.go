// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package events defines the badge event record and its JSON Lines codec.
package events

import (
	"errors"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
)

// TimestampLayout is the wire layout: UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// EventType is the optional extended outcome annotation.
type EventType string

// Event types.
const (
	TypeSuccess    EventType = "success"
	TypeFailure    EventType = "failure"
	TypeSuspicious EventType = "suspicious"
)

// FailureReason explains a denied attempt in the optional extended output.
type FailureReason string

// Failure reasons.
const (
	ReasonNone         FailureReason = ""
	ReasonUnauthorized FailureReason = "unauthorized"
	ReasonCuriousUser  FailureReason = "curious_user"
)

// Event is one badge swipe. Events are immutable once emitted.
type Event struct {
	Timestamp  time.Time
	UserID     string
	RoomID     string
	BuildingID string
	LocationID string
	Success    bool

	// Extended annotations, written only when enabled.
	FailureReason FailureReason
	Type          EventType
}

// New builds an event at the given room. The timestamp is normalized to
// UTC millisecond precision so it survives a round trip through the codec.
func New(ts time.Time, userID string, room *facility.Room, success bool) Event {
	e := Event{
		Timestamp:  ts.UTC().Truncate(time.Millisecond),
		UserID:     userID,
		RoomID:     room.ID,
		BuildingID: room.BuildingID,
		LocationID: room.LocationID,
		Success:    success,
		Type:       TypeSuccess,
	}
	if !success {
		e.Type = TypeFailure
		e.FailureReason = ReasonUnauthorized
	}
	return e
}

// Ref returns the event's position in the facility hierarchy.
func (e *Event) Ref() facility.Ref {
	return facility.Ref{RoomID: e.RoomID, BuildingID: e.BuildingID, LocationID: e.LocationID}
}

// Validate checks that all identifiers and the timestamp are set.
func (e *Event) Validate() error {
	switch {
	case e.Timestamp.IsZero():
		return errors.New("timestamp is required")
	case e.UserID == "":
		return errors.New("user_id is required")
	case e.RoomID == "":
		return errors.New("room_id is required")
	case e.BuildingID == "":
		return errors.New("building_id is required")
	case e.LocationID == "":
		return errors.New("location_id is required")
	}
	return nil
}

// Before reports whether e sorts before o in the global stream ordering:
// timestamp, then user identifier.
func (e *Event) Before(o *Event) bool {
	if !e.Timestamp.Equal(o.Timestamp) {
		return e.Timestamp.Before(o.Timestamp)
	}
	return e.UserID < o.UserID
}
