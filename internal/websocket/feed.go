// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package websocket

import (
	"context"

	"github.com/tomtom215/badgesim/internal/detection"
	"github.com/tomtom215/badgesim/internal/events"
)

// Feed is a sink that broadcasts every event to the hub's clients.
// Writes never block on clients.
type Feed struct {
	hub        *Hub
	serializer *events.Serializer
}

// NewFeed creates a feed that encodes events with serializer, so feed
// frames carry the same fields as the JSONL output.
func NewFeed(hub *Hub, serializer *events.Serializer) *Feed {
	return &Feed{hub: hub, serializer: serializer}
}

// Write implements sink.Sink.
func (f *Feed) Write(_ context.Context, e events.Event) error {
	data, err := f.serializer.Marshal(&e)
	if err != nil {
		return err
	}
	f.hub.BroadcastRaw(MessageTypeEvent, data)
	return nil
}

// Close implements sink.Sink. Clients stay connected until the hub stops.
func (f *Feed) Close() error {
	return nil
}

// Alert is the payload of an alert frame: one user flagged by a detector.
type Alert struct {
	Detector detection.DetectorName `json:"detector"`
	UserID   string                 `json:"user_id"`
	Reasons  []string               `json:"reasons,omitempty"`
	Days     []string               `json:"days,omitempty"`
}

// PublishAlerts broadcasts an alert frame per flagged user of the report,
// clones first. It returns the number of frames queued.
func PublishAlerts(hub *Hub, r *detection.Report) int {
	n := 0
	if t := r.ImpossibleTravel; t != nil {
		for _, s := range t.Suspects {
			hub.BroadcastJSON(MessageTypeAlert, Alert{
				Detector: detection.DetectorImpossibleTravel,
				UserID:   s.UserID,
				Days:     s.Days,
			})
			n++
		}
	}
	if c := r.CuriousUsers; c != nil {
		for _, finding := range c.Findings {
			hub.BroadcastJSON(MessageTypeAlert, Alert{
				Detector: detection.DetectorCuriousUser,
				UserID:   finding.UserID,
				Reasons:  finding.Reasons,
			})
			n++
		}
	}
	return n
}
