// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package services

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/badgesim/internal/logging"
)

// FeedHub is the part of *websocket.Hub the feed service drives.
type FeedHub interface {
	RunWithContext(ctx context.Context) error
	Dropped() uint64
	Done() <-chan struct{}
}

// EventFeedService runs the event feed hub. A hub closes its clients when
// it stops and cannot be started again, so the service is never restarted
// once the hub has run to completion.
//
//	hub := websocket.NewHub()
//	tree.AddEndpoint(services.NewEventFeedService(hub))
type EventFeedService struct {
	hub FeedHub
}

// NewEventFeedService creates the service.
func NewEventFeedService(hub FeedHub) *EventFeedService {
	return &EventFeedService{hub: hub}
}

// Serve implements suture.Service.
func (s *EventFeedService) Serve(ctx context.Context) error {
	select {
	case <-s.hub.Done():
		return suture.ErrDoNotRestart
	default:
	}

	err := s.hub.RunWithContext(ctx)
	if dropped := s.hub.Dropped(); dropped > 0 {
		logging.Warn().Uint64("frames_dropped", dropped).Msg("Event feed dropped frames on a full queue")
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err == nil {
		return suture.ErrDoNotRestart
	}
	return err
}

// String identifies the service in supervisor logs.
func (s *EventFeedService) String() string {
	return "event-feed"
}
