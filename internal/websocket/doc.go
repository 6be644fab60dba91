// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

/*
Package websocket serves a live feed of generated badge events.

The feed is enabled with metrics.event_feed and mounted at /events on the
metrics address. Every event the simulator emits is broadcast to the
connected clients as it is written, which pairs naturally with streaming
mode where events leave at accelerated wall-clock pace.

Architecture:

	Simulator -> Feed (sink.Sink) -> Hub -> Client1 .. ClientN

Each client has two goroutines:
  - readPump: reads subscriber frames and leaves the hub when the connection ends
  - writePump: writes queued frames and keeps the connection alive

Frame Types:

  - event: one badge event, encoded exactly as a JSONL output line
  - progress: a run progress snapshot
  - alert: a user flagged by the in-process analysis of a generate run
  - ping / pong: application level keepalive
  - subscribe: sent by a client with "types" to receive only those frames

Broadcast frames carry a sequence number. Delivery is best effort: a client
whose queue is full is dropped rather than slowing the simulation down, and a
full broadcast queue drops the frame, which shows as a gap in seq.

Usage Example:

	hub := websocket.NewHub()
	tree.AddEndpoint(services.NewEventFeedService(hub))

	router.Handle("/events", websocket.Handler(hub, cfg.Metrics.AllowedOrigins))
	out := sink.NewMulti(file, websocket.NewFeed(hub, serializer))
*/
package websocket
