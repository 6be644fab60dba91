// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package services adapts badgesim components to the suture.Service
// interface so they can run under the supervisor tree.
//
// JobService runs a generate or analyze job exactly once and ends the tree
// when it returns. EndpointService binds the metrics address and drains it
// on shutdown. EventFeedService runs the event feed hub until it stops.
package services
