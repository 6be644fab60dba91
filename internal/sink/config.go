// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package sink

import (
	"errors"
	"time"
)

// ErrNATSUnavailable is returned by NewNATSPublisher in builds without the
// nats tag.
var ErrNATSUnavailable = errors.New("NATS publisher not available: build with -tags=nats")

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns production defaults for the given server.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
	}
}
