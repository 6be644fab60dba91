// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

//go:build !nats

package sink

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// NATSAvailable reports whether the binary was built with NATS support.
const NATSAvailable = false

// NewNATSPublisher returns ErrNATSUnavailable when NATS dependencies are
// not compiled in. Build with -tags=nats to enable it.
func NewNATSPublisher(_ NATSConfig, _ watermill.LoggerAdapter) (message.Publisher, error) {
	return nil, ErrNATSUnavailable
}
