// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package websocket

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/badgesim/internal/logging"
)

const handshakeTimeout = 10 * time.Second

// Handler upgrades requests to feed connections registered with hub.
//
// With no allowed origins the upgrader's same-origin check applies. "*"
// allows any origin.
func Handler(hub *Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		HandshakeTimeout: handshakeTimeout,
	}
	if len(allowedOrigins) > 0 {
		upgrader.CheckOrigin = originChecker(allowedOrigins)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logging.Debug().Err(err).Msg("Event feed upgrade failed")
			return
		}
		client := NewClient(hub, conn)
		if !hub.join(client) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "event feed stopped"))
			_ = conn.Close()
			return
		}
		client.Start()
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		logging.Warn().Str("origin", sanitizeOrigin(origin)).Msg("Event feed connection rejected from unauthorized origin")
		return false
	}
}

// sanitizeOrigin strips control characters before the value reaches a log.
func sanitizeOrigin(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
