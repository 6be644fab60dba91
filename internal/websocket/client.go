// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/badgesim/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// clientIDCounter gives clients increasing IDs so broadcasts visit them in
// connection order.
var clientIDCounter atomic.Uint64

// Client is one feed subscriber. A new client receives every frame type
// until it sends a subscribe frame.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan Message
	closed bool
	topics map[string]bool // nil: all frame types
}

// NewClient creates a client for conn.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return newClient(hub, conn, sendBuffer)
}

func newClient(hub *Hub, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, buffer),
	}
}

// ID returns the client's connection-order identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// enqueue queues msg without blocking. It reports false when the queue is
// full or the client has been closed.
func (c *Client) enqueue(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close ends the write pump. Calling it again is a no-op.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// wants reports whether the client subscribed to frames of this type.
func (c *Client) wants(messageType string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topics == nil || c.topics[messageType]
}

// subscribe limits the client to the given frame types. An empty list
// restores every type.
func (c *Client) subscribe(types []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(types) == 0 {
		c.topics = nil
		return
	}
	c.topics = make(map[string]bool, len(types))
	for _, t := range types {
		c.topics[t] = true
	}
}

// handle acts on one client frame: ping gets a pong, subscribe replaces the
// topic filter. Anything else is ignored.
func (c *Client) handle(msg *clientMessage) {
	switch msg.Type {
	case MessageTypePing:
		c.enqueue(Message{Type: MessageTypePong})
	case MessageTypeSubscribe:
		c.subscribe(msg.Types)
		logging.Debug().Uint64("client_id", c.id).Strs("types", msg.Types).Msg("Event feed subscription changed")
	}
}

// clientMessage is a frame sent by a subscriber.
type clientMessage struct {
	Type  string   `json:"type"`
	Types []string `json:"types,omitempty"`
}

// readPump reads client frames until the connection fails, then leaves the
// hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Unexpected event feed close")
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Ignoring malformed feed frame")
			continue
		}
		c.handle(&msg)
	}
}

// writePump writes queued frames and keepalive pings until the send queue
// is closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Event feed write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
