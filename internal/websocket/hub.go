// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/badgesim/internal/logging"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Frame types. Event, progress and alert frames flow to subscribers; ping
// and subscribe come from them.
const (
	MessageTypeEvent     = "event"
	MessageTypeProgress  = "progress"
	MessageTypeAlert     = "alert"
	MessageTypePing      = "ping"
	MessageTypePong      = "pong"
	MessageTypeSubscribe = "subscribe"
)

// broadcastBuffer bounds the hub queue; the simulator never blocks on it.
const broadcastBuffer = 1024

// Message is one frame sent to feed clients. Seq numbers broadcast frames
// from 1 in queue order, so a gap tells a subscriber frames were dropped.
type Message struct {
	Type string      `json:"type"`
	Seq  uint64      `json:"seq,omitempty"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
	dropped    uint64
	seq        uint64

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub. Call RunWithContext to start it.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// join registers client. It reports false, after closing the client, when
// the hub has already stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		client.close()
		return false
	}
}

// leave unregisters client. After the hub stops it returns at once.
func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// RunWithContext processes registrations and broadcasts until ctx is done,
// then closes every client and returns ctx.Err().
//
// Lifecycle events take priority over broadcasts so a client registered
// before a broadcast always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("Event feed client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	logging.Info().Uint64("client_id", client.id).Int("total_clients", n).Msg("Event feed client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	clientCount := h.ClientCount()
	h.stopOnce.Do(func() { close(h.done) })
	h.closeAllClients()

	reason := ShutdownReasonContextCanceled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", clientCount).
		Uint64("messages_dropped", h.Dropped()).
		Msg("Event feed stopped")
}

// sortedClients returns the clients in connection order. Callers hold mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients queues message on every subscribed client; clients
// with a full queue are disconnected.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		if !client.wants(message.Type) {
			continue
		}
		if !client.enqueue(message) {
			client.close()
			delete(h.clients, client)
			logging.Warn().Uint64("client_id", client.id).Msg("Event feed client too slow, disconnecting")
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		client.close()
		delete(h.clients, client)
	}
}

// Broadcast queues a message for every client. It never blocks: when the
// queue is full the message is dropped and counted, and its sequence
// number is skipped.
func (h *Hub) Broadcast(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	message.Seq = h.seq

	select {
	case h.broadcast <- message:
	default:
		h.dropped++
		logging.Debug().Str("message_type", message.Type).Uint64("seq", message.Seq).Msg("Event feed queue full, dropping message")
	}
}

// BroadcastJSON queues a message with the given type and payload.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	h.Broadcast(Message{Type: messageType, Data: data})
}

// BroadcastRaw queues an already encoded JSON payload.
func (h *Hub) BroadcastRaw(messageType string, data []byte) {
	h.Broadcast(Message{Type: messageType, Data: json.RawMessage(data)})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many broadcasts were dropped on a full queue.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
