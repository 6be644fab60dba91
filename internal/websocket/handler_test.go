// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/badgesim/internal/events"
)

func dial(t *testing.T, server *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

func TestHandler_Origins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantOK  bool
	}{
		{"no origin header", nil, "", true},
		{"cross origin rejected by default", nil, "http://dashboard.example", false},
		{"listed origin", []string{"http://dashboard.example"}, "http://dashboard.example", true},
		{"listed origin case insensitive", []string{"http://Dashboard.example"}, "http://dashboard.example", true},
		{"unlisted origin", []string{"http://dashboard.example"}, "http://other.example", false},
		{"wildcard", []string{"*"}, "http://other.example", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hub, _, _ := startHub(t)
			server := httptest.NewServer(Handler(hub, tt.allowed))
			defer server.Close()

			_, resp, err := dial(t, server, tt.origin)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Dial() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Dial() succeeded, want rejection")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestFeed_DeliversEncodedEvents(t *testing.T) {
	t.Parallel()

	hub, _, _ := startHub(t)
	server := httptest.NewServer(Handler(hub, nil))
	defer server.Close()

	conn, _, err := dial(t, server, "")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	serializer := events.NewSerializer(events.Options{IncludeFailureReason: true})
	feed := NewFeed(hub, serializer)
	ts := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	sent := []events.Event{
		{Timestamp: ts, UserID: "USER_A", RoomID: "ROOM_1", BuildingID: "BLD_1", LocationID: "LOC_1", Success: true},
		{Timestamp: ts.Add(time.Minute), UserID: "USER_B", RoomID: "ROOM_2", BuildingID: "BLD_1", LocationID: "LOC_1",
			FailureReason: events.ReasonUnauthorized},
	}
	ctx := context.Background()
	for _, e := range sent {
		if err := feed.Write(ctx, e); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := feed.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for _, want := range sent {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			t.Fatalf("Unmarshal(frame) error = %v", err)
		}
		if frame.Type != MessageTypeEvent {
			t.Errorf("frame type = %q, want %q", frame.Type, MessageTypeEvent)
		}
		got, err := serializer.Unmarshal(frame.Data)
		if err != nil {
			t.Fatalf("Unmarshal(event) error = %v", err)
		}
		if got.UserID != want.UserID || !got.Timestamp.Equal(want.Timestamp) || got.Success != want.Success {
			t.Errorf("event = %+v, want %+v", got, want)
		}
	}
}

func TestFeed_RejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	feed := NewFeed(NewHub(), events.NewSerializer(events.Options{}))
	if err := feed.Write(context.Background(), events.Event{}); err == nil {
		t.Error("Write() accepted an event without fields")
	}
}

func TestClient_AnswersPing(t *testing.T) {
	t.Parallel()

	hub, _, _ := startHub(t)
	server := httptest.NewServer(Handler(hub, nil))
	defer server.Close()

	conn, _, err := dial(t, server, "")
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageTypePong {
		t.Errorf("reply type = %q, want %q", msg.Type, MessageTypePong)
	}
}
