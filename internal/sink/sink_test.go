// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package sink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/badgesim/internal/events"
)

var t0 = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

func event(user string, offset time.Duration) events.Event {
	return events.Event{
		Timestamp:  t0.Add(offset),
		UserID:     user,
		RoomID:     "ROOM_1",
		BuildingID: "BLD_1",
		LocationID: "LOC_1",
		Success:    true,
		Type:       events.TypeSuccess,
	}
}

func serializer() *events.Serializer {
	return events.NewSerializer(events.Options{})
}

// nopCloser tracks Close calls on a buffer.
type nopCloser struct {
	bytes.Buffer
	closed int
}

func (c *nopCloser) Close() error {
	c.closed++
	return nil
}

func TestJSONL_WritesLines(t *testing.T) {
	t.Parallel()

	out := &nopCloser{}
	s := NewJSONL(out, serializer(), 4096)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Write(ctx, event("USER_a", time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if out.Len() != 0 {
		t.Error("events reached the writer before flush")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if out.closed != 1 {
		t.Errorf("underlying writer closed %d times, want 1", out.closed)
	}

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	want := `{"timestamp":"2025-01-06T09:01:00.000Z","user_id":"USER_a","room_id":"ROOM_1","building_id":"BLD_1","location_id":"LOC_1","success":true}`
	if lines[1] != want {
		t.Errorf("line = %s\nwant   %s", lines[1], want)
	}
}

func TestJSONL_RejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	s := NewJSONL(&bytes.Buffer{}, serializer(), 512)
	if err := s.Write(context.Background(), events.Event{}); err == nil {
		t.Error("expected error for empty event")
	}
}

func TestOpenJSONL_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	s, err := OpenJSONL(path, serializer(), 512)
	if err != nil {
		t.Fatalf("OpenJSONL() error = %v", err)
	}
	if err := s.Write(context.Background(), event("USER_a", 0)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	res, err := serializer().ReadAll(bytes.NewReader(data))
	if err != nil || len(res.Events) != 1 || res.Malformed != 0 {
		t.Errorf("ReadAll() = %+v, %v", res, err)
	}

	if _, err := OpenJSONL(filepath.Join(t.TempDir(), "missing", "x.jsonl"), serializer(), 512); err == nil {
		t.Error("expected error for missing directory")
	}
}

// recordingClock records requested sleeps without sleeping.
type recordingClock struct {
	sleeps []time.Duration
}

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	return ctx.Err()
}

func TestPaced_Delays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      PacedConfig
		offsets  []time.Duration
		expected []time.Duration
	}{
		{
			name:     "real time",
			cfg:      PacedConfig{Acceleration: 1},
			offsets:  []time.Duration{0, 2 * time.Second, 2 * time.Second, 5 * time.Second},
			expected: []time.Duration{2 * time.Second, 3 * time.Second},
		},
		{
			name:     "accelerated",
			cfg:      PacedConfig{Acceleration: 60},
			offsets:  []time.Duration{0, 30 * time.Minute},
			expected: []time.Duration{30 * time.Second},
		},
		{
			name:     "bounded",
			cfg:      PacedConfig{Acceleration: 1, MaxDelay: 5 * time.Second},
			offsets:  []time.Duration{0, time.Hour},
			expected: []time.Duration{5 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &recordingClock{}
			collector := &Collector{}
			p, err := NewPacedWithClock(collector, tt.cfg, clock)
			if err != nil {
				t.Fatalf("NewPacedWithClock() error = %v", err)
			}
			for _, off := range tt.offsets {
				if err := p.Write(context.Background(), event("USER_a", off)); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if len(clock.sleeps) != len(tt.expected) {
				t.Fatalf("sleeps = %v, want %v", clock.sleeps, tt.expected)
			}
			for i := range tt.expected {
				if clock.sleeps[i] != tt.expected[i] {
					t.Errorf("sleep %d = %v, want %v", i, clock.sleeps[i], tt.expected[i])
				}
			}
			for i, e := range collector.Events {
				if !e.Timestamp.Equal(t0.Add(tt.offsets[i])) {
					t.Errorf("event %d timestamp altered to %s", i, e.Timestamp)
				}
			}
		})
	}
}

func TestPaced_Cancelled(t *testing.T) {
	t.Parallel()

	p, err := NewPaced(&Collector{}, PacedConfig{Acceleration: 1})
	if err != nil {
		t.Fatalf("NewPaced() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Write(ctx, event("USER_a", 0)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	cancel()
	if err := p.Write(ctx, event("USER_a", time.Hour)); !errors.Is(err, context.Canceled) {
		t.Errorf("Write() error = %v, want context.Canceled", err)
	}
}

func TestPaced_InvalidConfig(t *testing.T) {
	t.Parallel()

	for _, cfg := range []PacedConfig{
		{Acceleration: 0},
		{Acceleration: 1, MaxDelay: -time.Second},
		{Acceleration: 1, MaxEventsPerSecond: -1},
	} {
		if _, err := NewPaced(Discard{}, cfg); err == nil {
			t.Errorf("NewPaced(%+v) expected error", cfg)
		}
	}
}

func TestPublisher_GoChannel(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "badge-events")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	p, err := NewPublisher(pubSub, "badge-events", events.NewSerializer(events.Options{IncludeEventType: true}))
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	p.SetCircuitBreaker(NewCircuitBreaker(DefaultCircuitBreakerConfig("test-publisher")))

	sent := []events.Event{event("USER_a", 0), event("USER_b", time.Minute)}
	go func() {
		for _, e := range sent {
			if err := p.Write(ctx, e); err != nil {
				t.Errorf("Write() error = %v", err)
			}
		}
	}()

	for i, want := range sent {
		select {
		case msg := <-messages:
			got, err := serializer().Unmarshal(msg.Payload)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got.UserID != want.UserID || !got.Timestamp.Equal(want.Timestamp) {
				t.Errorf("message %d = %+v, want %+v", i, got, want)
			}
			if msg.Metadata.Get(MetadataUserID) != want.UserID || msg.Metadata.Get(MetadataEventType) != "success" {
				t.Errorf("message %d metadata = %v", i, msg.Metadata)
			}
			if msg.UUID == "" {
				t.Error("message without uuid")
			}
			msg.Ack()
		case <-ctx.Done():
			t.Fatal("timed out waiting for message")
		}
	}

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := p.Write(context.Background(), event("USER_a", 0)); err == nil {
		t.Error("expected error after Close")
	}
}

// failingPublisher rejects every message.
type failingPublisher struct {
	calls int
}

func (f *failingPublisher) Publish(string, ...*message.Message) error {
	f.calls++
	return errors.New("bus unavailable")
}

func (f *failingPublisher) Close() error { return nil }

func TestPublisher_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	fp := &failingPublisher{}
	p, err := NewPublisher(fp, "badge-events", serializer())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	cfg := DefaultCircuitBreakerConfig("test-failing")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	p.SetCircuitBreaker(NewCircuitBreaker(cfg))

	for i := 0; i < 2; i++ {
		if err := p.Write(context.Background(), event("USER_a", 0)); err == nil {
			t.Fatal("expected publish error")
		}
	}
	err = p.Write(context.Background(), event("USER_a", 0))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Write() error = %v, want open breaker", err)
	}
	if fp.calls != 2 {
		t.Errorf("publisher called %d times, want 2", fp.calls)
	}
}

func TestNewPublisher_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := NewPublisher(nil, "t", serializer()); err == nil {
		t.Error("expected error for nil publisher")
	}
	if _, err := NewPublisher(&failingPublisher{}, "", serializer()); err == nil {
		t.Error("expected error for empty topic")
	}
}

func TestMulti_FanOutAndClose(t *testing.T) {
	t.Parallel()

	a, b := &Collector{}, &Collector{}
	out := &nopCloser{}
	j := NewJSONL(out, serializer(), 512)
	m := NewMulti(a, b, j)
	if err := m.Write(context.Background(), event("USER_a", 0)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if out.Len() == 0 {
		t.Error("Flush() did not reach the JSONL sink")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(a.Events) != 1 || len(b.Events) != 1 || out.closed != 1 {
		t.Errorf("fan-out incomplete: %d, %d, closed %d", len(a.Events), len(b.Events), out.closed)
	}
}

func TestNATSStubOrReal(t *testing.T) {
	t.Parallel()

	if NATSAvailable {
		t.Skip("built with NATS support")
	}
	if _, err := NewNATSPublisher(DefaultNATSConfig("nats://localhost:4222"), nil); !errors.Is(err, ErrNATSUnavailable) {
		t.Errorf("NewNATSPublisher() error = %v, want ErrNATSUnavailable", err)
	}
}
