// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/metrics"
)

// Message metadata keys.
const (
	MetadataUserID     = "user_id"
	MetadataLocationID = "location_id"
	MetadataEventType  = "event_type"
)

// Publisher publishes each event as one Watermill message. Publication
// goes through a circuit breaker so a failing bus aborts the run quickly
// instead of retrying every event.
type Publisher struct {
	publisher      message.Publisher
	topic          string
	serializer     *events.Serializer
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher wraps a Watermill publisher.
func NewPublisher(pub message.Publisher, topic string, serializer *events.Serializer) (*Publisher, error) {
	if pub == nil {
		return nil, fmt.Errorf("publisher sink: nil publisher")
	}
	if topic == "" {
		return nil, fmt.Errorf("publisher sink: empty topic")
	}
	return &Publisher{
		publisher:  pub,
		topic:      topic,
		serializer: serializer,
	}, nil
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Write implements Sink.
func (p *Publisher) Write(ctx context.Context, e events.Event) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := p.serializer.Marshal(&e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set(MetadataUserID, e.UserID)
	msg.Metadata.Set(MetadataLocationID, e.LocationID)
	if e.Type != "" {
		msg.Metadata.Set(MetadataEventType, string(e.Type))
	}
	msg.SetContext(ctx)

	publish := func() error { return p.publisher.Publish(p.topic, msg) }
	if p.circuitBreaker != nil {
		err = executeWithBreaker(p.circuitBreaker, publish)
	} else {
		err = publish()
	}
	metrics.RecordSinkWrite("publisher", err)
	if err != nil {
		return fmt.Errorf("publish event to %s: %w", p.topic, err)
	}
	return nil
}

// Close implements Sink.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}
