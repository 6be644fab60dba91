// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package sink delivers the merged event stream: buffered JSON Lines
// output, real-time pacing, and publication on a Watermill message bus.
// Sinks are interchangeable and can be stacked (a paced sink wraps another
// sink; a multi-sink fans out to several).
package sink

import (
	"context"
	"errors"

	"github.com/tomtom215/badgesim/internal/events"
)

// Sink receives events in stream order. Write and Close are called from a
// single goroutine.
type Sink interface {
	Write(ctx context.Context, e events.Event) error
	// Close flushes buffered output and releases resources.
	Close() error
}

// Flusher is implemented by sinks that buffer output.
type Flusher interface {
	Flush() error
}

// Multi writes every event to each sink in order.
type Multi struct {
	sinks []Sink
}

// NewMulti returns a fan-out sink.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Write implements Sink. It stops at the first failing sink.
func (m *Multi) Write(ctx context.Context, e events.Event) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every buffering sink.
func (m *Multi) Flush() error {
	for _, s := range m.sinks {
		if f, ok := s.(Flusher); ok {
			if err := f.Flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close implements Sink. Every sink is closed; errors are joined.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event. It backs dry runs and analysis-only runs.
type Discard struct{}

// Write implements Sink.
func (Discard) Write(context.Context, events.Event) error { return nil }

// Close implements Sink.
func (Discard) Close() error { return nil }

// Collector keeps every event in memory, for analysis in the same run.
type Collector struct {
	Events []events.Event
}

// Write implements Sink.
func (c *Collector) Write(_ context.Context, e events.Event) error {
	c.Events = append(c.Events, e)
	return nil
}

// Close implements Sink.
func (c *Collector) Close() error { return nil }
