// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package sink

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/metrics"
)

// Clock sleeps. Tests substitute a recording clock.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PacedConfig controls real-time emission.
type PacedConfig struct {
	// Acceleration divides simulated time: 60 plays an hour in a minute.
	Acceleration float64
	// MaxDelay bounds a single sleep; 0 means unbounded.
	MaxDelay time.Duration
	// MaxEventsPerSecond caps throughput with a token bucket; 0 disables it.
	MaxEventsPerSecond float64
}

// Paced forwards events to another sink, sleeping the simulated time
// between consecutive events divided by the acceleration factor.
// Timestamps are never altered.
type Paced struct {
	next    Sink
	cfg     PacedConfig
	clock   Clock
	limiter *rate.Limiter
	prev    time.Time
}

// NewPaced wraps next.
func NewPaced(next Sink, cfg PacedConfig) (*Paced, error) {
	return NewPacedWithClock(next, cfg, realClock{})
}

// NewPacedWithClock wraps next using the given clock.
func NewPacedWithClock(next Sink, cfg PacedConfig, clock Clock) (*Paced, error) {
	if cfg.Acceleration <= 0 {
		return nil, errors.New("time acceleration factor must be positive")
	}
	if cfg.MaxDelay < 0 || cfg.MaxEventsPerSecond < 0 {
		return nil, errors.New("pacing limits must not be negative")
	}
	p := &Paced{next: next, cfg: cfg, clock: clock}
	if cfg.MaxEventsPerSecond > 0 {
		burst := int(cfg.MaxEventsPerSecond)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(cfg.MaxEventsPerSecond), burst)
	}
	return p, nil
}

// Delay returns the wall-clock pause for a simulated gap.
func (p *Paced) Delay(simulated time.Duration) time.Duration {
	if simulated <= 0 {
		return 0
	}
	d := time.Duration(float64(simulated) / p.cfg.Acceleration)
	if p.cfg.MaxDelay > 0 && d > p.cfg.MaxDelay {
		d = p.cfg.MaxDelay
	}
	return d
}

// Write implements Sink.
func (p *Paced) Write(ctx context.Context, e events.Event) error {
	if !p.prev.IsZero() {
		if d := p.Delay(e.Timestamp.Sub(p.prev)); d > 0 {
			metrics.RecordPacingDelay(d)
			if err := p.clock.Sleep(ctx, d); err != nil {
				return err
			}
		}
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	p.prev = e.Timestamp
	if err := p.next.Write(ctx, e); err != nil {
		return err
	}
	// Streamed events are visible as soon as they are due.
	if f, ok := p.next.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close implements Sink.
func (p *Paced) Close() error {
	return p.next.Close()
}
