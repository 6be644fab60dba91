// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package simulation

import (
	"sync/atomic"
	"time"
)

// Phase is the lifecycle stage of a run.
type Phase string

// Phases.
const (
	PhaseReady      Phase = "ready"
	PhaseGenerating Phase = "generating"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

// ProgressSnapshot is a point-in-time view of a run.
type ProgressSnapshot struct {
	Phase         Phase     `json:"phase"`
	Days          int       `json:"days"`
	DaysCompleted int       `json:"days_completed"`
	Events        int64     `json:"events"`
	SimulatedTime time.Time `json:"simulated_time,omitempty"`
}

// progress is updated by Run and read concurrently by the status endpoint.
type progress struct {
	phase     atomic.Value // Phase
	days      int
	completed atomic.Int64
	events    atomic.Int64
	simulated atomic.Int64 // unix millis of the last emitted event
}

func newProgress(days int) *progress {
	p := &progress{days: days}
	p.phase.Store(PhaseReady)
	return p
}

func (p *progress) snapshot() ProgressSnapshot {
	s := ProgressSnapshot{
		Phase:         p.phase.Load().(Phase),
		Days:          p.days,
		DaysCompleted: int(p.completed.Load()),
		Events:        p.events.Load(),
	}
	if ms := p.simulated.Load(); ms != 0 {
		s.SimulatedTime = time.UnixMilli(ms).UTC()
	}
	return s
}

// Progress returns the current progress of Run.
func (s *Simulator) Progress() ProgressSnapshot {
	return s.progress.snapshot()
}
