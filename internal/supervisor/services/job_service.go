// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package services

import (
	"context"
	"errors"
	"sync"

	"github.com/thejerf/suture/v4"
)

// ErrJobInterrupted is recorded when the job panicked and suture tried to
// restart it.
var ErrJobInterrupted = errors.New("job interrupted before completion")

// Job is a finite unit of work such as a generation or analysis run.
type Job func(ctx context.Context) error

// JobService runs a Job once under the supervisor. When the job returns its
// result is recorded and onDone is called, which normally cancels the tree's
// context so the remaining services shut down.
type JobService struct {
	name   string
	job    Job
	onDone func()

	mu       sync.Mutex
	started  bool
	finished bool
	err      error
	done     chan struct{}
}

// NewJobService creates the service. onDone may be nil.
func NewJobService(name string, job Job, onDone func()) *JobService {
	return &JobService{
		name:   name,
		job:    job,
		onDone: onDone,
		done:   make(chan struct{}),
	}
}

// Serve implements suture.Service. It always returns suture.ErrDoNotRestart
// so the job is never run twice.
func (j *JobService) Serve(ctx context.Context) error {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return suture.ErrDoNotRestart
	}
	if j.started {
		// A previous Serve panicked.
		j.mu.Unlock()
		j.finish(ErrJobInterrupted)
		return suture.ErrDoNotRestart
	}
	j.started = true
	j.mu.Unlock()

	j.finish(j.job(ctx))
	return suture.ErrDoNotRestart
}

func (j *JobService) finish(err error) {
	j.mu.Lock()
	if j.finished {
		j.mu.Unlock()
		return
	}
	j.finished = true
	j.err = err
	close(j.done)
	j.mu.Unlock()

	if j.onDone != nil {
		j.onDone()
	}
}

// Done is closed once the job has returned.
func (j *JobService) Done() <-chan struct{} {
	return j.done
}

// Err returns the job's result. It is nil until Done is closed.
func (j *JobService) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// String identifies the service in supervisor logs.
func (j *JobService) String() string {
	return j.name
}
