// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package timeline merges per-user event sub-streams into the single
// chronologically ordered stream of a run.
package timeline

import (
	"container/heap"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/badgesim/internal/events"
)

// ErrOutOfOrder is returned when merged output would go back in time.
var ErrOutOfOrder = errors.New("event stream out of order")

// Stream is one user's events for one day, in time order. Ordinal orders
// the sub-streams of one user (0 for the user's own schedule, 1 for a
// cloned badge) when timestamps tie.
type Stream struct {
	UserID  string
	Ordinal int
	Events  []events.Event
}

// cursor is the read position in one stream.
type cursor struct {
	stream *Stream
	index  int // position of the stream in the input, final tie-breaker
	pos    int
}

func (c *cursor) head() *events.Event {
	return &c.stream.Events[c.pos]
}

// cursorHeap orders cursors by their head event.
type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	a, b := h[i].head(), h[j].head()
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	if h[i].stream.Ordinal != h[j].stream.Ordinal {
		return h[i].stream.Ordinal < h[j].stream.Ordinal
	}
	return h[i].index < h[j].index
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(*cursor))
}

func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// Merge performs a stable k-way merge of the streams. Ties break by user
// identifier, then ordinal, then input position; events within a stream
// keep their order. Merge does not check that the inputs are sorted; use
// a Merger for that.
func Merge(streams []Stream) []events.Event {
	total := 0
	h := make(cursorHeap, 0, len(streams))
	for i := range streams {
		if len(streams[i].Events) == 0 {
			continue
		}
		total += len(streams[i].Events)
		h = append(h, &cursor{stream: &streams[i], index: i})
	}
	heap.Init(&h)

	out := make([]events.Event, 0, total)
	for h.Len() > 0 {
		c := h[0]
		out = append(out, *c.head())
		c.pos++
		if c.pos == len(c.stream.Events) {
			heap.Pop(&h)
			continue
		}
		heap.Fix(&h, 0)
	}
	return out
}

// Merger merges consecutive days and verifies that the global stream never
// goes back in time, across day boundaries included. It is not safe for
// concurrent use; days must be passed in order.
type Merger struct {
	last   time.Time
	merged int
}

// NewMerger returns a merger with no history.
func NewMerger() *Merger {
	return &Merger{}
}

// MergeDay merges one day of streams. It fails with ErrOutOfOrder when the
// result is not non-decreasing or starts before the previous day's last
// event.
func (m *Merger) MergeDay(streams []Stream) ([]events.Event, error) {
	out := Merge(streams)
	if err := verifyFrom(m.last, m.merged, out); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		m.last = out[len(out)-1].Timestamp
	}
	m.merged += len(out)
	return out, nil
}

// Merged returns the number of events merged so far.
func (m *Merger) Merged() int {
	return m.merged
}

// Verify checks that the events are in non-decreasing timestamp order.
func Verify(evs []events.Event) error {
	return verifyFrom(time.Time{}, 0, evs)
}

func verifyFrom(last time.Time, offset int, evs []events.Event) error {
	for i := range evs {
		ts := evs[i].Timestamp
		if ts.Before(last) {
			return fmt.Errorf("%w: event %d (%s, user %s) at %s precedes %s",
				ErrOutOfOrder, offset+i, evs[i].RoomID, evs[i].UserID,
				ts.Format(events.TimestampLayout), last.Format(events.TimestampLayout))
		}
		last = ts
	}
	return nil
}
