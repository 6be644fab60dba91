// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/badgesim/internal/events"
)

var base = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func ev(user, room string, minute int) events.Event {
	return events.Event{
		Timestamp:  base.Add(time.Duration(minute) * time.Minute),
		UserID:     user,
		RoomID:     room,
		BuildingID: "BLD_1",
		LocationID: "LOC_1",
		Success:    true,
	}
}

func TestMerge_Order(t *testing.T) {
	t.Parallel()

	streams := []Stream{
		{UserID: "USER_b", Events: []events.Event{ev("USER_b", "R1", 1), ev("USER_b", "R2", 5), ev("USER_b", "R3", 9)}},
		{UserID: "USER_a", Events: []events.Event{ev("USER_a", "R1", 2), ev("USER_a", "R2", 5)}},
		{UserID: "USER_c"},
		{UserID: "USER_a", Ordinal: 1, Events: []events.Event{ev("USER_a", "CLONE", 5), ev("USER_a", "CLONE2", 7)}},
	}

	got := Merge(streams)
	want := []struct {
		user, room string
	}{
		{"USER_b", "R1"},
		{"USER_a", "R1"},
		{"USER_a", "R2"},
		{"USER_a", "CLONE"},
		{"USER_b", "R2"},
		{"USER_a", "CLONE2"},
		{"USER_b", "R3"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].UserID != w.user || got[i].RoomID != w.room {
			t.Errorf("event %d = %s/%s, want %s/%s", i, got[i].UserID, got[i].RoomID, w.user, w.room)
		}
	}
	if err := Verify(got); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestMerge_StableWithinStream(t *testing.T) {
	t.Parallel()

	streams := []Stream{
		{UserID: "USER_a", Events: []events.Event{ev("USER_a", "R1", 3), ev("USER_a", "R2", 3), ev("USER_a", "R3", 3)}},
	}
	got := Merge(streams)
	for i, room := range []string{"R1", "R2", "R3"} {
		if got[i].RoomID != room {
			t.Errorf("event %d room = %s, want %s", i, got[i].RoomID, room)
		}
	}
}

func TestMerger_DayBoundary(t *testing.T) {
	t.Parallel()

	m := NewMerger()
	day1 := []Stream{{UserID: "USER_a", Events: []events.Event{ev("USER_a", "R1", 600), ev("USER_a", "R2", 700)}}}
	if _, err := m.MergeDay(day1); err != nil {
		t.Fatalf("MergeDay(day1) error = %v", err)
	}

	overlap := []Stream{{UserID: "USER_b", Events: []events.Event{ev("USER_b", "R1", 650)}}}
	if _, err := m.MergeDay(overlap); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("MergeDay(overlap) error = %v, want ErrOutOfOrder", err)
	}

	day2 := []Stream{{UserID: "USER_b", Events: []events.Event{ev("USER_b", "R1", 1440+480)}}}
	if _, err := m.MergeDay(day2); err != nil {
		t.Fatalf("MergeDay(day2) error = %v", err)
	}
	if m.Merged() != 3 {
		t.Errorf("Merged() = %d, want 3", m.Merged())
	}
}

func TestMerger_UnsortedStream(t *testing.T) {
	t.Parallel()

	m := NewMerger()
	bad := []Stream{{UserID: "USER_a", Events: []events.Event{ev("USER_a", "R1", 10), ev("USER_a", "R2", 5)}}}
	if _, err := m.MergeDay(bad); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("MergeDay() error = %v, want ErrOutOfOrder", err)
	}
}
