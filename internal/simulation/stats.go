// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package simulation

import (
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/population"
)

// Stats summarizes a run.
type Stats struct {
	Seed uint64
	Days int

	Locations      int
	Buildings      int
	Rooms          int
	RoomsByType    map[facility.RoomType]int
	UsersByVariant map[population.Variant]int

	Events          int
	Successes       int
	Failures        int
	CuriousAttempts int
	CloneEvents     int
	CloneUserDays   int

	First time.Time
	Last  time.Time
}

func (s *Simulator) newStats() *Stats {
	return &Stats{
		Seed:           s.seed,
		Locations:      len(s.facility.Locations),
		Buildings:      s.facility.BuildingCount(),
		Rooms:          s.facility.RoomCount(),
		RoomsByType:    s.facility.RoomTypeCounts(),
		UsersByVariant: s.population.CountByVariant(),
	}
}

func (st *Stats) add(e *events.Event) {
	if st.Events == 0 {
		st.First = e.Timestamp
	}
	st.Last = e.Timestamp
	st.Events++
	if e.Success {
		st.Successes++
	} else {
		st.Failures++
	}
	if e.FailureReason == events.ReasonCuriousUser {
		st.CuriousAttempts++
	}
	if e.Type == events.TypeSuspicious {
		st.CloneEvents++
	}
}

// Users returns the population size.
func (st *Stats) Users() int {
	n := 0
	for _, c := range st.UsersByVariant {
		n += c
	}
	return n
}

// Log writes the summary to the log at info.
func (st *Stats) Log() {
	logging.Info().
		Uint64("seed", st.Seed).
		Int("days", st.Days).
		Int("users", st.Users()).
		Int("normal_users", st.UsersByVariant[population.VariantNormal]).
		Int("curious_users", st.UsersByVariant[population.VariantCurious]).
		Int("cloned_users", st.UsersByVariant[population.VariantCloned]).
		Int("rooms", st.Rooms).
		Int("events", st.Events).
		Int("successes", st.Successes).
		Int("failures", st.Failures).
		Int("curious_attempts", st.CuriousAttempts).
		Int("clone_user_days", st.CloneUserDays).
		Msg("Simulation complete")
}

// WriteSummary prints a human-readable summary.
func (st *Stats) WriteSummary(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("Simulation summary\n")
	ew.printf("  Seed:              %d\n", st.Seed)
	ew.printf("  Days:              %d\n", st.Days)
	ew.printf("  Locations:         %d\n", st.Locations)
	ew.printf("  Buildings:         %d\n", st.Buildings)
	ew.printf("  Rooms:             %d\n", st.Rooms)
	ew.printf("  Rooms by type:\n")
	ew.printf("    %-18s %d\n", facility.RoomLobby, st.RoomsByType[facility.RoomLobby])
	for _, t := range facility.WeightedRoomTypes {
		ew.printf("    %-18s %d\n", t, st.RoomsByType[t])
	}
	ew.printf("  Users:             %d\n", st.Users())
	for _, v := range population.Variants {
		ew.printf("    %-18s %d\n", v, st.UsersByVariant[v])
	}
	ew.printf("  Events:            %d\n", st.Events)
	ew.printf("    %-18s %d\n", "success", st.Successes)
	ew.printf("    %-18s %d\n", "failure", st.Failures)
	ew.printf("  Anomalies:\n")
	ew.printf("    %-18s %d\n", "curious attempts", st.CuriousAttempts)
	ew.printf("    %-18s %d\n", "clone user-days", st.CloneUserDays)
	ew.printf("    %-18s %d\n", "clone events", st.CloneEvents)
	if st.Events > 0 {
		ew.printf("  Time span:         %s .. %s\n",
			st.First.Format(events.TimestampLayout), st.Last.Format(events.TimestampLayout))
	}
	return ew.err
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
