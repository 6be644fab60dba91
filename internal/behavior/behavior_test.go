// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package behavior

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/population"
	"github.com/tomtom215/badgesim/internal/timeline"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

type fixture struct {
	facility   *facility.Facility
	population *population.Population
	engine     *Engine
}

func newFixture(t *testing.T, curious, cloned float64) *fixture {
	t.Helper()
	f, err := facility.Generate(rand.New(rand.NewSource(11)), facility.Params{
		LocationCount: 3,
		MinBuildings:  2,
		MaxBuildings:  4,
		MinRooms:      10,
		MaxRooms:      30,
		RoomTypeWeights: map[facility.RoomType]int{
			facility.RoomWorkspace:       40,
			facility.RoomMeeting:         15,
			facility.RoomBathroom:        10,
			facility.RoomKitchen:         10,
			facility.RoomStorage:         10,
			facility.RoomCafeteria:       7,
			facility.RoomExecutiveOffice: 4,
			facility.RoomServer:          2,
			facility.RoomLaboratory:      2,
		},
	})
	if err != nil {
		t.Fatalf("facility.Generate() error = %v", err)
	}
	pop, err := population.Generate(rand.New(rand.NewSource(12)), f, population.Params{
		UserCount:           200,
		CuriousPercentage:   curious,
		ClonedPercentage:    cloned,
		Days:                3,
		CloneDayProbability: 0.5,
		Seed:                13,
	})
	if err != nil {
		t.Fatalf("population.Generate() error = %v", err)
	}
	e, err := NewEngine(f, DefaultSettings(), 13, day0)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return &fixture{facility: f, population: pop, engine: e}
}

// userEvents merges one user's streams for a day.
func userEvents(t *testing.T, b Behavior, day int) []events.Event {
	t.Helper()
	streams, err := b.Day(context.Background(), day)
	if err != nil {
		t.Fatalf("Day(%d) error = %v", day, err)
	}
	return timeline.Merge(streams)
}

// infeasiblePairs counts consecutive events the user could not travel
// between in time.
func infeasiblePairs(evs []events.Event, travel facility.TravelTable) int {
	n := 0
	for i := 1; i < len(evs); i++ {
		elapsed := evs[i].Timestamp.Sub(evs[i-1].Timestamp)
		if !travel.Feasible(evs[i-1].Ref(), evs[i].Ref(), elapsed) {
			n++
		}
	}
	return n
}

func TestSchedule_Invariants(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 0, 0)
	s := fx.engine.Settings()
	for _, u := range fx.population.Profiles {
		for day := 0; day < 3; day++ {
			sched := fx.engine.Schedule(u, day)
			acts := sched.Activities
			if len(acts) < 3 {
				t.Fatalf("user %s day %d: only %d activities", u.ID, day, len(acts))
			}

			first := acts[0]
			if first.Kind != KindArrival || first.Room != u.PrimaryBuilding.Lobby() || !first.Success {
				t.Errorf("user %s day %d: first activity %+v is not the primary lobby", u.ID, day, first)
			}
			midnight := fx.engine.Midnight(day)
			if off := first.At.Sub(midnight); off < s.Arrival.Min || off > s.Arrival.Max {
				t.Errorf("user %s day %d: arrival at %s outside window", u.ID, day, off)
			}
			if last := acts[len(acts)-1]; last.Kind != KindDeparture || last.Room.Type != facility.RoomLobby {
				t.Errorf("user %s day %d: last activity %+v is not a lobby departure", u.ID, day, last)
			}

			denied := 0
			for i, a := range acts {
				if _, ok := fx.facility.Room(a.Room.ID); !ok {
					t.Fatalf("user %s: unknown room %s", u.ID, a.Room.ID)
				}
				if i > 0 && a.At.Before(acts[i-1].At) {
					t.Fatalf("user %s day %d: activity %d goes back in time", u.ID, day, i)
				}
				if a.Success != u.IsAuthorized(a.Room.ID) {
					t.Errorf("user %s: success %v for room %s disagrees with authorization", u.ID, a.Success, a.Room.ID)
				}
				if !a.Success {
					denied++
					if a.Kind != KindDenied {
						t.Errorf("user %s: normal user denied during %s", u.ID, a.Kind)
					}
				}
				if a.At.Day() != midnight.Day() {
					t.Errorf("user %s: activity at %s leaves day %d", u.ID, a.At, day)
				}
			}
			if denied > 1 {
				t.Errorf("user %s day %d: %d denials, want at most 1", u.ID, day, denied)
			}

			if n := infeasiblePairs(sched.Events(u.ID), s.Travel); n != 0 {
				t.Errorf("user %s day %d: %d infeasible moves in a genuine schedule", u.ID, day, n)
			}
		}
	}
}

func TestSchedule_AffinityShares(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		affinity    Affinity
		minPrimary  float64
		minFar      float64
		maxFar      float64
		wantSameLoc bool
	}{
		{"defaults", DefaultSettings().Affinity, 0.5, 0.01, 0.35, true},
		{"half away", Affinity{Primary: 0.5, SameLocation: 0, DifferentLocation: 0.5}, 0.1, 0.25, 0.9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t, 0, 0)
			s := DefaultSettings()
			s.Affinity = tt.affinity
			e, err := NewEngine(fx.facility, s, 13, day0)
			if err != nil {
				t.Fatalf("NewEngine() error = %v", err)
			}

			var primary, sameLoc, far, total int
			for _, u := range fx.population.Profiles {
				for day := 0; day < 3; day++ {
					sched := e.Schedule(u, day)
					for _, a := range sched.Activities {
						switch a.Kind {
						case KindMeeting, KindBreak, KindLunch:
						default:
							continue
						}
						total++
						switch {
						case a.Room.BuildingID == u.PrimaryBuilding.ID:
							primary++
						case a.Room.LocationID == u.HomeLocation.ID:
							sameLoc++
						default:
							far++
						}
					}
					if n := infeasiblePairs(sched.Events(u.ID), s.Travel); n != 0 {
						t.Errorf("user %s day %d: %d infeasible moves", u.ID, day, n)
					}
				}
			}
			if total == 0 {
				t.Fatal("no activities scheduled")
			}
			share := func(n int) float64 { return float64(n) / float64(total) }
			if got := share(primary); got < tt.minPrimary {
				t.Errorf("primary share = %.3f, want >= %.2f", got, tt.minPrimary)
			}
			if got := share(far); got < tt.minFar || got > tt.maxFar {
				t.Errorf("different-location share = %.3f, want in [%.2f, %.2f]", got, tt.minFar, tt.maxFar)
			}
			if tt.wantSameLoc && sameLoc == 0 {
				t.Error("no same-location activities")
			}
		})
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	t.Parallel()

	a := newFixture(t, 0.2, 0.1)
	b := newFixture(t, 0.2, 0.1)
	for i, u := range a.population.Profiles {
		ea := userEvents(t, a.engine.For(u), 1)
		eb := userEvents(t, b.engine.For(b.population.Profiles[i]), 1)
		if len(ea) != len(eb) {
			t.Fatalf("user %s: %d vs %d events", u.ID, len(ea), len(eb))
		}
		for j := range ea {
			if ea[j] != eb[j] {
				t.Fatalf("user %s event %d differs: %+v vs %+v", u.ID, j, ea[j], eb[j])
			}
		}
	}
}

func TestSchedule_DaysDiffer(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 0, 0)
	u := fx.population.Profiles[0]
	d0 := fx.engine.Schedule(u, 0)
	d1 := fx.engine.Schedule(u, 1)
	if d0.Activities[0].At.Add(24*time.Hour).Equal(d1.Activities[0].At) &&
		len(d0.Activities) == len(d1.Activities) {
		t.Error("consecutive days produced the same schedule")
	}
}

func TestCurious_Attempts(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 1, 0)
	s := fx.engine.Settings()
	flagged := 0
	for _, u := range fx.population.Profiles {
		b := fx.engine.For(u)
		if b.Variant() != population.VariantCurious {
			t.Fatalf("user %s variant = %s", u.ID, b.Variant())
		}
		evs := userEvents(t, b, 0)

		tried := make(map[string]bool)
		for _, e := range evs {
			if e.FailureReason != events.ReasonCuriousUser {
				continue
			}
			if e.Success {
				t.Errorf("user %s: successful curious attempt", u.ID)
			}
			if u.IsAuthorized(e.RoomID) {
				t.Errorf("user %s: attempt on authorized room %s", u.ID, e.RoomID)
			}
			if tried[e.RoomID] {
				t.Errorf("user %s: room %s tried twice", u.ID, e.RoomID)
			}
			tried[e.RoomID] = true
		}
		if len(tried) > s.CuriousAttempts.Max {
			t.Errorf("user %s: %d attempts, want at most %d", u.ID, len(tried), s.CuriousAttempts.Max)
		}
		if len(tried) >= s.CuriousAttempts.Min {
			flagged++
		}
		if n := infeasiblePairs(evs, s.Travel); n != 0 {
			t.Errorf("user %s: %d infeasible moves", u.ID, n)
		}
	}
	if flagged < len(fx.population.Profiles)*9/10 {
		t.Errorf("only %d of %d curious users reached the minimum attempt count", flagged, len(fx.population.Profiles))
	}
}

func TestCurious_AttemptsSpreadOverDay(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 1, 0)
	var multi, spread int
	for _, u := range fx.population.Profiles {
		sched := fx.engine.Schedule(u, 0)
		// index of the regular activity each attempt follows
		gaps := make(map[int]bool)
		anchor, attempts := -1, 0
		for i, a := range sched.Activities {
			if a.Kind != KindCuriousAttempt {
				anchor = i
				continue
			}
			attempts++
			gaps[anchor] = true
		}
		if attempts < 2 {
			continue
		}
		multi++
		if len(gaps) > 1 {
			spread++
		}
	}
	if multi == 0 {
		t.Fatal("no curious user made more than one attempt")
	}
	if spread*2 < multi {
		t.Errorf("attempts spread over several gaps for %d of %d users, want at least half", spread, multi)
	}
}

func TestClonedBadge_ImpossibleTravel(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 0, 1)
	travel := fx.engine.Settings().Travel
	cloneDays := 0
	for _, u := range fx.population.Profiles {
		b := fx.engine.For(u)
		if b.Variant() != population.VariantCloned {
			t.Fatalf("user %s variant = %s", u.ID, b.Variant())
		}
		for day := 0; day < 3; day++ {
			streams, err := b.Day(context.Background(), day)
			if err != nil {
				t.Fatalf("Day() error = %v", err)
			}
			evs := timeline.Merge(streams)
			if err := timeline.Verify(evs); err != nil {
				t.Fatalf("user %s day %d: %v", u.ID, day, err)
			}

			if !u.IsCloneDay(day) {
				if len(streams) != 1 {
					t.Errorf("user %s day %d: clone stream on a non-clone day", u.ID, day)
				}
				continue
			}
			cloneDays++
			if len(streams) != 2 || streams[1].Ordinal != 1 {
				t.Fatalf("user %s day %d: want a clone stream", u.ID, day)
			}
			for _, e := range streams[1].Events {
				if e.Type != events.TypeSuspicious {
					t.Errorf("clone event type = %s", e.Type)
				}
				if !e.Success {
					t.Errorf("user %s: clone event denied at %s", u.ID, e.RoomID)
				}
			}
			if infeasiblePairs(evs, travel) == 0 {
				t.Errorf("user %s day %d: clone day without an impossible move", u.ID, day)
			}
		}
	}
	if cloneDays == 0 {
		t.Fatal("no clone days generated")
	}
}

func TestBehavior_Cancelled(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fx.engine.For(fx.population.Profiles[0]).Day(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Day() error = %v, want context.Canceled", err)
	}
	if _, err := fx.engine.For(fx.population.Profiles[0]).Day(context.Background(), -1); err == nil {
		t.Error("expected error for negative day")
	}
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"inverted arrival", func(s *Settings) { s.Arrival.Min, s.Arrival.Max = s.Arrival.Max, s.Arrival.Min }},
		{"arrival overlaps departure", func(s *Settings) { s.Arrival.Max = 17 * time.Hour }},
		{"departure past midnight", func(s *Settings) { s.Departure.Max = 25 * time.Hour }},
		{"affinity sum", func(s *Settings) { s.Affinity.Primary = 0.5 }},
		{"travel order", func(s *Settings) { s.Travel.CrossLocation = s.Travel.SameLocation }},
		{"no curious attempts", func(s *Settings) { s.CuriousAttempts.Min = 0 }},
		{"denial rate", func(s *Settings) { s.IncidentalDenialRate = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}

	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Errorf("DefaultSettings().Validate() error = %v", err)
	}
}

func TestSample_Distinct(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, 0, 0)
	d := newDayBuilder(fx.engine, rand.New(rand.NewSource(1)), fx.population.Profiles[0], 0)
	rooms := fx.facility.Rooms()[:8]
	got := d.sample(rooms, 5, true)
	if len(got) != 5 {
		t.Fatalf("sample() returned %d rooms, want 5", len(got))
	}
	seen := make(map[string]bool)
	for _, r := range got {
		if seen[r.ID] {
			t.Errorf("room %s sampled twice", r.ID)
		}
		seen[r.ID] = true
	}
	if got := d.sample(rooms[:2], 5, false); len(got) != 2 {
		t.Errorf("sample() from a short pool returned %d rooms, want 2", len(got))
	}
}
