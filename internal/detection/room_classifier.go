// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
)

// ClassifierThresholds are the rule thresholds of the room classifier.
type ClassifierThresholds struct {
	// BusinessStart and BusinessEnd bound business hours as offsets from
	// midnight UTC; LunchStart and LunchEnd bound the lunch window.
	BusinessStart time.Duration `json:"business_start"`
	BusinessEnd   time.Duration `json:"business_end"`
	LunchStart    time.Duration `json:"lunch_start"`
	LunchEnd      time.Duration `json:"lunch_end"`

	// LobbyMinEdgeShare: rooms where this share of visits open or close a
	// user's day are lobbies.
	LobbyMinEdgeShare float64 `json:"lobby_min_edge_share"`

	// Rooms mostly refused, or visited less than once a day by at most
	// RestrictedMaxDistinctUsers users, are restricted.
	RestrictedMinFailureShare  float64 `json:"restricted_min_failure_share"`
	RestrictedMaxVisitsPerDay  float64 `json:"restricted_max_visits_per_day"`
	RestrictedMaxDistinctUsers int     `json:"restricted_max_distinct_users"`

	// Lunch-heavy or short-dwell rooms are break rooms.
	BreakMinLunchShare float64       `json:"break_min_lunch_share"`
	BreakMaxDwell      time.Duration `json:"break_max_dwell"`

	// Rooms the same user returns to within a day are offices.
	OfficeMinRepeatRatio float64 `json:"office_min_repeat_ratio"`

	// The remaining business-hours rooms are meeting rooms when at least
	// MeetingMinDistinctUsers badge into them, offices otherwise.
	MeetingMinBusinessShare float64 `json:"meeting_min_business_share"`
	MeetingMinDistinctUsers int     `json:"meeting_min_distinct_users"`
}

// DefaultClassifierThresholds returns the documented defaults.
func DefaultClassifierThresholds() ClassifierThresholds {
	return ClassifierThresholds{
		BusinessStart:              8 * time.Hour,
		BusinessEnd:                18 * time.Hour,
		LunchStart:                 11*time.Hour + 30*time.Minute,
		LunchEnd:                   14 * time.Hour,
		LobbyMinEdgeShare:          0.25,
		RestrictedMinFailureShare:  0.5,
		RestrictedMaxVisitsPerDay:  1,
		RestrictedMaxDistinctUsers: 5,
		BreakMinLunchShare:         0.4,
		BreakMaxDwell:              20 * time.Minute,
		OfficeMinRepeatRatio:       0.4,
		MeetingMinBusinessShare:    0.7,
		MeetingMinDistinctUsers:    3,
	}
}

// RoomClassifier infers a category for every room from its access pattern.
type RoomClassifier struct {
	maxDwell   time.Duration
	thresholds ClassifierThresholds
}

// NewRoomClassifier creates a classifier.
func NewRoomClassifier(maxDwell time.Duration, thresholds ClassifierThresholds) *RoomClassifier {
	return &RoomClassifier{maxDwell: maxDwell, thresholds: thresholds}
}

// Name returns the detector name.
func (c *RoomClassifier) Name() DetectorName {
	return DetectorRoomClassifier
}

// Detect computes room statistics and classifies every room.
func (c *RoomClassifier) Detect(ctx context.Context, in *Input, report *Report) (int, error) {
	stats, err := c.Stats(ctx, in)
	if err != nil {
		return 0, err
	}
	out := &RoomReport{
		Rooms:  make([]RoomClassification, 0, len(stats)),
		Counts: make(map[facility.Category]int),
	}
	for _, s := range stats {
		category := Classify(&s, c.thresholds)
		out.Rooms = append(out.Rooms, RoomClassification{RoomID: s.RoomID, Category: category, Stats: s})
		out.Counts[category]++
	}
	report.Rooms = out
	return len(out.Rooms), nil
}

// roomAgg accumulates the statistics of one room.
type roomAgg struct {
	stats    RoomStats
	failures int
	edge     int
	repeats  int
	business int
	lunch    int
	users    map[string]struct{}
	days     map[string]struct{}
	// visited holds user+day keys.
	visited map[string]struct{}

	// Welford running mean and M2 of dwell in seconds.
	mean float64
	m2   float64
}

func (a *roomAgg) addDwell(d time.Duration) {
	a.stats.DwellSamples++
	x := d.Seconds()
	delta := x - a.mean
	a.mean += delta / float64(a.stats.DwellSamples)
	a.m2 += delta * (x - a.mean)
}

// Stats aggregates per-room statistics, sorted by room id.
func (c *RoomClassifier) Stats(ctx context.Context, in *Input) ([]RoomStats, error) {
	rooms := make(map[string]*roomAgg)
	for _, u := range in.Users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range u.Events {
			e := &u.Events[i]
			a, ok := rooms[e.RoomID]
			if !ok {
				a = &roomAgg{
					stats:   RoomStats{RoomID: e.RoomID, BuildingID: e.BuildingID, LocationID: e.LocationID},
					users:   make(map[string]struct{}),
					days:    make(map[string]struct{}),
					visited: make(map[string]struct{}),
				}
				rooms[e.RoomID] = a
			}

			day := dayOf(e.Timestamp)
			a.stats.Attempts++
			a.users[u.UserID] = struct{}{}
			a.days[day] = struct{}{}
			if !e.Success {
				a.failures++
				continue
			}

			a.stats.Visits++
			clock := e.Timestamp.UTC().Sub(e.Timestamp.UTC().Truncate(24 * time.Hour))
			a.stats.HourHistogram[int(clock/time.Hour)]++
			if clock >= c.thresholds.BusinessStart && clock < c.thresholds.BusinessEnd {
				a.business++
			}
			if clock >= c.thresholds.LunchStart && clock < c.thresholds.LunchEnd {
				a.lunch++
			}

			first := i == 0 || dayOf(u.Events[i-1].Timestamp) != day
			last := i == len(u.Events)-1 || dayOf(u.Events[i+1].Timestamp) != day
			if first || last {
				a.edge++
			}
			key := u.UserID + "|" + day
			if _, seen := a.visited[key]; seen {
				a.repeats++
			} else {
				a.visited[key] = struct{}{}
			}

			if !last {
				dwell := u.Events[i+1].Timestamp.Sub(e.Timestamp)
				if dwell > c.maxDwell {
					dwell = c.maxDwell
				}
				a.addDwell(dwell)
			}
		}
	}

	out := make([]RoomStats, 0, len(rooms))
	for _, a := range rooms {
		s := a.stats
		s.DistinctUsers = len(a.users)
		s.ActiveDays = len(a.days)
		if s.Attempts > 0 {
			s.FailureShare = float64(a.failures) / float64(s.Attempts)
		}
		if s.Visits > 0 {
			v := float64(s.Visits)
			s.BusinessHoursShare = float64(a.business) / v
			s.LunchShare = float64(a.lunch) / v
			s.EdgeOfDayShare = float64(a.edge) / v
			s.RepeatVisitRatio = float64(a.repeats) / v
		}
		if in.Days > 0 {
			s.VisitsPerDay = float64(s.Visits) / float64(in.Days)
		}
		if s.DwellSamples > 0 {
			s.MeanDwell = time.Duration(math.Round(a.mean * float64(time.Second)))
			s.DwellVariance = a.m2 / float64(s.DwellSamples)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

// Classify maps aggregate statistics to a category. It is a pure function
// of its arguments.
func Classify(s *RoomStats, th ClassifierThresholds) facility.Category {
	switch {
	case s.Attempts == 0:
		return facility.CategoryUnknown
	case s.Visits == 0:
		return facility.CategoryRestricted
	case s.EdgeOfDayShare >= th.LobbyMinEdgeShare:
		return facility.CategoryLobby
	case s.FailureShare >= th.RestrictedMinFailureShare:
		return facility.CategoryRestricted
	case s.VisitsPerDay < th.RestrictedMaxVisitsPerDay && s.DistinctUsers <= th.RestrictedMaxDistinctUsers:
		return facility.CategoryRestricted
	case s.LunchShare >= th.BreakMinLunchShare:
		return facility.CategoryBreak
	case s.DwellSamples > 0 && s.MeanDwell <= th.BreakMaxDwell:
		return facility.CategoryBreak
	case s.RepeatVisitRatio >= th.OfficeMinRepeatRatio:
		return facility.CategoryOffice
	case s.BusinessHoursShare >= th.MeetingMinBusinessShare && s.DistinctUsers < th.MeetingMinDistinctUsers:
		return facility.CategoryOffice
	case s.BusinessHoursShare >= th.MeetingMinBusinessShare:
		return facility.CategoryMeeting
	default:
		return facility.CategoryUnknown
	}
}
