// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"context"
	"math"
	"sort"
)

// CuriousUserDetector flags users who repeatedly try rooms their badge
// does not open. A single denial never flags a user: the primary
// criterion counts distinct rooms per day so stale permissions and typos
// stay below the threshold. A run-wide count of distinct rooms catches
// users who spread fewer attempts over several days.
type CuriousUserDetector struct {
	threshold   int
	total       int
	percentile  float64
	minFailures int
}

// NewCuriousUserDetector creates a detector from the analysis config.
func NewCuriousUserDetector(cfg Config) *CuriousUserDetector {
	return &CuriousUserDetector{
		threshold:   cfg.DistinctRoomThreshold,
		total:       cfg.TotalDistinctRoomThreshold,
		percentile:  cfg.FailureRatePercentile,
		minFailures: cfg.MinFailures,
	}
}

// Name returns the detector name.
func (d *CuriousUserDetector) Name() DetectorName {
	return DetectorCuriousUser
}

// Detect aggregates failures per user and ranks the flagged users.
func (d *CuriousUserDetector) Detect(ctx context.Context, in *Input, report *Report) (int, error) {
	evidence := make([]CuriousFinding, 0, len(in.Users))
	rates := make([]float64, 0, len(in.Users))
	for _, u := range in.Users {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		f := Aggregate(u)
		evidence = append(evidence, f)
		rates = append(rates, f.FailureRate)
	}

	out := &CuriousReport{Findings: []CuriousFinding{}}
	if d.percentile > 0 {
		out.FailureRateCutoff = Percentile(rates, d.percentile)
	}

	for _, f := range evidence {
		if f.Failures > 0 {
			out.UsersWithFailures++
		}
		if f.MaxDailyDistinct >= d.threshold {
			f.Reasons = append(f.Reasons, ReasonDistinctRooms)
		}
		if d.total > 0 && f.DistinctRooms >= d.total {
			f.Reasons = append(f.Reasons, ReasonTotalDistinctRooms)
		}
		if d.percentile > 0 && f.Failures >= d.minFailures && f.FailureRate > out.FailureRateCutoff {
			f.Reasons = append(f.Reasons, ReasonFailureRate)
		}
		if len(f.Reasons) > 0 {
			out.Findings = append(out.Findings, f)
		}
	}

	sort.SliceStable(out.Findings, func(i, j int) bool {
		a, b := &out.Findings[i], &out.Findings[j]
		if a.MaxDailyDistinct != b.MaxDailyDistinct {
			return a.MaxDailyDistinct > b.MaxDailyDistinct
		}
		if a.Failures != b.Failures {
			return a.Failures > b.Failures
		}
		return a.UserID < b.UserID
	})

	report.CuriousUsers = out
	return len(out.Findings), nil
}

// Aggregate collects the failure evidence of one user. Reasons are left
// empty.
func Aggregate(u UserEvents) CuriousFinding {
	f := CuriousFinding{UserID: u.UserID, Attempts: len(u.Events)}
	rooms := make(map[string]struct{})
	var day string
	var daily map[string]struct{}
	for i := range u.Events {
		e := &u.Events[i]
		if e.Success {
			continue
		}
		f.Failures++
		rooms[e.RoomID] = struct{}{}

		if d := dayOf(e.Timestamp); d != day {
			day = d
			daily = make(map[string]struct{})
		}
		daily[e.RoomID] = struct{}{}
		if len(daily) > f.MaxDailyDistinct {
			f.MaxDailyDistinct = len(daily)
		}
	}
	f.DistinctRooms = len(rooms)
	if f.Attempts > 0 {
		f.FailureRate = float64(f.Failures) / float64(f.Attempts)
	}
	return f
}

// Percentile returns the nearest-rank p-th percentile (0 < p < 100) of
// values. It returns 0 for an empty slice and does not modify values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
