// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"context"

	"github.com/tomtom215/badgesim/internal/facility"
)

// ImpossibleTravelDetector flags consecutive events of a user that are
// closer in time than the minimum travel time between their rooms
// (e.g. two locations four hours apart, thirty minutes between swipes).
type ImpossibleTravelDetector struct {
	travel facility.TravelTable
}

// NewImpossibleTravelDetector creates a detector over a travel table.
func NewImpossibleTravelDetector(travel facility.TravelTable) *ImpossibleTravelDetector {
	return &ImpossibleTravelDetector{travel: travel}
}

// Name returns the detector name.
func (d *ImpossibleTravelDetector) Name() DetectorName {
	return DetectorImpossibleTravel
}

// Detect scans every user's consecutive event pairs.
func (d *ImpossibleTravelDetector) Detect(ctx context.Context, in *Input, report *Report) (int, error) {
	out := &TravelReport{
		Violations: []Violation{},
		Suspects:   []SuspectedClone{},
	}

	for _, u := range in.Users {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		violations := d.Check(u)
		if len(violations) == 0 {
			continue
		}
		out.Violations = append(out.Violations, violations...)

		suspect := SuspectedClone{UserID: u.UserID, Violations: len(violations)}
		for _, v := range violations {
			if n := len(suspect.Days); n == 0 || suspect.Days[n-1] != v.Day {
				suspect.Days = append(suspect.Days, v.Day)
			}
		}
		out.Suspects = append(out.Suspects, suspect)
	}

	report.ImpossibleTravel = out
	return len(out.Suspects), nil
}

// Check returns the violations of one user's time-ordered events.
func (d *ImpossibleTravelDetector) Check(u UserEvents) []Violation {
	var out []Violation
	for i := 1; i < len(u.Events); i++ {
		prev, next := &u.Events[i-1], &u.Events[i]
		from, to := prev.Ref(), next.Ref()

		elapsed := next.Timestamp.Sub(prev.Timestamp)
		required := d.travel.Required(from, to)
		if elapsed >= required {
			continue
		}
		out = append(out, Violation{
			UserID:   u.UserID,
			Day:      dayOf(next.Timestamp),
			Prev:     refOf(prev),
			Next:     refOf(next),
			Hop:      facility.HopBetween(from, to).String(),
			Elapsed:  elapsed,
			Required: required,
		})
	}
	return out
}
