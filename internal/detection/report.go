// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/badgesim/internal/facility"
)

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes the JSON report to path.
func (r *Report) WriteFile(path string) (err error) {
	f, err := os.Create(path) //nolint:gosec // output path is operator supplied
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()
	return r.WriteJSON(f)
}

// WriteSummary prints a human-readable summary of the report.
func (r *Report) WriteSummary(w io.Writer) error {
	p := &printer{w: w}
	p.printf("Analysis summary\n")
	p.printf("  Events:            %d (%d skipped, %d malformed)\n", r.Events, r.Skipped, r.Malformed)
	p.printf("  Users:             %d\n", r.Users)
	p.printf("  Days:              %d\n", r.Days)

	if t := r.ImpossibleTravel; t != nil {
		p.printf("  Impossible travel: %d violations, %d suspected cloned badges\n", len(t.Violations), len(t.Suspects))
		for i, s := range t.Suspects {
			if i == 10 {
				p.printf("    ... %d more\n", len(t.Suspects)-i)
				break
			}
			p.printf("    %s: %d violations on %v\n", s.UserID, s.Violations, s.Days)
		}
	}
	if c := r.CuriousUsers; c != nil {
		p.printf("  Curious users:     %d flagged, %d with any failure\n", len(c.Findings), c.UsersWithFailures)
		for i, f := range c.Findings {
			if i == 10 {
				p.printf("    ... %d more\n", len(c.Findings)-i)
				break
			}
			p.printf("    %s: %d distinct rooms in one day, %d failures of %d attempts\n",
				f.UserID, f.MaxDailyDistinct, f.Failures, f.Attempts)
		}
	}
	if rooms := r.Rooms; rooms != nil {
		p.printf("  Rooms classified:  %d\n", len(rooms.Rooms))
		for _, c := range []facility.Category{
			facility.CategoryLobby,
			facility.CategoryOffice,
			facility.CategoryMeeting,
			facility.CategoryBreak,
			facility.CategoryRestricted,
			facility.CategoryUnknown,
		} {
			p.printf("    %-18s %d\n", c, rooms.Counts[c])
		}
	}
	if e := r.Evaluation; e != nil {
		p.printf("  Evaluation:\n")
		p.printf("    cloned             precision %.3f recall %.3f (tp %d fp %d fn %d)\n",
			e.Cloned.Precision, e.Cloned.Recall, e.Cloned.TruePositives, e.Cloned.FalsePositives, e.Cloned.FalseNegatives)
		p.printf("    curious            precision %.3f recall %.3f (tp %d fp %d fn %d)\n",
			e.Curious.Precision, e.Curious.Recall, e.Curious.TruePositives, e.Curious.FalsePositives, e.Curious.FalseNegatives)
		if e.CloneDays > 0 {
			p.printf("    clone days         %d of %d flagged\n", e.CloneDaysFlagged, e.CloneDays)
		}
		p.printf("    normal flagged     %d\n", e.NormalFlagged)
		if e.RoomsScored > 0 {
			p.printf("    room accuracy      %.3f (%d of %d)\n", e.RoomAccuracy, e.RoomsCorrect, e.RoomsScored)
		}
	}
	return p.err
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
