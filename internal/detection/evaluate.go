// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"sort"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
	"github.com/tomtom215/badgesim/internal/population"
)

// Score compares a flagged set with the ground truth.
type Score struct {
	TruePositives  int      `json:"true_positives"`
	FalsePositives int      `json:"false_positives"`
	FalseNegatives int      `json:"false_negatives"`
	Precision      float64  `json:"precision"`
	Recall         float64  `json:"recall"`
	Missed         []string `json:"missed,omitempty"`
	Unexpected     []string `json:"unexpected,omitempty"`
}

// Evaluation is a report scored against the answer key.
type Evaluation struct {
	Cloned  Score `json:"cloned"`
	Curious Score `json:"curious"`

	// CloneDays counts answer-key clone days inside the stream and how
	// many of them carry a violation for that user.
	CloneDays        int `json:"clone_days"`
	CloneDaysFlagged int `json:"clone_days_flagged"`

	// NormalFlagged counts normal users flagged by either detector.
	NormalFlagged int `json:"normal_flagged"`

	// RoomAccuracy is the share of classified rooms whose category matches
	// the category of their true type; zero when no types are known.
	RoomsScored  int     `json:"rooms_scored"`
	RoomsCorrect int     `json:"rooms_correct"`
	RoomAccuracy float64 `json:"room_accuracy"`
}

// EvaluateOptions carries optional ground truth.
type EvaluateOptions struct {
	// Start is midnight UTC of day 0; it maps answer-key clone days to
	// calendar days. Zero disables the clone-day check.
	Start time.Time
	// RoomTypes maps room ids to their true type.
	RoomTypes map[string]facility.RoomType
}

// Evaluate scores a report against the answer key.
func Evaluate(r *Report, key []population.AnswerKeyEntry, opts EvaluateOptions) *Evaluation {
	suspects := r.SuspectedCloneSet()
	curious := r.CuriousSet()

	ev := &Evaluation{
		Cloned:  score(suspects, population.CloneSet(key)),
		Curious: score(curious, population.CuriousSet(key)),
	}

	for _, entry := range key {
		if entry.BehaviorVariant != population.VariantNormal {
			continue
		}
		_, s := suspects[entry.UserID]
		_, c := curious[entry.UserID]
		if s || c {
			ev.NormalFlagged++
		}
	}

	if !opts.Start.IsZero() && r.ImpossibleTravel != nil {
		flagged := make(map[string]struct{})
		for _, v := range r.ImpossibleTravel.Violations {
			flagged[v.UserID+"|"+v.Day] = struct{}{}
		}
		for _, entry := range key {
			for _, d := range entry.CloneDays {
				if d >= r.Days {
					continue
				}
				ev.CloneDays++
				day := opts.Start.AddDate(0, 0, d).Format(DayLayout)
				if _, ok := flagged[entry.UserID+"|"+day]; ok {
					ev.CloneDaysFlagged++
				}
			}
		}
	}

	if len(opts.RoomTypes) > 0 && r.Rooms != nil {
		for _, room := range r.Rooms.Rooms {
			t, ok := opts.RoomTypes[room.RoomID]
			if !ok {
				continue
			}
			ev.RoomsScored++
			if t.Category() == room.Category {
				ev.RoomsCorrect++
			}
		}
		if ev.RoomsScored > 0 {
			ev.RoomAccuracy = float64(ev.RoomsCorrect) / float64(ev.RoomsScored)
		}
	}
	return ev
}

func score(flagged, truth map[string]struct{}) Score {
	var s Score
	for id := range flagged {
		if _, ok := truth[id]; ok {
			s.TruePositives++
		} else {
			s.FalsePositives++
			s.Unexpected = append(s.Unexpected, id)
		}
	}
	for id := range truth {
		if _, ok := flagged[id]; !ok {
			s.FalseNegatives++
			s.Missed = append(s.Missed, id)
		}
	}
	sort.Strings(s.Missed)
	sort.Strings(s.Unexpected)

	// An empty flagged set is perfectly precise; an empty truth set is
	// perfectly recalled.
	s.Precision, s.Recall = 1, 1
	if n := s.TruePositives + s.FalsePositives; n > 0 {
		s.Precision = float64(s.TruePositives) / float64(n)
	}
	if n := s.TruePositives + s.FalseNegatives; n > 0 {
		s.Recall = float64(s.TruePositives) / float64(n)
	}
	return s
}
