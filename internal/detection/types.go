// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package detection

import (
	"errors"
	"time"

	"github.com/tomtom215/badgesim/internal/facility"
)

// DetectorName identifies a detector in reports, logs and metrics.
type DetectorName string

const (
	// DetectorImpossibleTravel flags moves faster than the travel table allows.
	DetectorImpossibleTravel DetectorName = "impossible_travel"

	// DetectorCuriousUser flags users probing rooms they cannot open.
	DetectorCuriousUser DetectorName = "curious_user"

	// DetectorRoomClassifier infers room categories.
	DetectorRoomClassifier DetectorName = "room_classifier"
)

// DayLayout formats the UTC calendar day of an event in reports.
const DayLayout = "2006-01-02"

// Config holds the analysis thresholds.
type Config struct {
	// Travel is the table generation used; analysis must agree with it.
	Travel facility.TravelTable

	// DistinctRoomThreshold flags a user once they fail on this many
	// distinct rooms within one day.
	DistinctRoomThreshold int

	// TotalDistinctRoomThreshold flags a user once they fail on this many
	// distinct rooms over the whole stream. Zero disables it.
	TotalDistinctRoomThreshold int

	// FailureRatePercentile enables the population-relative criterion when
	// greater than zero: a user whose failure rate is strictly above this
	// percentile of all users, with at least MinFailures failures, is flagged.
	FailureRatePercentile float64
	MinFailures           int

	// MaxDwell caps the dwell attributed to one visit.
	MaxDwell time.Duration

	// Rooms holds the classifier thresholds.
	Rooms ClassifierThresholds
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Travel:                facility.DefaultTravelTable(),
		DistinctRoomThreshold:      3,
		TotalDistinctRoomThreshold: 6,
		FailureRatePercentile:      0,
		MinFailures:                3,
		MaxDwell:                   12 * time.Hour,
		Rooms:                      DefaultClassifierThresholds(),
	}
}

// Validate checks the thresholds.
func (c *Config) Validate() error {
	var errs []error
	if c.Travel.CrossLocation <= 0 {
		errs = append(errs, errors.New("cross-location travel time must be positive"))
	}
	if c.Travel.SameLocation < 0 {
		errs = append(errs, errors.New("same-location travel time cannot be negative"))
	}
	if c.DistinctRoomThreshold < 1 {
		errs = append(errs, errors.New("distinct room threshold must be at least 1"))
	}
	if c.TotalDistinctRoomThreshold < 0 {
		errs = append(errs, errors.New("total distinct room threshold cannot be negative"))
	}
	if c.FailureRatePercentile < 0 || c.FailureRatePercentile >= 100 {
		errs = append(errs, errors.New("failure rate percentile must be in [0, 100)"))
	}
	if c.MinFailures < 1 {
		errs = append(errs, errors.New("min failures must be at least 1"))
	}
	if c.MaxDwell <= 0 {
		errs = append(errs, errors.New("max dwell must be positive"))
	}
	return errors.Join(errs...)
}

// Violation is one pair of consecutive events of a user that cannot both
// be genuine.
type Violation struct {
	UserID   string        `json:"user_id"`
	Day      string        `json:"day"`
	Prev     EventRef      `json:"prev"`
	Next     EventRef      `json:"next"`
	Hop      string        `json:"hop"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Required time.Duration `json:"required_ns"`
}

// EventRef identifies an event in a report.
type EventRef struct {
	Timestamp  time.Time `json:"timestamp"`
	RoomID     string    `json:"room_id"`
	BuildingID string    `json:"building_id"`
	LocationID string    `json:"location_id"`
	Success    bool      `json:"success"`
}

// SuspectedClone summarizes the violations of one user.
type SuspectedClone struct {
	UserID     string   `json:"user_id"`
	Violations int      `json:"violations"`
	Days       []string `json:"days"`
}

// TravelReport is the output of the impossible travel detector.
type TravelReport struct {
	Violations []Violation      `json:"violations"`
	Suspects   []SuspectedClone `json:"suspects"`
}

// CuriousFinding is the evidence collected for one flagged user.
type CuriousFinding struct {
	UserID string `json:"user_id"`
	// Attempts and Failures count every event of the user.
	Attempts int `json:"attempts"`
	Failures int `json:"failures"`
	// DistinctRooms counts distinct rooms with a failure over the stream.
	DistinctRooms int `json:"distinct_rooms"`
	// MaxDailyDistinct is the highest per-day count of distinct failed rooms.
	MaxDailyDistinct int      `json:"max_daily_distinct"`
	FailureRate      float64  `json:"failure_rate"`
	Reasons          []string `json:"reasons"`
}

// Curious flag reasons.
const (
	ReasonDistinctRooms      = "distinct_rooms"
	ReasonTotalDistinctRooms = "total_distinct_rooms"
	ReasonFailureRate        = "failure_rate"
)

// CuriousReport is the output of the curious user detector.
type CuriousReport struct {
	// Findings are ranked by MaxDailyDistinct, then Failures, then user id.
	Findings []CuriousFinding `json:"findings"`
	// UsersWithFailures counts users with at least one failed attempt.
	UsersWithFailures int `json:"users_with_failures"`
	// FailureRateCutoff is the population percentile value, when enabled.
	FailureRateCutoff float64 `json:"failure_rate_cutoff,omitempty"`
}

// RoomStats holds the aggregate access statistics of one room.
type RoomStats struct {
	RoomID     string `json:"room_id"`
	BuildingID string `json:"building_id"`
	LocationID string `json:"location_id"`

	// Attempts counts every event; Visits counts successful ones.
	Attempts      int `json:"attempts"`
	Visits        int `json:"visits"`
	DistinctUsers int `json:"distinct_users"`
	ActiveDays    int `json:"active_days"`

	// Dwell is measured over visits followed by another event of the
	// same user on the same day.
	DwellSamples  int           `json:"dwell_samples"`
	MeanDwell     time.Duration `json:"mean_dwell_ns"`
	DwellVariance float64       `json:"dwell_variance_s2"`

	HourHistogram      [24]int `json:"hour_histogram"`
	BusinessHoursShare float64 `json:"business_hours_share"`
	LunchShare         float64 `json:"lunch_share"`
	// EdgeOfDayShare is the share of visits that are a user's first or
	// last event of the day.
	EdgeOfDayShare float64 `json:"edge_of_day_share"`
	// RepeatVisitRatio is the share of visits made by a user who already
	// visited the room that day.
	RepeatVisitRatio float64 `json:"repeat_visit_ratio"`
	FailureShare     float64 `json:"failure_share"`
	// VisitsPerDay is Visits over the days covered by the whole stream.
	VisitsPerDay float64 `json:"visits_per_day"`
}

// RoomClassification is the inferred category of one room.
type RoomClassification struct {
	RoomID   string            `json:"room_id"`
	Category facility.Category `json:"category"`
	Stats    RoomStats         `json:"stats"`
}

// RoomReport is the output of the room classifier.
type RoomReport struct {
	Rooms  []RoomClassification      `json:"rooms"`
	Counts map[facility.Category]int `json:"counts"`
}

// Report is the complete analysis of one event stream.
type Report struct {
	Events int `json:"events"`
	Users  int `json:"users"`
	Days   int `json:"days"`
	// Skipped counts events referencing unknown or inconsistent entities.
	Skipped int `json:"skipped"`
	// Malformed counts input lines that could not be decoded.
	Malformed int `json:"malformed"`

	ImpossibleTravel *TravelReport    `json:"impossible_travel"`
	CuriousUsers     *CuriousReport   `json:"curious_users"`
	Rooms            *RoomReport      `json:"rooms"`
	Evaluation       *Evaluation      `json:"evaluation,omitempty"`
	Durations        map[string]int64 `json:"durations_ms,omitempty"`
}

// SuspectedCloneSet returns the user ids with at least one violation.
func (r *Report) SuspectedCloneSet() map[string]struct{} {
	out := make(map[string]struct{})
	if r.ImpossibleTravel == nil {
		return out
	}
	for _, s := range r.ImpossibleTravel.Suspects {
		out[s.UserID] = struct{}{}
	}
	return out
}

// CuriousSet returns the user ids flagged as curious.
func (r *Report) CuriousSet() map[string]struct{} {
	out := make(map[string]struct{})
	if r.CuriousUsers == nil {
		return out
	}
	for _, f := range r.CuriousUsers.Findings {
		out[f.UserID] = struct{}{}
	}
	return out
}
