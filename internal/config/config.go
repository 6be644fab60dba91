// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration loading or validation
// failure. The CLI maps it to exit code 2.
var ErrInvalidConfig = errors.New("invalid configuration")

// StartDateLayout is the layout of the start_date key.
const StartDateLayout = "2006-01-02"

// Config holds the complete simulator configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults (see defaultConfig)
//  2. Config File: Optional YAML or JSON file (--config or a default path)
//  3. Environment Variables: BADGESIM_* overrides
//  4. CLI Flags: Only flags that were explicitly set
//
// Thread Safety:
// Config is immutable after LoadWithKoanf() and safe for concurrent reads.
type Config struct {
	UserCount               int `koanf:"user_count" validate:"min=1,max=1000000"`
	LocationCount           int `koanf:"location_count" validate:"min=1,max=1000"`
	MinBuildingsPerLocation int `koanf:"min_buildings_per_location" validate:"min=1,max=1000"`
	MaxBuildingsPerLocation int `koanf:"max_buildings_per_location" validate:"min=1,max=1000"`
	// Every building holds a lobby plus at least one other room.
	MinRoomsPerBuilding int `koanf:"min_rooms_per_building" validate:"min=2,max=10000"`
	MaxRoomsPerBuilding int `koanf:"max_rooms_per_building" validate:"min=2,max=10000"`

	CuriousUserPercentage float64 `koanf:"curious_user_percentage" validate:"gte=0,lte=1"`
	ClonedBadgePercentage float64 `koanf:"cloned_badge_percentage" validate:"gte=0,lte=1"`

	// Affinity scope distribution for activity room selection; must sum to 1.
	PrimaryBuildingAffinity float64 `koanf:"primary_building_affinity" validate:"gte=0,lte=1"`
	SameLocationTravel      float64 `koanf:"same_location_travel" validate:"gte=0,lte=1"`
	DifferentLocationTravel float64 `koanf:"different_location_travel" validate:"gte=0,lte=1"`

	// Seed drives every random decision. Zero means a seed is drawn at
	// startup and logged so the run can be reproduced.
	Seed      uint64 `koanf:"seed"`
	Days      int    `koanf:"days" validate:"min=1,max=3660"`
	StartDate string `koanf:"start_date" validate:"required,datetime=2006-01-02"`
	// Workers bounds concurrent user-day generation; 0 uses runtime.NumCPU().
	Workers int `koanf:"workers" validate:"min=0,max=4096"`

	// RoomTypeWeights are relative weights for non-lobby rooms, keyed by room type.
	RoomTypeWeights map[string]int `koanf:"room_type_weights"`
	// LocationWeights are per-location population shares; empty means uniform.
	LocationWeights []float64 `koanf:"location_weights"`

	Schedule  ScheduleConfig  `koanf:"schedule"`
	Behavior  BehaviorConfig  `koanf:"behavior"`
	Travel    TravelConfig    `koanf:"travel"`
	Detection DetectionConfig `koanf:"detection"`
	Output    OutputConfig    `koanf:"output"`
	Streaming StreamingConfig `koanf:"streaming"`
	Metrics    MetricsConfig    `koanf:"metrics"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ScheduleConfig shapes a normal working day. Clock values use the
// "15:04" layout and are interpreted in UTC.
type ScheduleConfig struct {
	ArrivalStart   string `koanf:"arrival_start" validate:"required,datetime=15:04"`
	ArrivalEnd     string `koanf:"arrival_end" validate:"required,datetime=15:04"`
	LunchStart     string `koanf:"lunch_start" validate:"required,datetime=15:04"`
	LunchEnd       string `koanf:"lunch_end" validate:"required,datetime=15:04"`
	DepartureStart string `koanf:"departure_start" validate:"required,datetime=15:04"`
	DepartureEnd   string `koanf:"departure_end" validate:"required,datetime=15:04"`

	MinMeetings int `koanf:"min_meetings" validate:"min=0,max=20"`
	MaxMeetings int `koanf:"max_meetings" validate:"min=0,max=20"`
	MinBreaks   int `koanf:"min_breaks" validate:"min=0,max=20"`
	MaxBreaks   int `koanf:"max_breaks" validate:"min=0,max=20"`

	MeetingMinDuration time.Duration `koanf:"meeting_min_duration" validate:"gt=0"`
	MeetingMaxDuration time.Duration `koanf:"meeting_max_duration" validate:"gt=0"`
	BreakMinDuration   time.Duration `koanf:"break_min_duration" validate:"gt=0"`
	BreakMaxDuration   time.Duration `koanf:"break_max_duration" validate:"gt=0"`
	LunchMinDuration   time.Duration `koanf:"lunch_min_duration" validate:"gt=0"`
	LunchMaxDuration   time.Duration `koanf:"lunch_max_duration" validate:"gt=0"`
}

// BehaviorConfig tunes the behavior variants and noise.
type BehaviorConfig struct {
	// IncidentalDenialRate is the per user-day probability of one stale-permission denial.
	IncidentalDenialRate float64 `koanf:"incidental_denial_rate" validate:"gte=0,lte=1"`
	CuriousAttemptsMin   int     `koanf:"curious_attempts_min" validate:"min=1,max=100"`
	CuriousAttemptsMax   int     `koanf:"curious_attempts_max" validate:"min=1,max=100"`
	// CloneDayProbability is the chance a cloned user's badge is used on a given day.
	CloneDayProbability    float64 `koanf:"clone_day_probability" validate:"gte=0,lte=1"`
	CloneRoomsMin          int     `koanf:"clone_rooms_min" validate:"min=1,max=50"`
	CloneRoomsMax          int     `koanf:"clone_rooms_max" validate:"min=1,max=50"`
	MaintenanceProbability float64 `koanf:"maintenance_probability" validate:"gte=0,lte=1"`
}

// TravelConfig holds the minimum travel times between badge readers.
type TravelConfig struct {
	SameLocation  time.Duration `koanf:"same_location" validate:"gte=0"`
	CrossLocation time.Duration `koanf:"cross_location" validate:"gt=0"`
}

// DetectionConfig holds the analysis thresholds.
type DetectionConfig struct {
	// DistinctRoomThreshold flags a user once they fail on this many distinct rooms in one day.
	DistinctRoomThreshold int `koanf:"distinct_room_threshold" validate:"min=1,max=1000"`
	// TotalDistinctRoomThreshold flags a user once they fail on this many distinct rooms over the run; 0 disables.
	TotalDistinctRoomThreshold int `koanf:"total_distinct_room_threshold" validate:"min=0,max=100000"`
	// FailureRatePercentile enables the population-relative criterion when > 0.
	FailureRatePercentile float64       `koanf:"failure_rate_percentile" validate:"gte=0,lt=100"`
	MinFailures           int           `koanf:"min_failures" validate:"min=1"`
	MaxDwell              time.Duration `koanf:"max_dwell" validate:"gt=0"`
}

// OutputConfig selects where events, profiles and reports are written.
type OutputConfig struct {
	// Path is the JSON Lines event file; "-" writes to stdout.
	Path                 string `koanf:"path" validate:"required"`
	UserProfilesOutput   string `koanf:"user_profiles_output"`
	AnalyzeReport        string `koanf:"analyze_report"`
	IncludeFailureReason bool   `koanf:"include_failure_reason"`
	IncludeEventType     bool   `koanf:"include_event_type"`
	BufferSize           int    `koanf:"buffer_size" validate:"min=512,max=67108864"`
	// NATSURL enables the event bus sink (requires the nats build tag).
	NATSURL string `koanf:"nats_url" validate:"omitempty,url"`
	Topic   string `koanf:"topic" validate:"required"`
}

// StreamingConfig controls paced real-time emission.
type StreamingConfig struct {
	Enabled                bool          `koanf:"enabled"`
	TimeAccelerationFactor float64       `koanf:"time_acceleration_factor" validate:"gt=0"`
	MaxEmitDelay           time.Duration `koanf:"max_emit_delay" validate:"gte=0"`
	// MaxEventsPerSecond caps emission with a token bucket; 0 disables the cap.
	MaxEventsPerSecond float64 `koanf:"max_events_per_second" validate:"gte=0"`
}

// MetricsConfig controls the optional /metrics, /healthz and /status endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
	// EventFeed broadcasts emitted events to WebSocket clients on /events.
	EventFeed bool `koanf:"event_feed"`
	// AllowedOrigins are the browser origins allowed by CORS and the
	// WebSocket handshake; empty allows same-origin requests only.
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// SupervisorConfig tunes the supervisor tree that runs a command's job
// next to its endpoints.
type SupervisorConfig struct {
	// ShutdownTimeout bounds how long each service gets to stop.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// HTTPShutdownTimeout bounds the graceful drain of the HTTP endpoint.
	HTTPShutdownTimeout time.Duration `koanf:"http_shutdown_timeout" validate:"gt=0"`
	// FailureThreshold and FailureBackoff control endpoint restarts.
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ClockWindow is a time-of-day interval expressed as offsets from midnight.
type ClockWindow struct {
	Start time.Duration
	End   time.Duration
}

// ParseClock parses an "HH:MM" value into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("clock value %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("clock value %q has an invalid hour", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q has an invalid minute", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// mustClock parses a clock value that already passed validation.
func mustClock(s string) time.Duration {
	d, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Arrival returns the arrival window.
func (s *ScheduleConfig) Arrival() ClockWindow {
	return ClockWindow{Start: mustClock(s.ArrivalStart), End: mustClock(s.ArrivalEnd)}
}

// Lunch returns the lunch window.
func (s *ScheduleConfig) Lunch() ClockWindow {
	return ClockWindow{Start: mustClock(s.LunchStart), End: mustClock(s.LunchEnd)}
}

// Departure returns the departure window.
func (s *ScheduleConfig) Departure() ClockWindow {
	return ClockWindow{Start: mustClock(s.DepartureStart), End: mustClock(s.DepartureEnd)}
}

// StartTime returns midnight UTC of the first simulated day.
func (c *Config) StartTime() time.Time {
	t, err := time.ParseInLocation(StartDateLayout, c.StartDate, time.UTC)
	if err != nil {
		panic(fmt.Sprintf("start_date %q passed validation but does not parse: %v", c.StartDate, err))
	}
	return t
}

// Warnings reports settings that are valid but will not behave as the user
// probably expects.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.ClonedBadgePercentage > 0 && c.LocationCount < 2 {
		warnings = append(warnings, "cloned_badge_percentage is ignored: cloned badges need at least 2 locations")
	}
	if c.Metrics.EventFeed && c.Metrics.Addr == "" {
		warnings = append(warnings, "metrics.event_feed is ignored: metrics.addr is not set")
	}
	if c.Streaming.Enabled && c.Streaming.MaxEmitDelay == 0 && c.Streaming.TimeAccelerationFactor <= 1 {
		warnings = append(warnings, "streaming without max_emit_delay at acceleration <= 1 runs in real time")
	}
	return warnings
}
