// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file when none
// is given explicitly. The first file found is used.
var DefaultConfigPaths = []string{
	"badgesim.yaml",
	"badgesim.yml",
	"badgesim.json",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "BADGESIM_CONFIG"

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "BADGESIM_"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by file, env and flags.
func defaultConfig() *Config {
	return &Config{
		UserCount:               10000,
		LocationCount:           5,
		MinBuildingsPerLocation: 4,
		MaxBuildingsPerLocation: 6,
		MinRoomsPerBuilding:     10,
		MaxRoomsPerBuilding:     50,
		CuriousUserPercentage:   0.05,
		ClonedBadgePercentage:   0.001,
		PrimaryBuildingAffinity: 0.85,
		SameLocationTravel:      0.10,
		DifferentLocationTravel: 0.05,
		Seed:                    0, // drawn at startup
		Days:                    1,
		StartDate:               "2025-01-06", // a Monday; fixed so identical seeds give identical streams
		Workers:                 0,            // 0 = runtime.NumCPU()
		RoomTypeWeights: map[string]int{
			"workspace":        40,
			"meeting_room":     15,
			"bathroom":         10,
			"kitchen":          10,
			"storage":          10,
			"cafeteria":        7,
			"executive_office": 4,
			"server_room":      2,
			"laboratory":       2,
		},
		LocationWeights: []float64{},
		Schedule: ScheduleConfig{
			ArrivalStart:       "08:00",
			ArrivalEnd:         "10:00",
			LunchStart:         "11:30",
			LunchEnd:           "13:30",
			DepartureStart:     "16:30",
			DepartureEnd:       "18:30",
			MinMeetings:        1,
			MaxMeetings:        4,
			MinBreaks:          2,
			MaxBreaks:          3,
			MeetingMinDuration: 30 * time.Minute,
			MeetingMaxDuration: 60 * time.Minute,
			BreakMinDuration:   5 * time.Minute,
			BreakMaxDuration:   15 * time.Minute,
			LunchMinDuration:   30 * time.Minute,
			LunchMaxDuration:   60 * time.Minute,
		},
		Behavior: BehaviorConfig{
			IncidentalDenialRate:   0.02,
			CuriousAttemptsMin:     3,
			CuriousAttemptsMax:     6,
			CloneDayProbability:    0.5,
			CloneRoomsMin:          2,
			CloneRoomsMax:          6,
			MaintenanceProbability: 0.3,
		},
		Travel: TravelConfig{
			SameLocation:  30 * time.Minute,
			CrossLocation: 4 * time.Hour,
		},
		Detection: DetectionConfig{
			DistinctRoomThreshold:      3,
			TotalDistinctRoomThreshold: 6,
			FailureRatePercentile:      0, // disabled
			MinFailures:                3,
			MaxDwell:                   12 * time.Hour,
		},
		Output: OutputConfig{
			Path:                 "-",
			UserProfilesOutput:   "",
			AnalyzeReport:        "",
			IncludeFailureReason: false,
			IncludeEventType:     false,
			BufferSize:           64 << 10,
			NATSURL:              "",
			Topic:                "badge-events",
		},
		Streaming: StreamingConfig{
			Enabled:                false,
			TimeAccelerationFactor: 1.0,
			MaxEmitDelay:           5 * time.Second,
			MaxEventsPerSecond:     0, // unlimited
		},
		Metrics: MetricsConfig{
			Addr:           "",
			EventFeed:      false,
			AllowedOrigins: []string{},
		},
		Supervisor: SupervisorConfig{
			ShutdownTimeout:     10 * time.Second,
			HTTPShutdownTimeout: 5 * time.Second,
			FailureThreshold:    5,
			FailureBackoff:      15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			Caller: false,
		},
	}
}

// Default returns the built-in configuration. Used by tests and --print-config.
func Default() *Config {
	return defaultConfig()
}

// LoadOptions controls where LoadWithKoanf reads from.
type LoadOptions struct {
	// Path is an explicit config file. When empty the BADGESIM_CONFIG
	// variable and DefaultConfigPaths are searched.
	Path string

	// Overrides are applied last, keyed by koanf path (e.g. "days").
	// The CLI fills it with the flags that were explicitly set.
	Overrides map[string]interface{}

	// SkipEnv disables the environment layer. Used by tests.
	SkipEnv bool
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML or JSON config file
//  3. Environment Variables: BADGESIM_* overrides
//  4. Overrides: explicitly set CLI flags
//
// Every failure wraps ErrInvalidConfig.
func LoadWithKoanf(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: failed to load defaults: %v", ErrInvalidConfig, err)
	}

	// Layer 2: Load config file (optional unless given explicitly)
	configPath, err := resolveConfigFile(opts.Path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		// The YAML parser also accepts JSON documents.
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: failed to load config file %s: %v", ErrInvalidConfig, configPath, err)
		}
	}

	// Layer 3: Load environment variables
	// BADGESIM_USER_COUNT -> user_count
	// BADGESIM_TIME_ACCELERATION_FACTOR -> streaming.time_acceleration_factor
	if !opts.SkipEnv {
		if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
			return nil, fmt.Errorf("%w: failed to load environment variables: %v", ErrInvalidConfig, err)
		}
	}

	// Layer 4: CLI overrides
	for path, value := range opts.Overrides {
		if err := k.Set(path, value); err != nil {
			return nil, fmt.Errorf("%w: failed to set %s: %v", ErrInvalidConfig, path, err)
		}
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("%w: failed to process slice fields: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal configuration: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigFile returns the config file to load, or "" when none exists.
// An explicitly requested file that does not exist is an error.
func resolveConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: config file %s: %v", ErrInvalidConfig, explicit, err)
		}
		return explicit, nil
	}
	return findConfigFile(), nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"location_weights",
	"metrics.allowed_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased variable names (without the BADGESIM_ prefix)
// to koanf paths. Unmapped variables are ignored.
var envMappings = map[string]string{
	"user_count":                 "user_count",
	"location_count":             "location_count",
	"min_buildings_per_location": "min_buildings_per_location",
	"max_buildings_per_location": "max_buildings_per_location",
	"min_rooms_per_building":     "min_rooms_per_building",
	"max_rooms_per_building":     "max_rooms_per_building",
	"curious_user_percentage":    "curious_user_percentage",
	"cloned_badge_percentage":    "cloned_badge_percentage",
	"primary_building_affinity":  "primary_building_affinity",
	"same_location_travel":       "same_location_travel",
	"different_location_travel":  "different_location_travel",
	"seed":                       "seed",
	"days":                       "days",
	"start_date":                 "start_date",
	"workers":                    "workers",
	"location_weights":           "location_weights",

	"arrival_start":   "schedule.arrival_start",
	"arrival_end":     "schedule.arrival_end",
	"departure_start": "schedule.departure_start",
	"departure_end":   "schedule.departure_end",

	"incidental_denial_rate": "behavior.incidental_denial_rate",
	"clone_day_probability":  "behavior.clone_day_probability",

	"travel_same_location":  "travel.same_location",
	"travel_cross_location": "travel.cross_location",

	"shutdown_timeout":      "supervisor.shutdown_timeout",
	"http_shutdown_timeout": "supervisor.http_shutdown_timeout",

	"distinct_room_threshold":       "detection.distinct_room_threshold",
	"total_distinct_room_threshold": "detection.total_distinct_room_threshold",
	"failure_rate_percentile":       "detection.failure_rate_percentile",

	"output":                 "output.path",
	"user_profiles_output":   "output.user_profiles_output",
	"analyze_report":         "output.analyze_report",
	"include_failure_reason": "output.include_failure_reason",
	"include_event_type":     "output.include_event_type",
	"nats_url":               "output.nats_url",
	"topic":                  "output.topic",

	"streaming":                "streaming.enabled",
	"time_acceleration_factor": "streaming.time_acceleration_factor",
	"max_emit_delay":           "streaming.max_emit_delay",
	"max_events_per_second":    "streaming.max_events_per_second",

	"metrics_addr":    "metrics.addr",
	"event_feed":      "metrics.event_feed",
	"allowed_origins": "metrics.allowed_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - BADGESIM_USER_COUNT -> user_count
//   - BADGESIM_STREAMING -> streaming.enabled
//   - BADGESIM_LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Returning "" skips the variable so stray BADGESIM_* values cannot
	// pollute the config.
	return ""
}

// JSON renders the effective configuration with its koanf keys, for --print-config.
func (c *Config) JSON() ([]byte, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(c, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to flatten configuration: %w", err)
	}
	out, err := json.MarshalIndent(k.Raw(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal configuration: %w", err)
	}
	return out, nil
}
