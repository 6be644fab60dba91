// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// TestDefaultConfig verifies that defaultConfig() returns the documented defaults
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.UserCount != 10000 {
		t.Errorf("UserCount = %d, want 10000", cfg.UserCount)
	}
	if cfg.LocationCount != 5 {
		t.Errorf("LocationCount = %d, want 5", cfg.LocationCount)
	}
	if cfg.MinBuildingsPerLocation != 4 || cfg.MaxBuildingsPerLocation != 6 {
		t.Errorf("buildings per location = %d..%d, want 4..6", cfg.MinBuildingsPerLocation, cfg.MaxBuildingsPerLocation)
	}
	if cfg.MinRoomsPerBuilding != 10 || cfg.MaxRoomsPerBuilding != 50 {
		t.Errorf("rooms per building = %d..%d, want 10..50", cfg.MinRoomsPerBuilding, cfg.MaxRoomsPerBuilding)
	}
	if cfg.Travel.SameLocation != 30*time.Minute {
		t.Errorf("Travel.SameLocation = %v, want 30m", cfg.Travel.SameLocation)
	}
	if cfg.Travel.CrossLocation != 4*time.Hour {
		t.Errorf("Travel.CrossLocation = %v, want 4h", cfg.Travel.CrossLocation)
	}
	if cfg.Detection.DistinctRoomThreshold != 3 {
		t.Errorf("Detection.DistinctRoomThreshold = %d, want 3", cfg.Detection.DistinctRoomThreshold)
	}
	if cfg.Supervisor.ShutdownTimeout != 10*time.Second || cfg.Supervisor.HTTPShutdownTimeout != 5*time.Second {
		t.Errorf("Supervisor = %+v, want 10s/5s shutdown timeouts", cfg.Supervisor)
	}
	if cfg.Detection.TotalDistinctRoomThreshold != 6 {
		t.Errorf("Detection.TotalDistinctRoomThreshold = %d, want 6", cfg.Detection.TotalDistinctRoomThreshold)
	}
	if cfg.Output.Path != "-" {
		t.Errorf("Output.Path = %q, want -", cfg.Output.Path)
	}
	if cfg.StartDate != "2025-01-06" {
		t.Errorf("StartDate = %q, want 2025-01-06", cfg.StartDate)
	}
	if len(cfg.RoomTypeWeights) != len(RoomTypeKeys) {
		t.Errorf("RoomTypeWeights has %d keys, want %d", len(cfg.RoomTypeWeights), len(RoomTypeKeys))
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"BADGESIM_USER_COUNT", "user_count"},
		{"BADGESIM_DAYS", "days"},
		{"BADGESIM_STREAMING", "streaming.enabled"},
		{"BADGESIM_TIME_ACCELERATION_FACTOR", "streaming.time_acceleration_factor"},
		{"BADGESIM_OUTPUT", "output.path"},
		{"BADGESIM_LOG_LEVEL", "logging.level"},
		{"BADGESIM_METRICS_ADDR", "metrics.addr"},
		{"BADGESIM_EVENT_FEED", "metrics.event_feed"},
		{"BADGESIM_ALLOWED_ORIGINS", "metrics.allowed_origins"},
		{"BADGESIM_SHUTDOWN_TIMEOUT", "supervisor.shutdown_timeout"},
		{"BADGESIM_UNKNOWN_THING", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWithKoanf(LoadOptions{Path: writeConfigFile(t, "badgesim.yaml", "{}\n"), SkipEnv: true})
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.UserCount != 10000 {
		t.Errorf("UserCount = %d, want 10000", cfg.UserCount)
	}
	if cfg.RoomTypeWeights["workspace"] != 40 {
		t.Errorf("RoomTypeWeights[workspace] = %d, want 40", cfg.RoomTypeWeights["workspace"])
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	t.Parallel()

	yamlContent := `
user_count: 250
location_count: 3
days: 2
start_date: "2025-03-03"
room_type_weights:
  workspace: 20
schedule:
  arrival_start: "07:30"
  meeting_max_duration: 90m
travel:
  same_location: 20m
streaming:
  enabled: true
  time_acceleration_factor: 288
`
	cfg, err := LoadWithKoanf(LoadOptions{Path: writeConfigFile(t, "badgesim.yaml", yamlContent), SkipEnv: true})
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.UserCount != 250 {
		t.Errorf("UserCount = %d, want 250", cfg.UserCount)
	}
	if cfg.Days != 2 {
		t.Errorf("Days = %d, want 2", cfg.Days)
	}
	if cfg.RoomTypeWeights["workspace"] != 20 {
		t.Errorf("RoomTypeWeights[workspace] = %d, want 20", cfg.RoomTypeWeights["workspace"])
	}
	if cfg.RoomTypeWeights["meeting_room"] != 15 {
		t.Errorf("file must merge over default weights, meeting_room = %d", cfg.RoomTypeWeights["meeting_room"])
	}
	if cfg.Schedule.ArrivalStart != "07:30" {
		t.Errorf("Schedule.ArrivalStart = %q, want 07:30", cfg.Schedule.ArrivalStart)
	}
	if cfg.Schedule.MeetingMaxDuration != 90*time.Minute {
		t.Errorf("Schedule.MeetingMaxDuration = %v, want 90m", cfg.Schedule.MeetingMaxDuration)
	}
	if cfg.Travel.SameLocation != 20*time.Minute {
		t.Errorf("Travel.SameLocation = %v, want 20m", cfg.Travel.SameLocation)
	}
	if !cfg.Streaming.Enabled || cfg.Streaming.TimeAccelerationFactor != 288 {
		t.Errorf("Streaming = %+v", cfg.Streaming)
	}
	if got := cfg.StartTime(); !got.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartTime() = %v", got)
	}
}

func TestLoadWithKoanfEventFeed(t *testing.T) {
	t.Parallel()

	yamlContent := `
metrics:
  addr: "127.0.0.1:9464"
  event_feed: true
  allowed_origins: "http://dashboard.example, http://ops.example"
`
	cfg, err := LoadWithKoanf(LoadOptions{Path: writeConfigFile(t, "badgesim.yaml", yamlContent), SkipEnv: true})
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !cfg.Metrics.EventFeed {
		t.Error("Metrics.EventFeed = false")
	}
	want := []string{"http://dashboard.example", "http://ops.example"}
	if len(cfg.Metrics.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.Metrics.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.Metrics.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, cfg.Metrics.AllowedOrigins[i], want[i])
		}
	}
}

func TestLoadWithKoanfJSONFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadWithKoanf(LoadOptions{
		Path:    writeConfigFile(t, "badgesim.json", `{"user_count": 42, "output": {"path": "events.jsonl"}}`),
		SkipEnv: true,
	})
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.UserCount != 42 || cfg.Output.Path != "events.jsonl" {
		t.Errorf("unexpected config: user_count=%d output=%q", cfg.UserCount, cfg.Output.Path)
	}
}

func TestLoadWithKoanfPrecedence(t *testing.T) {
	path := writeConfigFile(t, "badgesim.yaml", "user_count: 100\ndays: 3\nlocation_count: 2\n")
	t.Setenv("BADGESIM_USER_COUNT", "200")
	t.Setenv("BADGESIM_LOCATION_WEIGHTS", "0.75, 0.25")
	t.Setenv("BADGESIM_LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf(LoadOptions{
		Path:      path,
		Overrides: map[string]interface{}{"days": 5},
	})
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.UserCount != 200 {
		t.Errorf("env must override file: UserCount = %d, want 200", cfg.UserCount)
	}
	if cfg.Days != 5 {
		t.Errorf("flags must override file: Days = %d, want 5", cfg.Days)
	}
	if len(cfg.LocationWeights) != 2 || cfg.LocationWeights[0] != 0.75 {
		t.Errorf("LocationWeights = %v, want [0.75 0.25]", cfg.LocationWeights)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    LoadOptions
		wantMsg string
	}{
		{
			name:    "missing explicit file",
			opts:    LoadOptions{Path: filepath.Join(t.TempDir(), "nope.yaml"), SkipEnv: true},
			wantMsg: "nope.yaml",
		},
		{
			name:    "invalid value from override",
			opts:    LoadOptions{Path: writeConfigFile(t, "a.yaml", "{}"), Overrides: map[string]interface{}{"user_count": 0}, SkipEnv: true},
			wantMsg: "user_count must be at least 1",
		},
		{
			name:    "malformed file",
			opts:    LoadOptions{Path: writeConfigFile(t, "b.yaml", "user_count: [oops"), SkipEnv: true},
			wantMsg: "failed to load config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadWithKoanf(tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error must wrap ErrInvalidConfig: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestConfigJSON(t *testing.T) {
	t.Parallel()

	out, err := Default().JSON()
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["user_count"] != float64(10000) {
		t.Errorf("user_count = %v", decoded["user_count"])
	}
	schedule, ok := decoded["schedule"].(map[string]interface{})
	if !ok || schedule["arrival_start"] != "08:00" {
		t.Errorf("schedule not nested by koanf key: %v", decoded["schedule"])
	}
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}
