// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type windowConfig struct {
	Start string `koanf:"start" validate:"required,datetime=15:04"`
	End   string `koanf:"end" validate:"required,datetime=15:04"`
}

type testConfig struct {
	UserCount int          `koanf:"user_count" validate:"min=1,max=1000"`
	Rate      float64      `koanf:"rate" validate:"gte=0,lte=1"`
	Format    string       `koanf:"format" validate:"oneof=json console"`
	Window    windowConfig `koanf:"window"`
	Internal  string       `koanf:"-" validate:"omitempty,min=2"`
}

func validTestConfig() testConfig {
	return testConfig{
		UserCount: 10,
		Rate:      0.5,
		Format:    "json",
		Window:    windowConfig{Start: "08:00", End: "10:00"},
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	t.Parallel()

	cfg := validTestConfig()
	if err := ValidateStruct(&cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*testConfig)
		wantField string
		wantTag   string
		wantMsg   string
	}{
		{
			name:      "user count below minimum",
			mutate:    func(c *testConfig) { c.UserCount = 0 },
			wantField: "user_count",
			wantTag:   "min",
			wantMsg:   "user_count must be at least 1",
		},
		{
			name:      "rate above one",
			mutate:    func(c *testConfig) { c.Rate = 1.5 },
			wantField: "rate",
			wantTag:   "lte",
			wantMsg:   "rate must be less than or equal to 1",
		},
		{
			name:      "unknown format",
			mutate:    func(c *testConfig) { c.Format = "xml" },
			wantField: "format",
			wantTag:   "oneof",
			wantMsg:   "format must be one of: json console",
		},
		{
			name:      "nested window uses dotted key",
			mutate:    func(c *testConfig) { c.Window.Start = "8am" },
			wantField: "window.start",
			wantTag:   "datetime",
			wantMsg:   "window.start must match the layout 15:04",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validTestConfig()
			tt.mutate(&cfg)

			err := ValidateStruct(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			errs := err.Errors()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %d: %v", len(errs), err)
			}
			if errs[0].Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", errs[0].Field(), tt.wantField)
			}
			if errs[0].Tag() != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", errs[0].Tag(), tt.wantTag)
			}
			if errs[0].Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", errs[0].Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidateStruct_JoinsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := validTestConfig()
	cfg.UserCount = 5000
	cfg.Rate = -1

	err := ValidateStruct(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(err.Errors()))
	}
	msg := err.Error()
	if !strings.Contains(msg, "user_count must be at most 1000") || !strings.Contains(msg, "; ") {
		t.Errorf("unexpected joined message: %s", msg)
	}
}

func TestValidateStruct_StringLength(t *testing.T) {
	t.Parallel()

	cfg := validTestConfig()
	cfg.Internal = "x"

	err := ValidateStruct(&cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := err.Errors()[0].Error(); got != "Internal must be at least 2 characters" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestStructValidationError_Empty(t *testing.T) {
	t.Parallel()

	if got := (&StructValidationError{}).Error(); got != "validation failed" {
		t.Errorf("Error() = %q", got)
	}
}
