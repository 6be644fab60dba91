// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

/*
Package config provides layered configuration loading for badgesim.

# Configuration Sources

Sources are applied in order, later layers overriding earlier ones:

  - Built-in defaults (defaultConfig)
  - A YAML or JSON file: --config, $BADGESIM_CONFIG, or badgesim.yaml/.yml/.json
  - Environment variables prefixed with BADGESIM_
  - CLI flags that were explicitly set

# Environment Variables

Population and facility shape:
  - BADGESIM_USER_COUNT: Number of users (default: 10000)
  - BADGESIM_LOCATION_COUNT: Number of locations (default: 5)
  - BADGESIM_CURIOUS_USER_PERCENTAGE: Fraction of curious users (default: 0.05)
  - BADGESIM_CLONED_BADGE_PERCENTAGE: Fraction of cloned badges (default: 0.001)
  - BADGESIM_LOCATION_WEIGHTS: Comma-separated population shares per location

Run control:
  - BADGESIM_SEED: Run seed (default: drawn at startup and logged)
  - BADGESIM_DAYS: Number of simulated days (default: 1)
  - BADGESIM_START_DATE: First simulated day, YYYY-MM-DD (default: 2025-01-06)
  - BADGESIM_STREAMING: Paced real-time emission (default: false)
  - BADGESIM_TIME_ACCELERATION_FACTOR: Simulated seconds per wall second (default: 1)

Output:
  - BADGESIM_OUTPUT: Event file, "-" for stdout (default: -)
  - BADGESIM_NATS_URL: Publish events to NATS JetStream (nats build tag)
  - BADGESIM_METRICS_ADDR: Serve /metrics and /healthz on this address

# Validation

Field rules are expressed as validator tags and checked through
internal/validation; cross-field rules (min <= max pairs, affinity sum,
window ordering, weight keys) are checked in config_validate.go. Every
problem is reported in a single error wrapping ErrInvalidConfig.

# Thread Safety

The Config struct is immutable after LoadWithKoanf returns.
*/
package config
