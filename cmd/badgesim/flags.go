// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// errHelp is returned when -h or --help was requested.
var errHelp = errors.New("help requested")

// overrideFlag is a command line flag that overrides one configuration key.
// Only flags that were explicitly set reach koanf, so defaults from the
// config file and environment are not clobbered.
type overrideFlag struct {
	name  string
	key   string
	usage string
	def   interface{}
}

var generateOverrides = []overrideFlag{
	{"seed", "seed", "run seed; 0 draws a random seed and logs it", uint64(0)},
	{"days", "days", "number of simulated days", 0},
	{"start-date", "start_date", "first simulated day (YYYY-MM-DD)", ""},
	{"user-count", "user_count", "number of simulated users", 0},
	{"location-count", "location_count", "number of geographic locations", 0},
	{"curious-percentage", "curious_user_percentage", "fraction of curious users (0-1)", 0.0},
	{"cloned-badge-percentage", "cloned_badge_percentage", "fraction of cloned badges (0-1)", 0.0},
	{"workers", "workers", "concurrent user-day generators; 0 uses all CPUs", 0},
	{"output", "output.path", `event output file; "-" writes to stdout`, ""},
	{"user-profiles-output", "output.user_profiles_output", "answer key output file", ""},
	{"analyze-report", "output.analyze_report", "analyze the generated stream and write a JSON report", ""},
	{"include-failure-reason", "output.include_failure_reason", "add failure_reason to denied events", false},
	{"include-event-type", "output.include_event_type", "add event_type to every event", false},
	{"nats-url", "output.nats_url", "also publish events to NATS JetStream (nats build tag)", ""},
	{"streaming", "streaming.enabled", "emit events paced in accelerated real time", false},
	{"time-acceleration-factor", "streaming.time_acceleration_factor", "simulated seconds per wall-clock second", 0.0},
	{"metrics-addr", "metrics.addr", "serve /metrics, /healthz and /status on this address", ""},
	{"event-feed", "metrics.event_feed", "broadcast events to WebSocket clients on /events (needs --metrics-addr)", false},
	{"log-format", "logging.format", "log format: console or json", ""},
}

var analyzeOverrides = []overrideFlag{
	{"seed", "seed", "seed of the run that produced the events; rebuilds its facility", uint64(0)},
	{"report", "output.analyze_report", "write the JSON report to this file", ""},
	{"distinct-room-threshold", "detection.distinct_room_threshold", "distinct denied rooms in one day that flag a curious user", 0},
	{"total-distinct-room-threshold", "detection.total_distinct_room_threshold", "distinct denied rooms over the run that flag a curious user; 0 disables", 0},
	{"failure-rate-percentile", "detection.failure_rate_percentile", "also flag users above this failure-rate percentile; 0 disables", 0.0},
	{"metrics-addr", "metrics.addr", "serve /metrics, /healthz and /status on this address", ""},
	{"log-format", "logging.format", "log format: console or json", ""},
}

// commonOptions are the flags shared by every command.
type commonOptions struct {
	configPath string
	verbose    bool
	debug      bool
	overrides  map[string]interface{}
}

func (o *commonOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "config file (YAML or JSON)")
	fs.BoolVar(&o.verbose, "verbose", false, "log at info level")
	fs.BoolVar(&o.debug, "debug", false, "log at debug level")
}

type generateOptions struct {
	commonOptions
	dryRun      bool
	printConfig bool
}

type analyzeOptions struct {
	commonOptions
	events    string
	answerKey string
}

func parseGenerateFlags(args []string, stderr io.Writer) (*generateOptions, error) {
	fs := newFlagSet("badgesim generate", stderr)
	opts := &generateOptions{}
	opts.register(fs)
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print the configuration summary and exit")
	fs.BoolVar(&opts.printConfig, "print-config", false, "print the effective configuration as JSON and exit")
	bindOverrides(fs, generateOverrides)

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	opts.overrides = collectOverrides(fs, generateOverrides)
	return opts, nil
}

func parseAnalyzeFlags(args []string, stderr io.Writer) (*analyzeOptions, error) {
	fs := newFlagSet("badgesim analyze", stderr)
	opts := &analyzeOptions{}
	opts.register(fs)
	fs.StringVar(&opts.events, "events", "", "JSON Lines event file to analyze (required)")
	fs.StringVar(&opts.answerKey, "answer-key", "", "answer key file; adds precision and recall to the report")
	bindOverrides(fs, analyzeOverrides)

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if opts.events == "" {
		fmt.Fprintln(stderr, "badgesim analyze: --events is required")
		fs.Usage()
		return nil, errUsage
	}
	opts.overrides = collectOverrides(fs, analyzeOverrides)
	return opts, nil
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "%s: unexpected argument %q\n", fs.Name(), fs.Arg(0))
		fs.Usage()
		return errUsage
	}
	return nil
}

func bindOverrides(fs *flag.FlagSet, flags []overrideFlag) {
	for _, f := range flags {
		switch def := f.def.(type) {
		case int:
			fs.Int(f.name, def, f.usage)
		case uint64:
			fs.Uint64(f.name, def, f.usage)
		case float64:
			fs.Float64(f.name, def, f.usage)
		case bool:
			fs.Bool(f.name, def, f.usage)
		case string:
			fs.String(f.name, def, f.usage)
		default:
			panic(fmt.Sprintf("unsupported flag type %T for --%s", def, f.name))
		}
	}
}

// collectOverrides maps the explicitly set flags to their config keys.
func collectOverrides(fs *flag.FlagSet, flags []overrideFlag) map[string]interface{} {
	keys := make(map[string]string, len(flags))
	for _, f := range flags {
		keys[f.name] = f.key
	}
	overrides := make(map[string]interface{})
	fs.Visit(func(f *flag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			overrides[key] = g.Get()
		}
	})
	return overrides
}
