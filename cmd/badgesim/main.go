// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package main is the badgesim command.
//
// badgesim generates a reproducible stream of synthetic badge access events
// for a multi-site organization, with labeled anomalies (curious users and
// cloned badges), and analyzes such streams to recover those anomalies.
//
// # Commands
//
//	badgesim [generate] [flags]      generate events (default command)
//	badgesim analyze --events FILE   run the detectors over an event file
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Command line flags that were explicitly set
//   - BADGESIM_* environment variables
//   - Config file (--config, BADGESIM_CONFIG or ./badgesim.yaml)
//   - Built-in defaults
//
// # Build Tags
//
//	go build -tags nats ./cmd/badgesim   # enable the NATS JetStream sink
//
// # Exit Codes
//
//	0  success
//	1  runtime failure
//	2  invalid configuration or usage; no output files are created
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the run. Sinks flush what was already written and
// the metrics endpoint shuts down gracefully.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/badgesim/internal/config"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errUsage marks command line errors that were already reported.
var errUsage = errors.New("usage error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches the subcommand and maps its error to an exit code.
func run(args []string, stdout, stderr io.Writer) int {
	command := "generate"
	if len(args) > 0 {
		switch args[0] {
		case "generate", "analyze":
			command, args = args[0], args[1:]
		case "version", "--version":
			fmt.Fprintf(stdout, "badgesim %s\n", version)
			return exitOK
		}
	}

	var err error
	switch command {
	case "analyze":
		err = runAnalyze(args, stdout, stderr)
	default:
		err = runGenerate(args, stdout, stderr)
	}
	return exitCode(err, stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil, errors.Is(err, errHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, config.ErrInvalidConfig):
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
}
