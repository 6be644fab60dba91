// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package simulation

import (
	"io"

	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/sink"
)

// WriteDryRun prints what a run with this configuration would do, without
// generating anything.
func WriteDryRun(w io.Writer, cfg *config.Config, seed uint64, seedGenerated bool) error {
	ew := &errWriter{w: w}
	ew.printf("Dry run: no events will be generated\n")
	if seedGenerated {
		ew.printf("  Seed:                 %d (generated)\n", seed)
	} else {
		ew.printf("  Seed:                 %d\n", seed)
	}
	ew.printf("  Days:                 %d starting %s\n", cfg.Days, cfg.StartDate)
	ew.printf("  Users:                %d\n", cfg.UserCount)
	ew.printf("  Locations:            %d\n", cfg.LocationCount)
	ew.printf("  Buildings/location:   %d..%d\n", cfg.MinBuildingsPerLocation, cfg.MaxBuildingsPerLocation)
	ew.printf("  Rooms/building:       %d..%d\n", cfg.MinRoomsPerBuilding, cfg.MaxRoomsPerBuilding)
	ew.printf("  Curious users:        %.2f%% (about %d)\n",
		cfg.CuriousUserPercentage*100, int(float64(cfg.UserCount)*cfg.CuriousUserPercentage))
	ew.printf("  Cloned badges:        %.2f%% (about %d)\n",
		cfg.ClonedBadgePercentage*100, int(float64(cfg.UserCount)*cfg.ClonedBadgePercentage))
	ew.printf("  Affinity:             primary %.2f, same location %.2f, other location %.2f\n",
		cfg.PrimaryBuildingAffinity, cfg.SameLocationTravel, cfg.DifferentLocationTravel)
	ew.printf("  Travel:               %s between buildings, %s between locations\n",
		cfg.Travel.SameLocation, cfg.Travel.CrossLocation)

	out := cfg.Output.Path
	if out == sink.StdoutPath {
		out = "stdout"
	}
	ew.printf("  Events output:        %s\n", out)
	if cfg.Output.UserProfilesOutput != "" {
		ew.printf("  Answer key output:    %s\n", cfg.Output.UserProfilesOutput)
	}
	if cfg.Output.AnalyzeReport != "" {
		ew.printf("  Analysis report:      %s\n", cfg.Output.AnalyzeReport)
	}
	if cfg.Output.NATSURL != "" {
		ew.printf("  Event bus:            %s topic %s\n", cfg.Output.NATSURL, cfg.Output.Topic)
	}
	if cfg.Streaming.Enabled {
		ew.printf("  Streaming:            x%.1f, max delay %s\n",
			cfg.Streaming.TimeAccelerationFactor, cfg.Streaming.MaxEmitDelay)
	}
	for _, warning := range cfg.Warnings() {
		ew.printf("  Warning:              %s\n", warning)
	}
	return ew.err
}
