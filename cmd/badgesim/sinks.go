// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

package main

import (
	"fmt"
	"io"

	"github.com/tomtom215/badgesim/internal/config"
	"github.com/tomtom215/badgesim/internal/events"
	"github.com/tomtom215/badgesim/internal/logging"
	"github.com/tomtom215/badgesim/internal/sink"
	"github.com/tomtom215/badgesim/internal/websocket"
)

// openSinks builds the output chain for a generation run:
//
//	[Paced] -> Multi{JSONL file or stdout, NATS publisher, event feed, Collector}
//
// The collector is returned when an analysis report was requested. hub may
// be nil.
func openSinks(cfg *config.Config, hub *websocket.Hub, stdout io.Writer) (sink.Sink, *sink.Collector, error) {
	serializer := events.NewSerializer(events.Options{
		IncludeFailureReason: cfg.Output.IncludeFailureReason,
		IncludeEventType:     cfg.Output.IncludeEventType,
	})

	var file *sink.JSONL
	if cfg.Output.Path == sink.StdoutPath {
		// Hide stdout's Close so the sink only flushes it.
		file = sink.NewJSONL(struct{ io.Writer }{stdout}, serializer, cfg.Output.BufferSize)
	} else {
		var err error
		file, err = sink.OpenJSONL(cfg.Output.Path, serializer, cfg.Output.BufferSize)
		if err != nil {
			return nil, nil, err
		}
	}
	sinks := []sink.Sink{file}

	if url := cfg.Output.NATSURL; url != "" {
		pub, err := sink.NewNATSPublisher(sink.DefaultNATSConfig(url), sink.NewWatermillLogger())
		if err != nil {
			_ = file.Close()
			return nil, nil, fmt.Errorf("event bus: %w", err)
		}
		publisher, err := sink.NewPublisher(pub, cfg.Output.Topic, serializer)
		if err != nil {
			_ = pub.Close()
			_ = file.Close()
			return nil, nil, err
		}
		publisher.SetCircuitBreaker(sink.NewCircuitBreaker(sink.DefaultCircuitBreakerConfig("nats-publisher")))
		sinks = append(sinks, publisher)
		logging.Info().Str("url", url).Str("topic", cfg.Output.Topic).Msg("Publishing events to NATS")
	}

	if hub != nil {
		sinks = append(sinks, websocket.NewFeed(hub, serializer))
	}

	var collector *sink.Collector
	if cfg.Output.AnalyzeReport != "" {
		collector = &sink.Collector{}
		sinks = append(sinks, collector)
	}

	var out sink.Sink = file
	if len(sinks) > 1 {
		out = sink.NewMulti(sinks...)
	}

	if cfg.Streaming.Enabled {
		paced, err := sink.NewPaced(out, sink.PacedConfig{
			Acceleration:       cfg.Streaming.TimeAccelerationFactor,
			MaxDelay:           cfg.Streaming.MaxEmitDelay,
			MaxEventsPerSecond: cfg.Streaming.MaxEventsPerSecond,
		})
		if err != nil {
			_ = out.Close()
			return nil, nil, err
		}
		out = paced
		logging.Info().
			Float64("acceleration", cfg.Streaming.TimeAccelerationFactor).
			Msg("Streaming events in accelerated real time")
	}

	return out, collector, nil
}
