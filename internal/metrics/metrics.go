// Badgesim - Synthetic Badge Access Event Simulator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/badgesim

// Package metrics holds the Prometheus instrumentation of badgesim:
// generation throughput, sink emission, circuit breaker state and
// detector findings. Metrics are registered on the default registry and
// exposed by the optional /metrics endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation Metrics
	EventsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_events_generated_total",
			Help: "Total number of badge events generated",
		},
		[]string{"outcome"}, // "granted", "denied"
	)

	UserDaysGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_user_days_generated_total",
			Help: "Total number of simulated user-days",
		},
		[]string{"variant"}, // "normal", "curious", "cloned"
	)

	AnomaliesInjected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_anomalies_injected_total",
			Help: "Total number of injected anomalies",
		},
		[]string{"kind"}, // "clone_day", "curious_attempt"
	)

	DayGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badgesim_day_generation_duration_seconds",
			Help:    "Wall time to generate and merge one simulated day",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms .. ~80s
		},
	)

	SimulatedDaysCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "badgesim_simulated_days_completed_total",
			Help: "Total number of simulated days fully emitted",
		},
	)

	// Sink Metrics
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_events_emitted_total",
			Help: "Total number of events written by a sink",
		},
		[]string{"sink"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_sink_errors_total",
			Help: "Total number of sink write failures",
		},
		[]string{"sink"},
	)

	PacingDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "badgesim_pacing_delay_seconds",
			Help:    "Wall-clock delay inserted between streamed events",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9), // 1ms .. ~65s
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "badgesim_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Detection Metrics
	DetectorFindings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_detector_findings_total",
			Help: "Total number of findings reported by a detector",
		},
		[]string{"detector"},
	)

	DetectorSkippedEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_detector_skipped_events_total",
			Help: "Events skipped by a detector because they reference unknown entities",
		},
		[]string{"detector"},
	)

	DetectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badgesim_detector_duration_seconds",
			Help:    "Duration of one detector pass over the event list",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"detector"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgesim_api_requests_total",
			Help: "Total number of requests served by the status endpoint",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badgesim_api_request_duration_seconds",
			Help:    "Status endpoint request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "badgesim_api_active_requests",
			Help: "Requests currently being served by the status endpoint",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "badgesim_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordEvent records one generated event.
func RecordEvent(success bool) {
	if success {
		EventsGenerated.WithLabelValues("granted").Inc()
		return
	}
	EventsGenerated.WithLabelValues("denied").Inc()
}

// RecordUserDay records one generated user-day for a behavior variant.
func RecordUserDay(variant string) {
	UserDaysGenerated.WithLabelValues(variant).Inc()
}

// RecordAnomaly records injected anomalies of one kind.
func RecordAnomaly(kind string, n int) {
	if n <= 0 {
		return
	}
	AnomaliesInjected.WithLabelValues(kind).Add(float64(n))
}

// RecordDayGenerated records the duration of one simulated day.
func RecordDayGenerated(duration time.Duration) {
	DayGenerationDuration.Observe(duration.Seconds())
	SimulatedDaysCompleted.Inc()
}

// RecordSinkWrite records the outcome of one sink write.
func RecordSinkWrite(sink string, err error) {
	if err != nil {
		SinkErrors.WithLabelValues(sink).Inc()
		return
	}
	EventsEmitted.WithLabelValues(sink).Inc()
}

// RecordPacingDelay records a delay inserted by the paced sink.
func RecordPacingDelay(d time.Duration) {
	PacingDelay.Observe(d.Seconds())
}

// RecordDetection records the result of one detector pass.
func RecordDetection(detector string, findings, skipped int, duration time.Duration) {
	DetectorFindings.WithLabelValues(detector).Add(float64(findings))
	DetectorSkippedEvents.WithLabelValues(detector).Add(float64(skipped))
	DetectorDuration.WithLabelValues(detector).Observe(duration.Seconds())
}

// RecordAPIRequest records one served HTTP request. route is the matched
// route pattern, not the raw path, to keep label cardinality bounded.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// SetAppInfo publishes the build information gauge.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}
