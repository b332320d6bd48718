// Auditrail - Activity Audit Logging Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/auditrail

// Package metrics holds the Prometheus instrumentation for Auditrail:
// alert dispatch, sink delivery, store operations, archival and the HTTP API.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Dispatch Metrics
	AlertsTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_alerts_triggered_total",
			Help: "Total number of alert triggers by outcome",
		},
		[]string{"outcome"}, // "dispatched", "disabled", "unknown"
	)

	SinkInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_sink_invocations_total",
			Help: "Total number of logger sink invocations",
		},
		[]string{"sink", "result"}, // result: "success", "error", "panic"
	)

	SinkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditrail_sink_duration_seconds",
			Help:    "Duration of logger sink invocations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"sink"},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditrail_store_operation_duration_seconds",
			Help:    "Duration of occurrence store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_store_operation_errors_total",
			Help: "Total number of failed occurrence store operations",
		},
		[]string{"store", "operation", "error_type"},
	)

	// Archive Metrics
	ArchiveBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_archive_batches_total",
			Help: "Total number of archive or prune batches by outcome",
		},
		[]string{"mode", "outcome"}, // outcome: "success", "error", "partial", "skipped"
	)

	ArchiveOccurrences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_archive_occurrences_total",
			Help: "Total number of occurrences moved to the archive or pruned",
		},
		[]string{"mode"},
	)

	ArchiveRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditrail_archive_run_duration_seconds",
			Help:    "Duration of a complete archive or prune run in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		},
		[]string{"mode"},
	)

	ArchiveLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auditrail_archive_last_success_timestamp",
			Help: "Unix timestamp of the last successful archive or prune run",
		},
		[]string{"mode"},
	)

	SchemaHeals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_schema_heals_total",
			Help: "Total number of destination tables created by the self-healing path",
		},
		[]string{"table", "result"}, // result: "success", "failure"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "auditrail_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditrail_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "auditrail_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordSink records one sink invocation.
func RecordSink(sink, result string, duration time.Duration) {
	SinkInvocations.WithLabelValues(sink, result).Inc()
	SinkDuration.WithLabelValues(sink).Observe(duration.Seconds())
}

// RecordStoreOperation records an occurrence store operation.
func RecordStoreOperation(store, operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(store, operation).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(store, operation, ErrorType(err)).Inc()
	}
}

// RecordArchiveBatch records one archive or prune batch.
func RecordArchiveBatch(mode, outcome string, migrated int) {
	ArchiveBatches.WithLabelValues(mode, outcome).Inc()
	if migrated > 0 {
		ArchiveOccurrences.WithLabelValues(mode).Add(float64(migrated))
	}
}

// RecordArchiveRun records a complete run.
func RecordArchiveRun(mode string, duration time.Duration, err error) {
	ArchiveRunDuration.WithLabelValues(mode).Observe(duration.Seconds())
	if err == nil {
		ArchiveLastSuccess.WithLabelValues(mode).Set(float64(time.Now().Unix()))
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ErrorType buckets an error into a low-cardinality label value.
func ErrorType(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "does not exist"), strings.Contains(msg, "no such table"):
		return "schema_missing"
	case strings.Contains(msg, "store unavailable"), strings.Contains(msg, "connection"):
		return "unavailable"
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "context canceled"):
		return "canceled"
	default:
		return "other"
	}
}
