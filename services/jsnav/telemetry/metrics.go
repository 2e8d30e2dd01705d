// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operation labels.
const (
	OperationLocate    = "locate"
	OperationCallGraph = "callgraph"
	OperationBatch     = "batch"
)

// Outcome labels.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeSyntaxError = "syntax_error"
	OutcomeError       = "error"
)

// Package-level Prometheus metrics for analysis operations.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// analysisRequestsTotal counts analyses by operation and outcome.
	//
	// Labels:
	//   - operation: "locate", "callgraph", "batch"
	//   - outcome: "found", "not_found", "ok", "empty", "syntax_error", "error"
	analysisRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsnav",
			Subsystem: "analysis",
			Name:      "requests_total",
			Help:      "Total analyses by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// analysisDurationSeconds measures analysis latency including parsing.
	analysisDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jsnav",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Duration of analyses in seconds, including parsing.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	// callgraphEdges records the number of edges per call graph.
	callgraphEdges = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jsnav",
			Name:      "callgraph_edges",
			Help:      "Number of edges rendered per call graph.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
	)
)

// OTel instruments mirror the counters for the stdout metric exporter. They
// bind to whichever meter provider is installed when they record.
var (
	meter = otel.Meter("jsnav")

	otelAnalyses, _ = meter.Int64Counter("jsnav.analyses",
		metric.WithDescription("Total analyses by operation and outcome."))
	otelDuration, _ = meter.Float64Histogram("jsnav.analysis.duration",
		metric.WithDescription("Duration of analyses."),
		metric.WithUnit("s"))
)

// RecordAnalysis records one finished analysis.
//
// Inputs:
//   - operation: One of the Operation constants.
//   - outcome: One of the Outcome constants.
//   - d: Wall-clock duration of the analysis.
func RecordAnalysis(ctx context.Context, operation, outcome string, d time.Duration) {
	analysisRequestsTotal.WithLabelValues(operation, outcome).Inc()
	analysisDurationSeconds.WithLabelValues(operation).Observe(d.Seconds())

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	if otelAnalyses != nil {
		otelAnalyses.Add(ctx, 1, attrs)
	}
	if otelDuration != nil {
		otelDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// RecordEdges records the edge count of one call graph.
func RecordEdges(n int) {
	callgraphEdges.Observe(float64(n))
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
