// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry export and Prometheus metrics for
// jsnav.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/AleutianAI/jsnav/services/jsnav/config"
)

// exportTimeout bounds OTLP export calls.
const exportTimeout = 5 * time.Second

// Provider owns the SDK providers installed by Setup.
//
// Thread Safety: Shutdown is safe to call once from any goroutine.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Setup installs global tracer and meter providers for cfg.
//
// Description:
//
//	The W3C trace context propagator is always installed so incoming
//	traceparent headers are honored. When telemetry is disabled or the
//	exporter is "none", no SDK provider is installed and spans stay no-ops.
//	"stdout" writes spans and metrics to w. "otlp" ships spans over gRPC
//	and exposes OTel metrics on the default Prometheus registry, next to
//	the promauto collectors served at /metrics.
//
// Inputs:
//
//	ctx - Context for exporter construction.
//	cfg - Telemetry configuration.
//	w   - Destination for the stdout exporters. Ignored otherwise.
//
// Outputs:
//
//	*Provider - Call Shutdown to flush. Never nil.
//	error     - Non-nil if an exporter could not be created.
func Setup(ctx context.Context, cfg config.TelemetryConfig, w io.Writer) (*Provider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := &Provider{}
	if !cfg.Enabled || cfg.Exporter == config.ExporterNone {
		slog.Debug("telemetry export disabled")
		return p, nil
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
	)

	var spanExporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case config.ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return p, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		spanExporter = exp

		metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return p, fmt.Errorf("creating stdout metric exporter: %w", err)
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		)
		otel.SetMeterProvider(p.meterProvider)

	case config.ExporterOTLP:
		exp, err := otlptracegrpc.New(ctx, otlpOptions(cfg.OTLPEndpoint)...)
		if err != nil {
			return p, fmt.Errorf("creating OTLP trace exporter: %w", err)
		}
		spanExporter = exp

		reader, err := otelprom.New(otelprom.WithNamespace("jsnav_otel"))
		if err != nil {
			return p, fmt.Errorf("creating prometheus metric reader: %w", err)
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(reader),
		)
		otel.SetMeterProvider(p.meterProvider)

	default:
		return p, fmt.Errorf("unknown telemetry exporter %q", cfg.Exporter)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(p.tracerProvider)

	slog.Info("telemetry initialized",
		slog.String("exporter", cfg.Exporter),
		slog.String("service_name", cfg.ServiceName),
	)
	return p, nil
}

// otlpOptions maps an endpoint to gRPC exporter options. "http://" and bare
// host:port endpoints are insecure; "https://" uses TLS.
func otlpOptions(endpoint string) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithTimeout(exportTimeout)}
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		opts = append(opts, otlptracegrpc.WithEndpoint(strings.TrimPrefix(endpoint, "https://")))
	case strings.HasPrefix(endpoint, "http://"):
		opts = append(opts,
			otlptracegrpc.WithEndpoint(strings.TrimPrefix(endpoint, "http://")),
			otlptracegrpc.WithInsecure(),
		)
	default:
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	}
	return opts
}

// Shutdown flushes and stops the installed providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Exporting reports whether Setup installed an SDK tracer provider.
func (p *Provider) Exporting() bool {
	return p != nil && p.tracerProvider != nil
}
