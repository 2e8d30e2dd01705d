// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the jsnav service configuration.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Default Configuration
// =============================================================================

//go:embed defaults.yaml
var defaultConfigYAML []byte

// MaxYAMLFileSize bounds configuration documents (1MB).
const MaxYAMLFileSize = 1 << 20

// Telemetry exporter names.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvListenAddr     = "JSNAV_LISTEN_ADDR"
	EnvMaxSourceBytes = "JSNAV_MAX_SOURCE_BYTES"
	EnvLegacyDefault  = "JSNAV_LEGACY_DEFAULT"
	EnvOTLPEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

var tracer = otel.Tracer("jsnav.config")

// =============================================================================
// Configuration Types
// =============================================================================

// ServiceConfig configures the jsnav HTTP service and CLI.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type ServiceConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// MaxSourceBytes is the largest script accepted for analysis.
	MaxSourceBytes int `yaml:"max_source_bytes" validate:"gt=0,lte=104857600"`

	// MaxBatchSize is the largest number of items in one batch request.
	MaxBatchSize int `yaml:"max_batch_size" validate:"gt=0,lte=1024"`

	// MaxBatchConcurrency bounds the analyses a batch runs at once.
	MaxBatchConcurrency int `yaml:"max_batch_concurrency" validate:"gt=0,lte=256"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// LegacyDefault selects the legacy call graph builder when a request
	// does not choose one.
	LegacyDefault bool `yaml:"legacy_default"`
}

// RateLimitConfig configures the per-client token bucket.
// A zero RequestsPerSecond disables rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=0"`
}

// Enabled reports whether requests are rate limited.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerSecond > 0
}

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name" validate:"required"`
	Exporter     string `yaml:"exporter" validate:"oneof=stdout otlp none"`
	OTLPEndpoint string `yaml:"otlp_endpoint" validate:"required_if=Exporter otlp"`
}

// =============================================================================
// Loading
// =============================================================================

// Load parses a YAML document over the embedded defaults and validates it.
//
// Description:
//
//	Fields absent from data keep their default values. An empty document
//	yields the defaults.
//
// Inputs:
//
//	ctx  - Context for tracing.
//	data - Raw YAML bytes. May be empty.
//
// Outputs:
//
//	*ServiceConfig - The validated configuration.
//	error          - Non-nil if parsing or validation fails.
func Load(ctx context.Context, data []byte) (*ServiceConfig, error) {
	_, span := tracer.Start(ctx, "config.Load")
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("Load: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	var cfg ServiceConfig
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("Load: parsing embedded defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("Load: parsing YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	span.SetAttributes(
		attribute.String("listen_addr", cfg.ListenAddr),
		attribute.Int("max_source_bytes", cfg.MaxSourceBytes),
		attribute.String("exporter", cfg.Telemetry.Exporter),
	)
	return &cfg, nil
}

// LoadFile reads and loads a configuration file.
func LoadFile(ctx context.Context, path string) (*ServiceConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %w", err)
	}
	if info.Size() > MaxYAMLFileSize {
		return nil, fmt.Errorf("LoadFile: %s exceeds maximum size (%d > %d)", path, info.Size(), MaxYAMLFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: %w", err)
	}

	cfg, err := Load(ctx, data)
	if err != nil {
		return nil, err
	}

	slog.Info("jsnav config loaded",
		slog.String("path", path),
		slog.String("listen_addr", cfg.ListenAddr),
		slog.Bool("telemetry", cfg.Telemetry.Enabled),
	)
	return cfg, nil
}

// Default returns the embedded default configuration.
func Default() (*ServiceConfig, error) {
	return Load(context.Background(), nil)
}

// ApplyEnv overrides fields from environment variables and revalidates.
//
// Description:
//
//	lookup is usually os.LookupEnv. Unset variables leave fields alone;
//	malformed numeric or boolean values are errors.
func (c *ServiceConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvMaxSourceBytes); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ApplyEnv: %s: %w", EnvMaxSourceBytes, err)
		}
		c.MaxSourceBytes = n
	}
	if v, ok := lookup(EnvLegacyDefault); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ApplyEnv: %s: %w", EnvLegacyDefault, err)
		}
		c.LegacyDefault = b
	}
	if v, ok := lookup(EnvOTLPEndpoint); ok && v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
	return c.Validate()
}

// =============================================================================
// Validation
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks field constraints and cross-field rules.
func (c *ServiceConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("validation: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("validation: %w", err)
	}

	if c.RateLimit.Enabled() && c.RateLimit.Burst < 1 {
		return fmt.Errorf("validation: rate_limit.burst must be at least 1 when rate limiting is enabled")
	}
	if c.MaxBatchConcurrency > c.MaxBatchSize {
		return fmt.Errorf("validation: max_batch_concurrency (%d) exceeds max_batch_size (%d)",
			c.MaxBatchConcurrency, c.MaxBatchSize)
	}
	return nil
}
