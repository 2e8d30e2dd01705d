// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsnav/services/jsnav"
	"github.com/AleutianAI/jsnav/services/jsnav/config"
	"github.com/AleutianAI/jsnav/services/jsnav/telemetry"
)

// shutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

// defaultEnvFile is loaded when present; a missing one is not an error.
const defaultEnvFile = ".env"

type serveOptions struct {
	configPath string
	envFile    string
	port       int
	debug      bool

	// envFileExplicit makes a missing env file an error.
	envFileExplicit bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the jsnav HTTP API",
		Long: `Run the HTTP API under /v1/jsnav with Prometheus metrics on /metrics.

Configuration comes from the embedded defaults, then --config, then JSNAV_*
environment variables (optionally seeded from --env-file), then --port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.envFileExplicit = cmd.Flags().Changed("env-file")
			cfg, err := loadServeConfig(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, opts.debug, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file with JSNAV_* variables")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Listen port (overrides listen_addr)")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable gin debug mode and request logging")
	return cmd
}

// loadServeConfig layers defaults, file, environment and flags. Variables
// already in the process environment win over the env file.
func loadServeConfig(ctx context.Context, opts *serveOptions) (*config.ServiceConfig, error) {
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			if opts.envFileExplicit {
				return nil, fmt.Errorf("loading env file: %w", err)
			}
			slog.Debug("env file not loaded", slog.String("path", opts.envFile), slog.String("error", err.Error()))
		}
	}

	var (
		cfg *config.ServiceConfig
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(ctx, opts.configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if opts.port != 0 {
		cfg.ListenAddr = fmt.Sprintf(":%d", opts.port)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// serve runs the HTTP server until ctx is cancelled or a termination signal
// arrives, then drains in-flight requests.
func serve(ctx context.Context, cfg *config.ServiceConfig, debug bool, telemetryOut io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Setup(ctx, cfg.Telemetry, telemetryOut)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	svc, err := jsnav.NewService(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           jsnav.NewRouter(svc, debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting jsnav server",
			slog.String("address", cfg.ListenAddr),
			slog.String("version", jsnav.Version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down jsnav server")
	svc.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
