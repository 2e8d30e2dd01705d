// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// These are unit tests that run the command tree in-process.
// Run with: go test -v ./cmd/jsnav/... -run TestCLIUnit

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// runCLI executes the command tree with args and returns stdout, stderr and
// the Execute error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.js")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return path
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func TestCLIUnit_Root_Help(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantContains []string
	}{
		{"help flag long", []string{"--help"}, []string{"jsnav", "Usage"}},
		{"help flag short", []string{"-h"}, []string{"jsnav"}},
		{"help shows locate", []string{"--help"}, []string{"locate"}},
		{"help shows callgraph", []string{"--help"}, []string{"callgraph"}},
		{"help shows watch", []string{"--help"}, []string{"watch"}},
		{"help shows serve", []string{"--help"}, []string{"serve"}},
		{"callgraph help shows legacy", []string{"callgraph", "--help"}, []string{"--legacy", "--digraph"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, tt.args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(stdout, want) {
					t.Errorf("output missing %q:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestCLIUnit_Root_InvalidLogFlags(t *testing.T) {
	path := writeScript(t, "function a(){}")
	tests := []struct {
		name string
		args []string
	}{
		{"bad level", []string{"--log-level", "loud", "locate", path, "--line", "1"}},
		{"bad format", []string{"--log-format", "xml", "locate", path, "--line", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error for invalid log flag")
			}
		})
	}
}

func TestCLIUnit_NewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger, err := newLogger(&buf, "debug", logFormatAuto, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("probe", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("auto format off a terminal should be JSON, got %q", buf.String())
	}

	buf.Reset()
	logger, err = newLogger(&buf, "info", logFormatAuto, true)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("probe")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record emitted at info level")
	}
	if !strings.Contains(out, "msg=probe") {
		t.Errorf("auto format on a terminal should be text, got %q", out)
	}
}

// =============================================================================
// LOCATE
// =============================================================================

func TestCLIUnit_Locate(t *testing.T) {
	path := writeScript(t, "function outer() {\n  function inner() {\n    x();\n  }\n}\nvar y = 1;\n")

	tests := []struct {
		name string
		line string
		col  string
		want string
	}{
		{"innermost function", "3", "4", "inner"},
		{"outer function", "1", "2", "outer"},
		{"outside functions", "6", "2", noMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, "locate", path, "--line", tt.line, "--col", tt.col)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.TrimSpace(stdout); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCLIUnit_Locate_Errors(t *testing.T) {
	broken := writeScript(t, "function a(){")

	tests := []struct {
		name string
		args []string
	}{
		{"syntax error", []string{"locate", broken, "--line", "1"}},
		{"missing file", []string{"locate", filepath.Join(t.TempDir(), "nope.js"), "--line", "1"}},
		{"missing line flag", []string{"locate", broken}},
		{"no file argument", []string{"locate", "--line", "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// =============================================================================
// CALLGRAPH
// =============================================================================

func TestCLIUnit_CallGraph(t *testing.T) {
	path := writeScript(t, "function a(){ b(); } function b(){ c(); obj.d(); }")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "focus with line",
			args: []string{"--focus", "b", "--line", "1"},
			want: "\"a\" -> \"b\";\n\"b\" -> \"c\";\n",
		},
		{
			name: "digraph",
			args: []string{"--focus", "a", "--line", "1", "--digraph"},
			want: "digraph {\n  \"a\" -> \"b\";\n}\n",
		},
		{
			name: "legacy admits member calls",
			args: []string{"--focus", "b", "--legacy"},
			want: "\"a\" -> \"b\";\n\"b\" -> \"c\";\n\"b\" -> \"d\";\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"callgraph", path}, tt.args...)
			stdout, _, err := runCLI(t, args...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stdout != tt.want {
				t.Errorf("got %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestCLIUnit_CallGraph_MalformedIsEmpty(t *testing.T) {
	path := writeScript(t, "function a(){")
	stdout, _, err := runCLI(t, "callgraph", path, "--focus", "a", "--line", "1")
	if err != nil {
		t.Fatalf("malformed script should not fail: %v", err)
	}
	if stdout != "" {
		t.Errorf("expected empty output, got %q", stdout)
	}
}

func TestCLIUnit_CallGraph_RequiresFocus(t *testing.T) {
	path := writeScript(t, "f();")
	if _, _, err := runCLI(t, "callgraph", path); err == nil {
		t.Error("expected error without --focus")
	}
}

// =============================================================================
// SERVE
// =============================================================================

func TestCLIUnit_LoadServeConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "jsnav.yaml")
	if err := os.WriteFile(cfgPath, []byte("max_batch_size: 8\nmax_batch_concurrency: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadServeConfig(context.Background(), &serveOptions{configPath: cfgPath, port: 9191})
	if err != nil {
		t.Fatalf("loadServeConfig: %v", err)
	}
	if cfg.ListenAddr != ":9191" {
		t.Errorf("ListenAddr = %q, want :9191", cfg.ListenAddr)
	}
	if cfg.MaxBatchSize != 8 {
		t.Errorf("MaxBatchSize = %d, want 8", cfg.MaxBatchSize)
	}

	if _, err := loadServeConfig(context.Background(), &serveOptions{configPath: filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestCLIUnit_LoadServeConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "jsnav.env")
	if err := os.WriteFile(envPath, []byte("JSNAV_MAX_SOURCE_BYTES=2048\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("JSNAV_MAX_SOURCE_BYTES") })

	cfg, err := loadServeConfig(context.Background(), &serveOptions{envFile: envPath, envFileExplicit: true})
	if err != nil {
		t.Fatalf("loadServeConfig: %v", err)
	}
	if cfg.MaxSourceBytes != 2048 {
		t.Errorf("MaxSourceBytes = %d, want 2048", cfg.MaxSourceBytes)
	}

	missing := filepath.Join(dir, "absent.env")
	if _, err := loadServeConfig(context.Background(), &serveOptions{envFile: missing, envFileExplicit: true}); err == nil {
		t.Error("expected error for explicit missing env file")
	}
	if _, err := loadServeConfig(context.Background(), &serveOptions{envFile: missing}); err != nil {
		t.Errorf("implicit missing env file should be ignored: %v", err)
	}
}

// =============================================================================
// WATCH
// =============================================================================

func TestCLIUnit_WatchFile_RerendersOnWrite(t *testing.T) {
	path := writeScript(t, "function a(){ b(); }")

	var renders atomic.Int32
	rendered := make(chan struct{}, 8)
	render := func() error {
		renders.Add(1)
		select {
		case rendered <- struct{}{}:
		default:
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watchFile(ctx, path, render) }()

	select {
	case <-rendered:
	case <-time.After(5 * time.Second):
		t.Fatal("initial render did not happen")
	}

	if err := os.WriteFile(path, []byte("function a(){ c(); }"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-rendered:
	case <-time.After(5 * time.Second):
		t.Fatal("write did not trigger a re-render")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchFile returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchFile did not stop after cancel")
	}
	if renders.Load() < 2 {
		t.Errorf("renders = %d, want at least 2", renders.Load())
	}
}

func TestCLIUnit_WatchFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", "app.js")
	err := watchFile(context.Background(), path, func() error { return nil })
	if err == nil {
		t.Error("expected error watching a missing directory")
	}
}
