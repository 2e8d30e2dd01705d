// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command jsnav answers two questions about a JavaScript file: which function
// encloses a position, and which calls touch a given function.
//
// Usage:
//
//	jsnav locate app.js --line 12 --col 4
//	jsnav callgraph app.js --focus render --line 30
//	jsnav callgraph app.js --focus render --legacy --digraph | dot -Tsvg
//	jsnav watch app.js --focus render --line 30
//	jsnav serve --config jsnav.yaml --port 8080
//
// Example requests against serve:
//
//	curl http://localhost:8080/v1/jsnav/health
//
//	curl -X POST http://localhost:8080/v1/jsnav/callgraph \
//	  -H "Content-Type: application/json" \
//	  -d '{"script": "function a(){ b(); }", "focus": "a", "focus_line": 1}'
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Log format flag values.
const (
	logFormatAuto = "auto"
	logFormatText = "text"
	logFormatJSON = "json"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "jsnav",
		Short: "Enclosing-function lookup and call graphs for JavaScript",
		Long: `jsnav parses a JavaScript file and reports either the function that
encloses a line and column, or the Graphviz edges of calls made by and to a
focus function.

Call graph output is a DOT fragment of "caller" -> "callee"; lines. Pass
--digraph to wrap it in a complete document.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(stderr, opts.logLevel, opts.logFormat, isTerminal(stderr))
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", logFormatAuto, "Log format: auto|text|json")

	rootCmd.AddCommand(
		newLocateCmd(),
		newCallGraphCmd(),
		newWatchCmd(),
		newServeCmd(),
	)
	return rootCmd
}

// newLogger builds the slog logger for the CLI. "auto" picks text on a
// terminal and JSON otherwise.
func newLogger(w io.Writer, level, format string, tty bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case logFormatAuto:
		if tty {
			return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
		}
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case logFormatText:
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case logFormatJSON:
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q: want auto, text or json", format)
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
