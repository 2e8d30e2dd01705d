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
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsnav/services/jsnav"
)

// renderSeparator precedes every re-render after the first.
const renderSeparator = "---"

func newWatchCmd() *cobra.Command {
	var (
		focus   string
		line    int
		digraph bool
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-render the call graph of FILE whenever it changes",
		Long: `Print the call graph for --focus, then print it again after every write
to FILE until interrupted. Editors that save by rename are handled by watching
the containing directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			svc, _, err := loadScript(path)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			renders := 0
			render := func() error {
				script, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading script: %w", err)
				}
				resp := svc.CallGraph(ctx, jsnav.CallGraphRequest{
					Script:    string(script),
					Focus:     focus,
					FocusLine: line,
					Digraph:   digraph,
				})
				if renders > 0 {
					fmt.Fprintln(out, renderSeparator)
				}
				renders++
				_, err = io.WriteString(out, resp.Dot)
				return err
			}
			return watchFile(ctx, path, render)
		},
	}
	cmd.Flags().StringVar(&focus, "focus", "", "Name of the focus function")
	cmd.Flags().IntVar(&line, "line", 0, "1-based line inside the focus definition")
	cmd.Flags().BoolVar(&digraph, "digraph", false, "Wrap the edges in a digraph document")
	_ = cmd.MarkFlagRequired("focus")
	return cmd
}

// watchFile calls render once, then again after every write or create event
// for path, until ctx is done. Render failures are logged, not fatal, so a
// file that is briefly missing mid-save does not stop the watch.
func watchFile(ctx context.Context, path string, render func() error) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	if err := render(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			slog.Debug("script changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			if err := render(); err != nil {
				slog.Warn("re-render failed", slog.String("error", err.Error()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
