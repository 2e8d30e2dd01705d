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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/jsnav/services/jsnav"
	"github.com/AleutianAI/jsnav/services/jsnav/ast"
	"github.com/AleutianAI/jsnav/services/jsnav/config"
)

// noMatch is printed by locate when no function encloses the position.
const noMatch = "(none)"

func newLocateCmd() *cobra.Command {
	var line, col int

	cmd := &cobra.Command{
		Use:   "locate FILE",
		Short: "Print the name of the function enclosing a position",
		Long: `Print the name of the innermost function or class member whose source
range contains --line (1-based) and --col (0-based, in UTF-16 code units).

Prints "(none)" when no function contains the position. Exits non-zero when
the file has a syntax error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, script, err := loadScript(args[0])
			if err != nil {
				return err
			}
			resp, err := svc.Locate(cmd.Context(), script, line, col)
			if err != nil {
				var synErr *ast.SyntaxError
				if errors.As(err, &synErr) {
					return fmt.Errorf("%s: %w", args[0], synErr)
				}
				return fmt.Errorf("locating in %s: %w", args[0], err)
			}
			if !resp.Found {
				fmt.Fprintln(cmd.OutOrStdout(), noMatch)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Name)
			return nil
		},
	}
	cmd.Flags().IntVar(&line, "line", 0, "1-based line number")
	cmd.Flags().IntVar(&col, "col", 0, "0-based column in UTF-16 code units")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func newCallGraphCmd() *cobra.Command {
	var (
		focus   string
		line    int
		legacy  bool
		digraph bool
	)

	cmd := &cobra.Command{
		Use:   "callgraph FILE",
		Short: "Print the call edges touching a focus function",
		Long: `Print Graphviz edges "caller" -> "callee"; for calls made by or to
--focus. --line selects which definition of a reused name is the focus.

A file that does not parse yields empty output, not an error. --legacy uses
the older builder that admits member calls and ignores --line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, script, err := loadScript(args[0])
			if err != nil {
				return err
			}
			req := jsnav.CallGraphRequest{
				Script:    string(script),
				Focus:     focus,
				FocusLine: line,
				Digraph:   digraph,
			}
			if cmd.Flags().Changed("legacy") {
				req.Legacy = &legacy
			}
			resp := svc.CallGraph(cmd.Context(), req)
			fmt.Fprint(cmd.OutOrStdout(), resp.Dot)
			return nil
		},
	}
	cmd.Flags().StringVar(&focus, "focus", "", "Name of the focus function")
	cmd.Flags().IntVar(&line, "line", 0, "1-based line inside the focus definition")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy builder")
	cmd.Flags().BoolVar(&digraph, "digraph", false, "Wrap the edges in a digraph document")
	_ = cmd.MarkFlagRequired("focus")
	return cmd
}

// loadScript reads path and builds a Service from the default configuration
// plus JSNAV_* environment overrides.
func loadScript(path string) (*jsnav.Service, []byte, error) {
	cfg, err := config.Default()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, nil, err
	}
	svc, err := jsnav.NewService(cfg)
	if err != nil {
		return nil, nil, err
	}
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading script: %w", err)
	}
	return svc, script, nil
}
