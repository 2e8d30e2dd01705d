// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package jsnav exposes enclosing-function lookup and focused call graphs
// for JavaScript over a library facade and a gin HTTP API.
package jsnav

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/jsnav/services/jsnav/ast"
	"github.com/AleutianAI/jsnav/services/jsnav/callgraph"
	"github.com/AleutianAI/jsnav/services/jsnav/config"
	"github.com/AleutianAI/jsnav/services/jsnav/locate"
	"github.com/AleutianAI/jsnav/services/jsnav/telemetry"
)

// Version is reported by the health endpoints.
const Version = "0.3.0"

var tracer = otel.Tracer("jsnav.service")

// Service runs analyses with shared configuration.
//
// Description:
//
//	Service holds no per-script state. Every analysis parses its own tree,
//	so one Service serves concurrent requests without locking.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	cfg     *config.ServiceConfig
	locator *locate.Locator
	builder *callgraph.Builder
	ready   atomic.Bool
}

// NewService creates a Service. A nil cfg uses the embedded defaults.
func NewService(cfg *config.ServiceConfig) (*Service, error) {
	if cfg == nil {
		var err error
		if cfg, err = config.Default(); err != nil {
			return nil, err
		}
	}
	parserOpts := ast.WithJSMaxFileSize(cfg.MaxSourceBytes)
	s := &Service{
		cfg:     cfg,
		locator: locate.NewLocator(parserOpts),
		builder: callgraph.NewBuilder(callgraph.WithParserOptions(parserOpts)),
	}
	s.ready.Store(true)
	return s, nil
}

// Config returns the service configuration.
func (s *Service) Config() *config.ServiceConfig {
	return s.cfg
}

// Ready reports whether the service accepts analyses.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// SetReady flips readiness, e.g. while draining on shutdown.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Locate finds the function or member enclosing (line, column).
//
// Outputs:
//
//	LocateResponse - Found is false when nothing contains the position.
//	error          - Parser errors: ast.ErrSyntax, ast.ErrFileTooLarge,
//	                 ast.ErrInvalidContent, or a context error.
func (s *Service) Locate(ctx context.Context, script []byte, line, column int) (LocateResponse, error) {
	start := time.Now()
	m, found, err := s.locator.LocateMatch(ctx, script, line, column)
	if err != nil {
		telemetry.RecordAnalysis(ctx, telemetry.OperationLocate, outcomeForError(err), time.Since(start))
		return LocateResponse{}, err
	}

	if !found {
		telemetry.RecordAnalysis(ctx, telemetry.OperationLocate, telemetry.OutcomeNotFound, time.Since(start))
		return LocateResponse{}, nil
	}
	telemetry.RecordAnalysis(ctx, telemetry.OperationLocate, telemetry.OutcomeFound, time.Since(start))
	span := m.Span
	return LocateResponse{
		Name:  m.Name,
		Found: true,
		Kind:  m.Kind.String(),
		Span:  &span,
	}, nil
}

// CallGraph builds the call graph around req.Focus.
//
// Description:
//
//	Parse failures are logged at debug level and produce an empty graph,
//	never an error. When req.Legacy is nil the configured default builder
//	is used.
func (s *Service) CallGraph(ctx context.Context, req CallGraphRequest) CallGraphResponse {
	start := time.Now()
	legacy := s.cfg.LegacyDefault
	if req.Legacy != nil {
		legacy = *req.Legacy
	}

	var (
		res *callgraph.Result
		err error
	)
	if legacy {
		res, err = s.builder.AnalyzeLegacy(ctx, []byte(req.Script), req.Focus)
	} else {
		res, err = s.builder.Analyze(ctx, []byte(req.Script), req.Focus, req.FocusLine)
	}

	outcome := telemetry.OutcomeOK
	switch {
	case err != nil:
		outcome = outcomeForError(err)
		slog.Debug("failed to parse script for call graph",
			slog.String("focus", req.Focus),
			slog.Bool("legacy", legacy),
			slog.String("error", err.Error()),
		)
	case len(res.Edges) == 0:
		outcome = telemetry.OutcomeEmpty
	}
	telemetry.RecordAnalysis(ctx, telemetry.OperationCallGraph, outcome, time.Since(start))
	telemetry.RecordEdges(len(res.Edges))

	dot := res.Output
	if req.Digraph {
		dot = callgraph.WrapDigraph(dot)
	}
	edges := res.Edges
	if edges == nil {
		edges = []callgraph.Edge{}
	}
	return CallGraphResponse{Dot: dot, Edges: edges, Legacy: legacy}
}

// Batch runs independent analyses concurrently, bounded by
// max_batch_concurrency. Results are returned in request order; per-item
// failures are reported in the item, not as an error.
func (s *Service) Batch(ctx context.Context, items []BatchItem) ([]BatchItemResult, error) {
	ctx, span := tracer.Start(ctx, "Service.Batch")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(items)))
	start := time.Now()

	results := make([]BatchItemResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxBatchConcurrency)

	for i := range items {
		item := items[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.runBatchItem(gctx, i, item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		telemetry.RecordAnalysis(ctx, telemetry.OperationBatch, telemetry.OutcomeError, time.Since(start))
		return nil, err
	}
	telemetry.RecordAnalysis(ctx, telemetry.OperationBatch, telemetry.OutcomeOK, time.Since(start))
	return results, nil
}

func (s *Service) runBatchItem(ctx context.Context, index int, item BatchItem) BatchItemResult {
	result := BatchItemResult{Index: index, Operation: item.Operation}
	switch item.Operation {
	case OpLocate:
		resp, err := s.Locate(ctx, []byte(item.Script), item.Line, item.Column)
		if err != nil {
			_, errResp := errorResponseFor(err)
			result.Error = &errResp
			return result
		}
		result.Locate = &resp

	case OpCallGraph:
		resp := s.CallGraph(ctx, CallGraphRequest{
			Script:    item.Script,
			Focus:     item.Focus,
			FocusLine: item.FocusLine,
			Legacy:    item.Legacy,
			Digraph:   item.Digraph,
		})
		result.CallGraph = &resp

	default:
		result.Error = &ErrorResponse{Error: "unknown operation " + item.Operation, Code: CodeInvalidRequest}
	}
	return result
}

// outcomeForError maps an analysis error to its metrics outcome label.
func outcomeForError(err error) string {
	if errors.Is(err, ast.ErrSyntax) {
		return telemetry.OutcomeSyntaxError
	}
	return telemetry.OutcomeError
}

// errorResponseFor maps an analysis error to an HTTP status and body.
func errorResponseFor(err error) (int, ErrorResponse) {
	var synErr *ast.SyntaxError
	switch {
	case errors.As(err, &synErr):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:    synErr.Error(),
			Code:     CodeSyntaxError,
			Position: &ErrorPosition{Line: synErr.Line, Column: synErr.Col},
		}
	case errors.Is(err, ast.ErrSyntax):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: CodeSyntaxError}
	case errors.Is(err, ast.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: CodeSourceTooLarge}
	case errors.Is(err, ast.ErrInvalidContent):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidContent}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: CodeNotReady}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: CodeInternal}
	}
}
