// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package callgraph

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/jsnav/services/jsnav/ast"
)

// AnalyzeLegacy builds the unmangled graph around a plain focus name.
//
// Description:
//
//	The walk is the same as Analyze, but nothing is mangled, names are
//	rendered as written, and member calls such as `o.f()` and `o["f"]()`
//	are eligible for edges. Same-named definitions are never told apart.
func (b *Builder) AnalyzeLegacy(ctx context.Context, src []byte, focusName string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Builder.AnalyzeLegacy")
	defer span.End()
	span.SetAttributes(attribute.String("focus", focusName))

	tree, err := b.parser.Parse(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return &Result{Focus: focusName}, fmt.Errorf("callgraph: %w", err)
	}

	res := GraphTreeLegacy(tree, focusName)
	span.SetAttributes(attribute.Int("edges", len(res.Edges)))
	return res, nil
}

// BuildLegacy is the legacy counterpart of Build.
func (b *Builder) BuildLegacy(ctx context.Context, src []byte, focusName string) string {
	res, err := b.AnalyzeLegacy(ctx, src, focusName)
	if err != nil {
		b.logger.Debug("failed to parse script for legacy call graph",
			slog.String("focus", focusName),
			slog.String("error", err.Error()),
		)
	}
	return res.Output
}

// BuildLegacy parses src with default options and returns the legacy edge
// fragment.
func BuildLegacy(ctx context.Context, src []byte, focusName string) string {
	return NewBuilder().BuildLegacy(ctx, src, focusName)
}

// GraphTreeLegacy builds the legacy Result for a parsed tree.
func GraphTreeLegacy(tree *ast.Tree, focusName string) *Result {
	return walkGraph(tree, policy{
		focus:       focusName,
		memberCalls: true,
	})
}
