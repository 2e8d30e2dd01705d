// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package locate finds the function or class member enclosing a source position.
package locate

import (
	"context"
	"fmt"
	"math"

	"github.com/AleutianAI/jsnav/services/jsnav/ast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("jsnav.locate")

// computedKey is the member name rendered for computed class keys.
const computedKey = "(computed)"

// Match is the enclosing function or member found for a position.
type Match struct {
	// Name is the display name: a function name, a binding name,
	// "(anonymous)", or "Class.member".
	Name string

	// Kind is the kind of the node that produced Name.
	Kind ast.Kind

	// Span is the span of that node.
	Span ast.Span
}

// Locator answers "which function contains this position" for whole scripts.
//
// Thread Safety: Safe for concurrent use; every call parses its own tree.
type Locator struct {
	parser *ast.JavaScriptParser
}

// NewLocator creates a Locator that parses with the given parser options.
func NewLocator(opts ...ast.JavaScriptParserOption) *Locator {
	return &Locator{parser: ast.NewJavaScriptParser(opts...)}
}

// Locate parses script and returns the display name of the function or class
// member enclosing (line, col).
//
// Description:
//
//	line is 1-based and col is 0-based. ok is false when nothing contains the
//	position. Parse failures are returned to the caller unchanged; callers
//	that prefer a silent miss must handle ast.ErrSyntax themselves.
//
// Outputs:
//
//	string - The display name. Empty when ok is false.
//	bool   - Whether any function or member contains the position.
//	error  - Parser errors (ast.ErrSyntax, ast.ErrFileTooLarge, ...).
func (l *Locator) Locate(ctx context.Context, script []byte, line, col int) (string, bool, error) {
	m, ok, err := l.LocateMatch(ctx, script, line, col)
	if err != nil || !ok {
		return "", false, err
	}
	return m.Name, true, nil
}

// LocateMatch is Locate returning the full Match.
func (l *Locator) LocateMatch(ctx context.Context, script []byte, line, col int) (Match, bool, error) {
	ctx, span := tracer.Start(ctx, "Locator.Locate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("line", line),
		attribute.Int("col", col),
	)

	tree, err := l.parser.Parse(ctx, script)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Match{}, false, fmt.Errorf("locate: %w", err)
	}

	m, ok := Find(tree, line, col)
	span.SetAttributes(attribute.Bool("found", ok))
	if ok {
		span.SetAttributes(attribute.String("name", m.Name))
	}
	return m, ok, nil
}

// Locate parses script with default options and returns the enclosing name.
func Locate(ctx context.Context, script []byte, line, col int) (string, bool, error) {
	return NewLocator().Locate(ctx, script, line, col)
}

// Find searches an already parsed tree.
//
// Description:
//
//	Function-like nodes compete on (line span, column span), compared
//	lexicographically, so the innermost function wins. Class methods and
//	fields that contain the position replace the current result without any
//	span comparison, in pre-order: a member is visited before its own method
//	expression, and after any function enclosing the class.
func Find(tree *ast.Tree, line, col int) (Match, bool) {
	if tree == nil || tree.Root == nil {
		return Match{}, false
	}

	var (
		result  Match
		found   bool
		minLine = math.MaxInt
		minCol  = math.MaxInt
	)

	ast.Walk(tree.Root, func(n *ast.Node, w *ast.Walker) bool {
		switch n.Kind {
		case ast.KindFunctionDeclaration, ast.KindFunctionExpression,
			ast.KindArrowFunction, ast.KindMethodExpression:
			if !n.Span.Contains(line, col) {
				return true
			}
			lineSpan, colSpan := n.Span.LineSpan(), n.Span.ColSpan()
			if lineSpan < minLine || (lineSpan == minLine && colSpan < minCol) {
				minLine, minCol = lineSpan, colSpan
				result = Match{Name: ast.FunctionName(n, w.Parent(0)), Kind: n.Kind, Span: n.Span}
				found = true
			}

		case ast.KindClassMethod, ast.KindClassField:
			if n.Span.Contains(line, col) {
				result = Match{Name: memberName(w.Parent(0), n), Kind: n.Kind, Span: n.Span}
				found = true
			}

		case ast.KindProgram, ast.KindClassDeclaration, ast.KindClassExpression,
			ast.KindClassAccessor, ast.KindCallExpression, ast.KindVariableDeclarator,
			ast.KindAssignmentExpression, ast.KindDotAccess, ast.KindIndexAccess,
			ast.KindSymbolRef, ast.KindOther:
		}
		return true
	})

	return result, found
}

// memberName renders "Class.member" for a class member.
func memberName(class, member *ast.Node) string {
	className := ast.Anonymous
	if class != nil && class.Name != "" {
		className = class.Name
	}
	key := member.Name
	if member.Computed || key == "" {
		key = computedKey
	}
	return className + "." + key
}
