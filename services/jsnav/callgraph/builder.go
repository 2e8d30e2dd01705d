// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package callgraph renders the call edges touching one JavaScript function
// as DOT edge statements.
package callgraph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/jsnav/services/jsnav/ast"
)

var tracer = otel.Tracer("jsnav.callgraph")

// GlobalScope is the caller name outside every function.
const GlobalScope = "(global)"

// excludedCallees never produce edges or bookkeeping entries.
var excludedCallees = map[string]struct{}{
	"$":      {},
	"Number": {},
	"Date":   {},
}

// IsExcludedCallee reports whether name is a builtin that never appears in
// an edge, as caller or callee.
func IsExcludedCallee(name string) bool {
	_, ok := excludedCallees[StripSuffix(name)]
	return ok
}

// Result is the outcome of one call graph build.
type Result struct {
	// Output is the edge fragment, one `"A" -> "B";` line per edge.
	Output string

	// Edges are the rendered edges in output order.
	Edges []Edge

	// Focus is the identifier edges were matched against.
	Focus string

	// Seen lists every function display name and callee name reached, in
	// first-reached order.
	Seen []string
}

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// ParserOptions are passed to the JavaScript parser.
	ParserOptions []ast.JavaScriptParserOption

	// Logger receives the debug record for swallowed parse failures.
	// Default: slog.Default()
	Logger *slog.Logger
}

// BuilderOption is a functional option for configuring Builder.
type BuilderOption func(*BuilderOptions)

// WithParserOptions sets the parser options.
func WithParserOptions(opts ...ast.JavaScriptParserOption) BuilderOption {
	return func(o *BuilderOptions) {
		o.ParserOptions = append(o.ParserOptions, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}

// Builder parses scripts and builds focused call graphs.
//
// Thread Safety: Safe for concurrent use. Every build parses its own tree
// and allocates its own name map, edge set and frame stack.
type Builder struct {
	parser *ast.JavaScriptParser
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	var o BuilderOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return &Builder{
		parser: ast.NewJavaScriptParser(o.ParserOptions...),
		logger: o.Logger,
	}
}

// Analyze parses src, mangles it and builds the graph around the focus.
//
// Description:
//
//	Unlike Build, Analyze reports parse failures. The returned Result is
//	never nil; on failure it is empty with Focus set to focusName.
func (b *Builder) Analyze(ctx context.Context, src []byte, focusName string, focusLine int) (*Result, error) {
	ctx, span := tracer.Start(ctx, "Builder.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("focus", focusName),
		attribute.Int("focus_line", focusLine),
	)

	tree, err := b.parser.Parse(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return &Result{Focus: focusName}, fmt.Errorf("callgraph: %w", err)
	}

	m := Mangle(tree, focusName, focusLine)
	res := GraphTree(tree, m)
	span.SetAttributes(
		attribute.String("focus_mangled", m.Focus),
		attribute.Int("edges", len(res.Edges)),
	)
	return res, nil
}

// Build returns the edge fragment for focusName, or "" when src does not
// parse. Parse failures are logged at debug level and never returned.
func (b *Builder) Build(ctx context.Context, src []byte, focusName string, focusLine int) string {
	res, err := b.Analyze(ctx, src, focusName, focusLine)
	if err != nil {
		b.logger.Debug("failed to parse script for call graph",
			slog.String("focus", focusName),
			slog.String("error", err.Error()),
		)
	}
	return res.Output
}

// Build parses src with default options and returns the edge fragment.
func Build(ctx context.Context, src []byte, focusName string, focusLine int) string {
	return NewBuilder().Build(ctx, src, focusName, focusLine)
}

// BuildTree builds the edge fragment for an already mangled tree.
func BuildTree(tree *ast.Tree, m *Mangling) string {
	return GraphTree(tree, m).Output
}

// GraphTree builds the full Result for an already mangled tree.
//
// Description:
//
//	Only calls made directly by the focus, or made to it, produce edges, and
//	only when the callee is a plain identifier. Both sides are rendered with
//	their mangling suffix removed.
func GraphTree(tree *ast.Tree, m *Mangling) *Result {
	focus := ""
	if m != nil {
		focus = m.Focus
	}
	return walkGraph(tree, policy{
		focus:       focus,
		mangling:    m,
		stripSuffix: true,
	})
}

// policy selects between the primary and legacy edge rules.
type policy struct {
	focus    string
	mangling *Mangling

	// memberCalls admits `o.f()` and `o["f"]()` callees.
	memberCalls bool

	// stripSuffix removes "%%n" from both sides before rendering.
	stripSuffix bool
}

// frame is one entry of the enclosing-function stack.
type frame struct {
	name string
	node *ast.Node
}

type graphWalk struct {
	policy policy
	frames []frame
	seen   map[string]struct{}
	order  []string
	edges  *EdgeSet
	out    strings.Builder
}

func walkGraph(tree *ast.Tree, p policy) *Result {
	g := &graphWalk{
		policy: p,
		frames: []frame{{name: GlobalScope}},
		seen:   make(map[string]struct{}),
		edges:  NewEdgeSet(),
	}
	if tree != nil && tree.Root != nil {
		ast.Walk(tree.Root, g.visit)
	}
	return &Result{
		Output: g.out.String(),
		Edges:  g.edges.Edges(),
		Focus:  p.focus,
		Seen:   g.order,
	}
}

func (g *graphWalk) visit(n *ast.Node, w *ast.Walker) bool {
	switch n.Kind {
	case ast.KindFunctionDeclaration, ast.KindFunctionExpression,
		ast.KindArrowFunction, ast.KindMethodExpression:
		name := g.displayName(n, w.Parent(0))
		g.markSeen(name)

		// Parameters are not visited; only the body statements are.
		g.frames = append(g.frames, frame{name: name, node: n})
		for _, stmt := range n.Body {
			w.Walk(stmt)
		}
		g.frames = g.frames[:len(g.frames)-1]
		return false

	case ast.KindCallExpression:
		g.call(n)

	case ast.KindProgram, ast.KindClassDeclaration, ast.KindClassExpression,
		ast.KindClassMethod, ast.KindClassField, ast.KindClassAccessor,
		ast.KindVariableDeclarator, ast.KindAssignmentExpression,
		ast.KindDotAccess, ast.KindIndexAccess, ast.KindSymbolRef, ast.KindOther:
	}
	return true
}

func (g *graphWalk) call(n *ast.Node) {
	name, form := ast.CalleeName(n)
	if mangled, ok := g.policy.mangling.CallTarget(n.ID); ok {
		name = mangled
	}
	if name == "" || IsExcludedCallee(name) {
		return
	}

	caller := g.frames[len(g.frames)-1].name
	if g.eligible(caller, name, form) {
		e := Edge{Caller: caller, Callee: name}
		if g.policy.stripSuffix {
			e = Edge{Caller: StripSuffix(caller), Callee: StripSuffix(name)}
		}
		if rendered, added := g.edges.Add(e); added {
			g.out.WriteString(rendered)
		}
	}
	g.markSeen(name)
}

func (g *graphWalk) eligible(caller, callee string, form ast.CalleeForm) bool {
	if caller == GlobalScope || caller == ast.Anonymous || callee == ast.Anonymous {
		return false
	}
	// Builtin names are excluded from both ends of an edge.
	if IsExcludedCallee(caller) {
		return false
	}
	if caller != g.policy.focus && callee != g.policy.focus {
		return false
	}
	switch form {
	case ast.CalleeSymbol:
		return true
	case ast.CalleeDot, ast.CalleeIndex:
		return g.policy.memberCalls
	case ast.CalleeNone:
	}
	return false
}

// displayName names a function for the frame stack: its own name, else
// its binding name, preferring mangled names from the side table.
func (g *graphWalk) displayName(fn, parent *ast.Node) string {
	m := g.policy.mangling
	if fn.Name != "" {
		if mangled, ok := m.NameOf(fn.ID); ok {
			return mangled
		}
		return fn.Name
	}
	if binder := ast.Binder(fn, parent); binder != nil {
		if mangled, ok := m.NameOf(binder.ID); ok {
			return mangled
		}
		if name := ast.BindingName(binder); name != "" {
			return name
		}
	}
	return ast.Anonymous
}

func (g *graphWalk) markSeen(name string) {
	if _, ok := g.seen[name]; ok {
		return
	}
	g.seen[name] = struct{}{}
	g.order = append(g.order, name)
}
