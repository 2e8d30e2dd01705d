// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("jsnav.ast")

// maxSnippetLen bounds the source excerpt carried by a SyntaxError.
const maxSnippetLen = 40

// JavaScriptParser turns JavaScript source into a Tree.
//
// Description:
//
//	JavaScriptParser uses tree-sitter to parse a script and converts the
//	concrete syntax tree into the closed-kind Tree the analyses work on.
//	Parenthesized expressions are transparent, class bodies are flattened
//	into their class node, and method values become explicit anonymous
//	method expressions.
//
// Thread Safety:
//
//	JavaScriptParser is safe for concurrent use. Each Parse call creates its
//	own tree-sitter parser instance and returns a Tree owned by the caller.
//
// Example:
//
//	parser := NewJavaScriptParser()
//	tree, err := parser.Parse(ctx, []byte("function a() { b(); }"))
//	if err != nil {
//	    return fmt.Errorf("parse: %w", err)
//	}
type JavaScriptParser struct {
	options JavaScriptParserOptions
}

// JavaScriptParserOptions configures JavaScriptParser behavior.
type JavaScriptParserOptions struct {
	// MaxFileSize is the maximum script size in bytes.
	// Scripts larger than this return ErrFileTooLarge.
	// Default: 10MB
	MaxFileSize int
}

// DefaultJavaScriptParserOptions returns the default options.
func DefaultJavaScriptParserOptions() JavaScriptParserOptions {
	return JavaScriptParserOptions{
		MaxFileSize: 10 * 1024 * 1024, // 10MB
	}
}

// JavaScriptParserOption is a functional option for configuring JavaScriptParser.
type JavaScriptParserOption func(*JavaScriptParserOptions)

// WithJSMaxFileSize sets the maximum script size for parsing.
func WithJSMaxFileSize(size int) JavaScriptParserOption {
	return func(o *JavaScriptParserOptions) {
		if size > 0 {
			o.MaxFileSize = size
		}
	}
}

// NewJavaScriptParser creates a new JavaScriptParser with the given options.
func NewJavaScriptParser(opts ...JavaScriptParserOption) *JavaScriptParser {
	options := DefaultJavaScriptParserOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &JavaScriptParser{options: options}
}

// Parse parses a script with default options.
func Parse(ctx context.Context, content []byte) (*Tree, error) {
	return NewJavaScriptParser().Parse(ctx, content)
}

// Parse converts JavaScript source into a Tree.
//
// Description:
//
//	Parses content with tree-sitter. Tree-sitter always produces a tree and
//	marks unparseable regions with ERROR or MISSING nodes; any such node makes
//	Parse fail with a *SyntaxError pointing at the first one, so callers see
//	the same "throws on invalid input" behavior a conventional parser has.
//
// Inputs:
//
//	ctx     - Context for cancellation. Checked before and after parsing.
//	content - Raw JavaScript source bytes. Must be valid UTF-8.
//
// Outputs:
//
//	*Tree - The converted syntax tree. Never nil on success.
//	error - ErrFileTooLarge, ErrInvalidContent, *SyntaxError, or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *JavaScriptParser) Parse(ctx context.Context, content []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("javascript parse canceled before start: %w", err)
	}

	ctx, span := tracer.Start(ctx, "JavaScriptParser.Parse")
	defer span.End()
	span.SetAttributes(attribute.Int("source_bytes", len(content)))

	if len(content) > p.options.MaxFileSize {
		span.SetStatus(codes.Error, ErrFileTooLarge.Error())
		return nil, ErrFileTooLarge
	}
	if !utf8.Valid(content) {
		span.SetStatus(codes.Error, ErrInvalidContent.Error())
		return nil, ErrInvalidContent
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tsTree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tsTree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("javascript parse canceled after tree-sitter: %w", err)
	}

	root := tsTree.RootNode()
	c := newConverter(content)
	if root.HasError() {
		synErr := c.firstSyntaxError(root)
		span.RecordError(synErr)
		span.SetStatus(codes.Error, "syntax error")
		return nil, synErr
	}

	tree := &Tree{
		Root:   c.convert(root),
		Source: content,
	}
	if c.jsx != nil {
		// The grammar accepts JSX; plain JavaScript does not.
		synErr := c.syntaxError(c.jsx, false)
		span.RecordError(synErr)
		span.SetStatus(codes.Error, "syntax error")
		return nil, synErr
	}
	tree.NodeCount = c.next

	span.SetAttributes(attribute.Int("nodes", tree.NodeCount))
	return tree, nil
}

// firstSyntaxError locates the first ERROR or MISSING node in document order.
func (c *converter) firstSyntaxError(root *sitter.Node) *SyntaxError {
	var found *sitter.Node
	var visit func(n *sitter.Node) bool
	visit = func(n *sitter.Node) bool {
		if n.Type() == jsNodeError || n.IsMissing() {
			found = n
			return true
		}
		if !n.HasError() {
			return false
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if visit(n.Child(i)) {
				return true
			}
		}
		return false
	}
	visit(root)

	if found == nil {
		return &SyntaxError{Line: 1, Col: 0}
	}
	return c.syntaxError(found, found.IsMissing())
}

func (c *converter) syntaxError(n *sitter.Node, missing bool) *SyntaxError {
	snippet := n.Content(c.content)
	if missing {
		snippet = n.Type()
	} else if len(snippet) > maxSnippetLen {
		snippet = strings.ToValidUTF8(snippet[:maxSnippetLen], "")
	}
	line, col := c.position(int(n.StartByte()))
	return &SyntaxError{
		Line:    line,
		Col:     col,
		Missing: missing,
		Snippet: snippet,
	}
}

// converter builds Nodes from tree-sitter nodes, assigning pre-order IDs.
type converter struct {
	content    []byte
	lineStarts []int
	asciiLines []bool
	next       int

	// jsx is the first JSX node met during conversion.
	jsx *sitter.Node
}

func newConverter(content []byte) *converter {
	starts := make([]int, 1, 64)
	ascii := make([]bool, 1, 64)
	ascii[0] = true
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
			ascii = append(ascii, true)
			continue
		}
		if b >= utf8.RuneSelf {
			ascii[len(ascii)-1] = false
		}
	}
	return &converter{content: content, lineStarts: starts, asciiLines: ascii}
}

// position maps a byte offset to a 1-based line and 0-based column counted
// in UTF-16 code units, the unit editors report cursors in.
func (c *converter) position(offset int) (int, int) {
	idx := sort.Search(len(c.lineStarts), func(i int) bool {
		return c.lineStarts[i] > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	start := c.lineStarts[idx]
	if c.asciiLines[idx] {
		return idx + 1, offset - start
	}
	return idx + 1, utf16Len(c.content[start:offset])
}

// utf16Len counts the UTF-16 code units needed to encode b.
func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// spanOf returns the inclusive span covering [start, end) bytes. The end
// column addresses the first code unit of the last character.
func (c *converter) spanOf(start, end uint32) Span {
	sl, sc := c.position(int(start))
	last := int(start)
	if end > start {
		_, size := utf8.DecodeLastRune(c.content[start:end])
		last = int(end) - size
	}
	el, ec := c.position(last)
	return Span{StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}

func (c *converter) newNode(kind Kind, start, end uint32) *Node {
	n := &Node{ID: c.next, Kind: kind, Span: c.spanOf(start, end)}
	c.next++
	return n
}

func (c *converter) text(n *sitter.Node) string {
	return string(c.content[n.StartByte():n.EndByte()])
}

// convert maps a named tree-sitter node onto a Node. It returns nil for
// nodes that carry nothing for the analyses (comments).
func (c *converter) convert(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case jsNodeComment:
		return nil

	case jsNodeParenthesizedExpression:
		if inner := c.soleChild(n); inner != nil {
			return c.convert(inner)
		}
		return c.generic(n, KindOther)

	case jsNodeProgram:
		return c.generic(n, KindProgram)

	case jsNodeFunctionDeclaration, jsNodeGeneratorFunctionDecl:
		return c.function(n, KindFunctionDeclaration)

	case jsNodeFunction, jsNodeFunctionExpression, jsNodeGeneratorFunction:
		return c.function(n, KindFunctionExpression)

	case jsNodeArrowFunction:
		return c.function(n, KindArrowFunction)

	case jsNodeClassDeclaration:
		return c.class(n, KindClassDeclaration)

	case jsNodeClass:
		return c.class(n, KindClassExpression)

	case jsNodeMethodDefinition:
		// Class methods are handled by class(); this is an object literal method.
		return c.objectMethod(n)

	case jsNodeCallExpression:
		if args := n.ChildByFieldName("arguments"); args != nil && args.Type() == jsNodeTemplateString {
			return c.generic(n, KindOther)
		}
		return c.call(n, "function")

	case jsNodeNewExpression:
		return c.call(n, "constructor")

	case jsNodeVariableDeclarator:
		return c.declarator(n)

	case jsNodeAssignmentExpression, jsNodeAugmentedAssignmentExpr:
		return c.assignment(n)

	case jsNodeMemberExpression:
		return c.dotAccess(n)

	case jsNodeSubscriptExpression:
		return c.indexAccess(n)

	case jsNodeIdentifier, jsNodeShorthandPropertyIdent:
		node := c.newNode(KindSymbolRef, n.StartByte(), n.EndByte())
		node.Name = c.text(n)
		return node

	default:
		if c.jsx == nil && strings.HasPrefix(n.Type(), jsNodeJSXPrefix) {
			c.jsx = n
		}
		return c.generic(n, KindOther)
	}
}

// soleChild returns the only non-comment named child of n, or nil.
func (c *converter) soleChild(n *sitter.Node) *sitter.Node {
	var only *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == jsNodeComment {
			continue
		}
		if only != nil {
			return nil
		}
		only = child
	}
	return only
}

func (c *converter) generic(n *sitter.Node, kind Kind) *Node {
	node := c.newNode(kind, n.StartByte(), n.EndByte())
	node.Children = c.convertNamedChildren(n)
	return node
}

func (c *converter) convertNamedChildren(n *sitter.Node) []*Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if child := c.convert(n.NamedChild(i)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// function converts declarations, function expressions and arrows.
func (c *converter) function(n *sitter.Node, kind Kind) *Node {
	node := c.newNode(kind, n.StartByte(), n.EndByte())
	if name := n.ChildByFieldName("name"); name != nil {
		node.Name = c.text(name)
	}

	if params := n.ChildByFieldName("parameters"); params != nil {
		node.Children = append(node.Children, c.convertNamedChildren(params)...)
	} else if param := n.ChildByFieldName("parameter"); param != nil {
		if p := c.convert(param); p != nil {
			node.Children = append(node.Children, p)
		}
	}

	c.attachBody(node, n.ChildByFieldName("body"))
	return node
}

// attachBody adds a function body to node: statement blocks populate Body,
// expression bodies are only structural children.
func (c *converter) attachBody(node *Node, body *sitter.Node) {
	if body == nil {
		return
	}
	if body.Type() == jsNodeStatementBlock {
		stmts := c.convertNamedChildren(body)
		node.Body = stmts
		node.Children = append(node.Children, stmts...)
		return
	}
	if expr := c.convert(body); expr != nil {
		node.Children = append(node.Children, expr)
	}
}

// methodExpression builds the anonymous function value of a method_definition.
// It spans from the parameter list to the end of the body.
func (c *converter) methodExpression(n *sitter.Node) *Node {
	params := n.ChildByFieldName("parameters")
	body := n.ChildByFieldName("body")

	start := n.StartByte()
	if params != nil {
		start = params.StartByte()
	}
	end := n.EndByte()
	if body != nil {
		end = body.EndByte()
	}

	node := c.newNode(KindMethodExpression, start, end)
	if params != nil {
		node.Children = append(node.Children, c.convertNamedChildren(params)...)
	}
	c.attachBody(node, body)
	return node
}

func (c *converter) class(n *sitter.Node, kind Kind) *Node {
	node := c.newNode(kind, n.StartByte(), n.EndByte())
	if name := n.ChildByFieldName("name"); name != nil {
		node.Name = c.text(name)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case jsNodeClassHeritage:
			node.Children = append(node.Children, c.convertNamedChildren(child)...)
		case jsNodeClassBody:
			c.classBody(node, child)
		}
	}
	return node
}

func (c *converter) classBody(class *Node, body *sitter.Node) {
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		var member *Node
		switch child.Type() {
		case jsNodeMethodDefinition:
			member = c.classMethod(child)
		case jsNodeFieldDefinition:
			member = c.classField(child)
		default:
			// Static blocks and anything else keep their structure.
			if other := c.convert(child); other != nil {
				class.Children = append(class.Children, other)
			}
			continue
		}
		class.Members = append(class.Members, member)
		class.Children = append(class.Children, member)
	}
}

func (c *converter) classMethod(n *sitter.Node) *Node {
	kind := KindClassMethod
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.IsNamed() {
			break
		}
		if t := child.Type(); t == jsNodeGet || t == jsNodeSet {
			kind = KindClassAccessor
		}
	}

	member := c.newNode(kind, n.StartByte(), n.EndByte())
	c.memberKey(member, n.ChildByFieldName("name"))
	member.Value = c.methodExpression(n)
	member.Children = append(member.Children, member.Value)
	return member
}

func (c *converter) classField(n *sitter.Node) *Node {
	member := c.newNode(KindClassField, n.StartByte(), n.EndByte())
	c.memberKey(member, n.ChildByFieldName("property"))
	if value := n.ChildByFieldName("value"); value != nil {
		member.Value = c.convert(value)
		if member.Value != nil {
			member.Children = append(member.Children, member.Value)
		}
	}
	return member
}

// memberKey sets the member's Name from its key node. Computed keys leave
// Name empty and contribute their expression as a child.
func (c *converter) memberKey(member *Node, key *sitter.Node) {
	if key == nil {
		return
	}
	switch key.Type() {
	case jsNodePropertyIdentifier, jsNodePrivatePropertyIdent, jsNodeNumber:
		member.Name = c.text(key)
	case jsNodeString:
		member.Name = c.stringContent(key)
	case jsNodeComputedPropertyName:
		member.Computed = true
		member.Children = append(member.Children, c.convertNamedChildren(key)...)
	default:
		member.Name = c.text(key)
	}
}

// objectMethod converts a method_definition inside an object literal. The
// wrapper carries no name; its value is an anonymous method expression.
func (c *converter) objectMethod(n *sitter.Node) *Node {
	node := c.newNode(KindOther, n.StartByte(), n.EndByte())
	if key := n.ChildByFieldName("name"); key != nil && key.Type() == jsNodeComputedPropertyName {
		node.Children = append(node.Children, c.convertNamedChildren(key)...)
	}
	node.Value = c.methodExpression(n)
	node.Children = append(node.Children, node.Value)
	return node
}

func (c *converter) call(n *sitter.Node, calleeField string) *Node {
	node := c.newNode(KindCallExpression, n.StartByte(), n.EndByte())
	node.Callee = c.convert(n.ChildByFieldName(calleeField))
	if node.Callee != nil {
		node.Children = append(node.Children, node.Callee)
	}
	if args := n.ChildByFieldName("arguments"); args != nil {
		node.Children = append(node.Children, c.convertNamedChildren(args)...)
	}
	return node
}

func (c *converter) declarator(n *sitter.Node) *Node {
	node := c.newNode(KindVariableDeclarator, n.StartByte(), n.EndByte())
	if name := n.ChildByFieldName("name"); name != nil {
		if name.Type() == jsNodeIdentifier {
			node.Name = c.text(name)
		} else if pattern := c.convert(name); pattern != nil {
			node.Children = append(node.Children, pattern)
		}
	}
	if value := n.ChildByFieldName("value"); value != nil {
		node.Value = c.convert(value)
		if node.Value != nil {
			node.Children = append(node.Children, node.Value)
		}
	}
	return node
}

func (c *converter) assignment(n *sitter.Node) *Node {
	node := c.newNode(KindAssignmentExpression, n.StartByte(), n.EndByte())
	node.Left = c.convert(n.ChildByFieldName("left"))
	if node.Left != nil {
		node.Children = append(node.Children, node.Left)
	}
	node.Right = c.convert(n.ChildByFieldName("right"))
	if node.Right != nil {
		node.Children = append(node.Children, node.Right)
	}
	return node
}

func (c *converter) dotAccess(n *sitter.Node) *Node {
	node := c.newNode(KindDotAccess, n.StartByte(), n.EndByte())
	node.Object = c.convert(n.ChildByFieldName("object"))
	if node.Object != nil {
		node.Children = append(node.Children, node.Object)
	}
	if prop := n.ChildByFieldName("property"); prop != nil {
		node.Name = c.text(prop)
	}
	return node
}

func (c *converter) indexAccess(n *sitter.Node) *Node {
	node := c.newNode(KindIndexAccess, n.StartByte(), n.EndByte())
	node.Object = c.convert(n.ChildByFieldName("object"))
	if node.Object != nil {
		node.Children = append(node.Children, node.Object)
	}
	if index := n.ChildByFieldName("index"); index != nil {
		if index.Type() == jsNodeString {
			node.Name = c.stringContent(index)
		}
		if idx := c.convert(index); idx != nil {
			node.Children = append(node.Children, idx)
		}
	}
	return node
}

// stringContent extracts the string content without quotes.
func (c *converter) stringContent(n *sitter.Node) string {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == jsNodeStringFragment {
			return c.text(child)
		}
	}
	text := c.text(n)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}
