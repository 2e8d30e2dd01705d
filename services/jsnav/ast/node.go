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

import "fmt"

// Kind classifies a syntax tree node.
//
// Description:
//
//	Kind is a closed set. Every tree-sitter node type the parser encounters
//	maps onto exactly one Kind; anything without analysis significance is
//	KindOther. Consumers switch over Kind exhaustively instead of probing
//	node types with predicates.
type Kind int

const (
	// KindOther is any node without special meaning to the analyses.
	KindOther Kind = iota

	// KindProgram is the root of a parsed script.
	KindProgram

	// KindFunctionDeclaration is `function name() {}` (including generators).
	KindFunctionDeclaration

	// KindFunctionExpression is `function () {}` used as an expression.
	KindFunctionExpression

	// KindArrowFunction is `() => ...`.
	KindArrowFunction

	// KindMethodExpression is the anonymous function value of a method,
	// getter or setter. It spans from the parameter list to the closing brace.
	KindMethodExpression

	// KindClassDeclaration is `class Name {}`.
	KindClassDeclaration

	// KindClassExpression is `class {}` used as an expression.
	KindClassExpression

	// KindClassMethod is a method member of a class body.
	KindClassMethod

	// KindClassField is a field member of a class body.
	KindClassField

	// KindClassAccessor is a getter or setter member of a class body.
	KindClassAccessor

	// KindCallExpression is `f()` or `new F()`.
	KindCallExpression

	// KindVariableDeclarator is one `name = value` binding of var/let/const.
	KindVariableDeclarator

	// KindAssignmentExpression is `left = right` (and compound forms).
	KindAssignmentExpression

	// KindDotAccess is `object.property`.
	KindDotAccess

	// KindIndexAccess is `object[index]`.
	KindIndexAccess

	// KindSymbolRef is a plain identifier reference.
	KindSymbolRef
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindOther:
		return "other"
	case KindProgram:
		return "program"
	case KindFunctionDeclaration:
		return "function_declaration"
	case KindFunctionExpression:
		return "function_expression"
	case KindArrowFunction:
		return "arrow_function"
	case KindMethodExpression:
		return "method_expression"
	case KindClassDeclaration:
		return "class_declaration"
	case KindClassExpression:
		return "class_expression"
	case KindClassMethod:
		return "class_method"
	case KindClassField:
		return "class_field"
	case KindClassAccessor:
		return "class_accessor"
	case KindCallExpression:
		return "call_expression"
	case KindVariableDeclarator:
		return "variable_declarator"
	case KindAssignmentExpression:
		return "assignment_expression"
	case KindDotAccess:
		return "dot_access"
	case KindIndexAccess:
		return "index_access"
	case KindSymbolRef:
		return "symbol_ref"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsFunction reports whether the kind introduces a function body.
func (k Kind) IsFunction() bool {
	switch k {
	case KindFunctionDeclaration, KindFunctionExpression, KindArrowFunction, KindMethodExpression:
		return true
	default:
		return false
	}
}

// IsClass reports whether the kind is a class declaration or expression.
func (k Kind) IsClass() bool {
	return k == KindClassDeclaration || k == KindClassExpression
}

// IsClassMember reports whether the kind is a named class property.
func (k Kind) IsClassMember() bool {
	return k == KindClassMethod || k == KindClassField || k == KindClassAccessor
}

// Span is an inclusive source range.
//
// Lines are 1-based, columns are 0-based UTF-16 code unit offsets within
// the line, matching editor cursor positions.
// EndLine/EndCol address the last character of the node, not one past it.
type Span struct {
	StartLine int `json:"start_line"`
	StartCol  int `json:"start_col"`
	EndLine   int `json:"end_line"`
	EndCol    int `json:"end_col"`
}

// Contains reports whether (line, col) falls inside the span.
//
// On the start line the column must be at or after StartCol; on the end line
// it must be at or before EndCol. A single-line span needs both.
func (s Span) Contains(line, col int) bool {
	if line < s.StartLine || line > s.EndLine {
		return false
	}
	if line == s.StartLine && col < s.StartCol {
		return false
	}
	if line == s.EndLine && col > s.EndCol {
		return false
	}
	return true
}

// ContainsLine reports whether line falls within [StartLine, EndLine].
func (s Span) ContainsLine(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// LineSpan is EndLine - StartLine.
func (s Span) LineSpan() int {
	return s.EndLine - s.StartLine
}

// ColSpan is EndCol - StartCol. It may be negative for multi-line spans.
func (s Span) ColSpan() int {
	return s.EndCol - s.StartCol
}

// String formats the span as "l:c-l:c".
func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine, s.StartCol, s.EndLine, s.EndCol)
}

// Node is one element of the syntax tree.
//
// Description:
//
//	Children holds every structural child in source order and is what a
//	default traversal descends into. The role fields below point into
//	Children (or, for Members, are a filtered view of them) so consumers
//	can reach the parts they care about without re-deriving tree-sitter
//	field names. Nodes carry no parent pointer; use Walker.Parent.
type Node struct {
	// ID is the node's pre-order index, unique within its Tree.
	ID int

	Kind Kind
	Span Span

	// Name depends on Kind:
	//   functions, classes     - declared name ("" when absent)
	//   class members          - property key ("" for computed keys)
	//   variable declarator    - bound identifier ("" for patterns)
	//   symbol ref             - identifier text
	//   dot access             - property name
	//   index access           - string literal index ("" otherwise)
	Name string

	// Computed is set on class members whose key is a computed expression.
	Computed bool

	Children []*Node

	// Body is the statement list of a function body. Expression-bodied
	// arrows have an empty Body; their expression is only in Children.
	Body []*Node

	// Callee is the called expression of a call.
	Callee *Node

	// Left and Right are the sides of an assignment.
	Left  *Node
	Right *Node

	// Value is the initializer of a declarator, or the value of a class
	// member (a method expression for methods and accessors).
	Value *Node

	// Object is the receiver of a dot or index access.
	Object *Node

	// Members lists the properties of a class in source order.
	Members []*Node
}

// Tree is a parsed script.
//
// Trees are immutable once returned by the parser and owned by the
// analysis call that parsed them.
type Tree struct {
	Root      *Node
	Source    []byte
	NodeCount int
}
