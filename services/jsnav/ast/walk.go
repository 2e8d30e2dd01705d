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

// VisitFunc is called for every node reached by a Walker, in pre-order.
//
// Returning false suppresses the default descent into n.Children. A visitor
// that wants to descend selectively calls w.Walk on the nodes it chooses.
type VisitFunc func(n *Node, w *Walker) bool

// Walker drives a pre-order traversal and tracks the ancestor stack.
//
// Description:
//
//	The stack holds the node being visited and its ancestors, so Parent can
//	answer "who contains this node" without nodes storing parent pointers.
//	The relation only exists for the duration of the walk.
//
// Thread Safety: A Walker must not be shared between goroutines.
type Walker struct {
	visit VisitFunc
	stack []*Node
}

// NewWalker creates a Walker that calls visit for every node.
func NewWalker(visit VisitFunc) *Walker {
	return &Walker{visit: visit, stack: make([]*Node, 0, 32)}
}

// Walk visits root and, unless the visitor declines, its descendants.
func Walk(root *Node, visit VisitFunc) {
	NewWalker(visit).Walk(root)
}

// Walk visits n with the current stack as its ancestry. Visitors may call
// it from inside a callback to descend manually.
func (w *Walker) Walk(n *Node) {
	if n == nil {
		return
	}
	w.stack = append(w.stack, n)
	if w.visit(n, w) {
		for _, child := range n.Children {
			w.Walk(child)
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// Parent returns the ancestor depth levels above the current node:
// Parent(0) is the immediate parent. It returns nil past the root.
func (w *Walker) Parent(depth int) *Node {
	idx := len(w.stack) - 2 - depth
	if depth < 0 || idx < 0 {
		return nil
	}
	return w.stack[idx]
}

// Self returns the node currently being visited.
func (w *Walker) Self() *Node {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

// Depth is the number of ancestors of the current node.
func (w *Walker) Depth() int {
	if len(w.stack) == 0 {
		return 0
	}
	return len(w.stack) - 1
}
