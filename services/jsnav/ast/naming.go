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

// Anonymous is the display name of a function with no usable name.
const Anonymous = "(anonymous)"

// Binder returns the node that gives fn its name when fn has none of its
// own: a variable declarator whose value is fn, or an assignment whose
// right side is fn and whose left side is a dotted property. It returns nil
// otherwise, including for plain `x = function () {}` assignments.
func Binder(fn, parent *Node) *Node {
	if fn == nil || parent == nil {
		return nil
	}
	switch parent.Kind {
	case KindVariableDeclarator:
		if parent.Value == fn && parent.Name != "" {
			return parent
		}
	case KindAssignmentExpression:
		if parent.Right == fn && parent.Left != nil && parent.Left.Kind == KindDotAccess && parent.Left.Name != "" {
			return parent
		}
	default:
	}
	return nil
}

// BindingName returns the name a binder found by Binder assigns.
func BindingName(binder *Node) string {
	if binder == nil {
		return ""
	}
	switch binder.Kind {
	case KindVariableDeclarator:
		return binder.Name
	case KindAssignmentExpression:
		if binder.Left != nil {
			return binder.Left.Name
		}
	default:
	}
	return ""
}

// FunctionName returns the display name of a function-like node: its own
// name, else the name its binder gives it, else Anonymous.
func FunctionName(fn, parent *Node) string {
	if fn.Name != "" {
		return fn.Name
	}
	if name := BindingName(Binder(fn, parent)); name != "" {
		return name
	}
	return Anonymous
}

// CalleeForm describes how a call references its target.
type CalleeForm int

const (
	// CalleeNone means the callee has no simple name (e.g. `f()()`).
	CalleeNone CalleeForm = iota
	// CalleeSymbol is a plain identifier: `f()`.
	CalleeSymbol
	// CalleeDot is a dotted member: `o.f()`.
	CalleeDot
	// CalleeIndex is an indexed member with a string key: `o["f"]()`.
	CalleeIndex
)

// CalleeName resolves the simple name a call expression targets.
//
// Identifiers resolve to themselves, dotted access to the property name,
// indexed access to its string literal key. Anything else has no name.
func CalleeName(call *Node) (string, CalleeForm) {
	if call == nil || call.Kind != KindCallExpression || call.Callee == nil {
		return "", CalleeNone
	}
	callee := call.Callee
	switch callee.Kind {
	case KindSymbolRef:
		return callee.Name, CalleeSymbol
	case KindDotAccess:
		if callee.Name != "" {
			return callee.Name, CalleeDot
		}
	case KindIndexAccess:
		if callee.Name != "" {
			return callee.Name, CalleeIndex
		}
	default:
	}
	return "", CalleeNone
}
