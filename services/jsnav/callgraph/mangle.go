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
	"strconv"
	"strings"

	"github.com/AleutianAI/jsnav/services/jsnav/ast"
)

// MangleSeparator joins an original name to its per-call counter value.
const MangleSeparator = "%%"

// Mangling is the side table produced by Mangle.
//
// Description:
//
//	The tree is never rewritten. Instead each node that received a mangled
//	name is recorded by ID:
//
//	  Names - function declarations (keyed by the function), bound function
//	          and arrow expressions (keyed by the declarator or assignment
//	          that binds them), classes, and class property keys.
//	  Calls - call expressions whose plain or dotted callee name has a
//	          NameMap entry (keyed by the call).
//
//	NameMap holds exactly one entry per distinct original name: the first
//	definition reached in pre-order mints it, and every later definition
//	with the same literal name shares it.
//
// Thread Safety: Read-only after Mangle returns.
type Mangling struct {
	Names   map[int]string
	Calls   map[int]string
	NameMap map[string]string

	// Focus is the mangled focus identifier, or the plain focus name when no
	// minting definition matched.
	Focus string
}

// NameOf returns the mangled name recorded for a node, if any.
func (m *Mangling) NameOf(id int) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.Names[id]
	return name, ok
}

// CallTarget returns the mangled callee name recorded for a call, if any.
func (m *Mangling) CallTarget(id int) (string, bool) {
	if m == nil {
		return "", false
	}
	name, ok := m.Calls[id]
	return name, ok
}

// StripSuffix removes a mangling suffix: "b%%1" becomes "b".
func StripSuffix(name string) string {
	if i := strings.Index(name, MangleSeparator); i >= 0 {
		return name[:i]
	}
	return name
}

// mangler carries the per-call counter and focus inputs.
type mangler struct {
	m         *Mangling
	counter   int
	focusName string
	focusLine int
}

// Mangle assigns per-call unique names to definitions and resolves call
// sites against them.
//
// Description:
//
//	Runs in two passes over an immutable tree. The definitions pass walks in
//	pre-order and mints "<name>%%<n>" for every definition whose literal
//	name has no NameMap entry yet. When the minting node's line range
//	contains focusLine and its original name equals focusName, the minted
//	name becomes the focus. The call pass then resolves every plain or
//	dotted callee against the finished NameMap, so calls that appear before
//	their target's definition resolve too.
//
// Inputs:
//
//	tree      - A parsed script. Must not be nil.
//	focusName - The plain name of the function of interest.
//	focusLine - A 1-based line inside the focus definition.
//
// Outputs:
//
//	*Mangling - The side table. Never nil.
//
// Limitations:
//
//	Distinct definitions sharing a literal name are conflated onto the first
//	one. Calls to any of them resolve to the same mangled identifier.
func Mangle(tree *ast.Tree, focusName string, focusLine int) *Mangling {
	mg := &mangler{
		m: &Mangling{
			Names:   make(map[int]string),
			Calls:   make(map[int]string),
			NameMap: make(map[string]string),
			Focus:   focusName,
		},
		focusName: focusName,
		focusLine: focusLine,
	}
	if tree == nil || tree.Root == nil {
		return mg.m
	}

	ast.Walk(tree.Root, mg.visitDefinition)
	ast.Walk(tree.Root, mg.visitCall)
	return mg.m
}

func (mg *mangler) visitDefinition(n *ast.Node, w *ast.Walker) bool {
	switch n.Kind {
	case ast.KindFunctionDeclaration:
		if n.Name != "" {
			mg.mint(n.ID, n.Name, n.Span)
		}

	case ast.KindFunctionExpression, ast.KindArrowFunction, ast.KindMethodExpression:
		if binder := ast.Binder(n, w.Parent(0)); binder != nil {
			mg.mint(binder.ID, ast.BindingName(binder), n.Span)
		}

	case ast.KindClassDeclaration, ast.KindClassExpression:
		if n.Name != "" {
			mg.mint(n.ID, n.Name, n.Span)
		}
		for _, member := range n.Members {
			if member.Computed || member.Name == "" {
				continue
			}
			if _, exists := mg.m.NameMap[member.Name]; !exists {
				mg.m.Names[member.ID] = mg.next(member.Name)
			}
		}

	case ast.KindProgram, ast.KindClassMethod, ast.KindClassField, ast.KindClassAccessor,
		ast.KindCallExpression, ast.KindVariableDeclarator, ast.KindAssignmentExpression,
		ast.KindDotAccess, ast.KindIndexAccess, ast.KindSymbolRef, ast.KindOther:
	}
	return true
}

func (mg *mangler) visitCall(n *ast.Node, _ *ast.Walker) bool {
	if n.Kind != ast.KindCallExpression {
		return true
	}
	name, form := ast.CalleeName(n)
	switch form {
	case ast.CalleeSymbol, ast.CalleeDot:
		if mangled, ok := mg.m.NameMap[name]; ok {
			mg.m.Calls[n.ID] = mangled
		}
	case ast.CalleeIndex, ast.CalleeNone:
	}
	return true
}

// mint records a mangled name for a definition unless its literal name was
// already minted, and claims the focus when span and name match.
func (mg *mangler) mint(id int, name string, span ast.Span) {
	if name == "" {
		return
	}
	if _, exists := mg.m.NameMap[name]; exists {
		return
	}
	mangled := mg.next(name)
	mg.m.Names[id] = mangled
	if name == mg.focusName && span.ContainsLine(mg.focusLine) {
		mg.m.Focus = mangled
	}
}

// next mints "<name>%%<counter>" and stores it in NameMap.
func (mg *mangler) next(name string) string {
	mangled := name + MangleSeparator + strconv.Itoa(mg.counter)
	mg.counter++
	mg.m.NameMap[name] = mangled
	return mangled
}
