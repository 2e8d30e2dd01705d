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
	"strings"
)

// Edge is one directed call relationship.
type Edge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
}

// String renders the edge as a DOT statement.
func (e Edge) String() string {
	return RenderEdge(e.Caller, e.Callee)
}

// RenderEdge renders `"caller" -> "callee";` followed by a newline.
func RenderEdge(caller, callee string) string {
	var sb strings.Builder
	sb.Grow(len(caller) + len(callee) + 11)
	sb.WriteByte('"')
	sb.WriteString(caller)
	sb.WriteString(`" -> "`)
	sb.WriteString(callee)
	sb.WriteString("\";\n")
	return sb.String()
}

// EdgeSet deduplicates rendered edge statements within one build.
//
// Thread Safety: Not safe for concurrent use.
type EdgeSet struct {
	seen  map[string]struct{}
	edges []Edge
}

// NewEdgeSet creates an empty EdgeSet.
func NewEdgeSet() *EdgeSet {
	return &EdgeSet{seen: make(map[string]struct{})}
}

// Add records e and returns its rendering, or "" and false if an identical
// rendering was already added.
func (s *EdgeSet) Add(e Edge) (string, bool) {
	rendered := e.String()
	if _, dup := s.seen[rendered]; dup {
		return "", false
	}
	s.seen[rendered] = struct{}{}
	s.edges = append(s.edges, e)
	return rendered, true
}

// Len is the number of distinct edges.
func (s *EdgeSet) Len() int {
	return len(s.edges)
}

// Edges returns the distinct edges in insertion order.
func (s *EdgeSet) Edges() []Edge {
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// WrapDigraph wraps an edge fragment in a standalone `digraph { }` document.
func WrapDigraph(fragment string) string {
	var sb strings.Builder
	sb.WriteString("digraph {\n")
	for _, line := range strings.Split(strings.TrimRight(fragment, "\n"), "\n") {
		if line == "" {
			continue
		}
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n")
	return sb.String()
}

// ParseEdges reads edge statements back out of a fragment or a wrapped
// digraph. Lines that are not edge statements are ignored.
func ParseEdges(fragment string) []Edge {
	var edges []Edge
	for _, line := range strings.Split(fragment, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `"`) || !strings.HasSuffix(line, `";`) {
			continue
		}
		body := line[1 : len(line)-2]
		caller, callee, ok := strings.Cut(body, `" -> "`)
		if !ok {
			continue
		}
		edges = append(edges, Edge{Caller: caller, Callee: callee})
	}
	return edges
}
