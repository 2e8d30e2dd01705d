package callgraph

import "testing"

func TestRenderEdge(t *testing.T) {
	if got, want := RenderEdge("a", "b"), "\"a\" -> \"b\";\n"; got != want {
		t.Errorf("RenderEdge() = %q, want %q", got, want)
	}
	if got, want := (Edge{Caller: "x", Callee: "(anonymous)"}).String(), "\"x\" -> \"(anonymous)\";\n"; got != want {
		t.Errorf("Edge.String() = %q, want %q", got, want)
	}
}

func TestEdgeSet_Add(t *testing.T) {
	s := NewEdgeSet()
	if _, added := s.Add(Edge{"a", "b"}); !added {
		t.Fatal("first add should succeed")
	}
	if _, added := s.Add(Edge{"a", "b"}); added {
		t.Error("duplicate add should be rejected")
	}
	if _, added := s.Add(Edge{"b", "a"}); !added {
		t.Error("reversed edge is distinct")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}

	edges := s.Edges()
	edges[0].Caller = "mutated"
	if s.Edges()[0].Caller != "a" {
		t.Error("Edges should return a copy")
	}
}

func TestWrapDigraph(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{"empty", "", "digraph {\n}\n"},
		{"two edges", "\"a\" -> \"b\";\n\"b\" -> \"c\";\n", "digraph {\n  \"a\" -> \"b\";\n  \"b\" -> \"c\";\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapDigraph(tt.fragment); got != tt.want {
				t.Errorf("WrapDigraph() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseEdges(t *testing.T) {
	fragment := "\"a\" -> \"b\";\n\"b\" -> \"c\";\n"

	for _, input := range []string{fragment, WrapDigraph(fragment)} {
		edges := ParseEdges(input)
		if len(edges) != 2 {
			t.Fatalf("expected 2 edges from %q, got %v", input, edges)
		}
		if edges[0] != (Edge{"a", "b"}) || edges[1] != (Edge{"b", "c"}) {
			t.Errorf("unexpected edges %v", edges)
		}
	}

	if edges := ParseEdges("digraph {\n  node [shape=box];\n}\n"); len(edges) != 0 {
		t.Errorf("expected no edges, got %v", edges)
	}
}
