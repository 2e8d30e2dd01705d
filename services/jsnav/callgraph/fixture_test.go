package callgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "..", "..", "test", "fixtures", "sample-js-project", name))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	return src
}

func TestBuild_Fixture(t *testing.T) {
	src := readFixture(t, "widget.js")

	tests := []struct {
		name   string
		build  func() string
		expect string
	}{
		{
			name:   "primary",
			build:  func() string { return Build(context.Background(), src, "render", 6) },
			expect: "\"render\" -> \"format\";\n\"render\" -> \"draw\";\n\"refresh\" -> \"render\";\n",
		},
		{
			name:   "legacy",
			build:  func() string { return BuildLegacy(context.Background(), src, "render") },
			expect: "\"render\" -> \"format\";\n\"render\" -> \"draw\";\n\"render\" -> \"show\";\n\"refresh\" -> \"render\";\n",
		},
		{
			name:   "method body caller is anonymous",
			build:  func() string { return Build(context.Background(), src, "refresh", 12) },
			expect: "\"refresh\" -> \"fetchData\";\n\"refresh\" -> \"render\";\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.expect {
				t.Errorf("got %q, want %q", got, tt.expect)
			}
		})
	}
}
