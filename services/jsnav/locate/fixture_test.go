package locate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocate_Fixture(t *testing.T) {
	src, err := os.ReadFile(filepath.Join("..", "..", "..", "test", "fixtures", "sample-js-project", "widget.js"))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	tests := []struct {
		line, col int
		want      string
		wantFound bool
	}{
		{line: 2, col: 2, want: "fetchData", wantFound: true},
		{line: 8, col: 4, want: "render", wantFound: true},
		{line: 13, col: 2, want: "refresh", wantFound: true},
		{line: 17, col: 2, want: "Widget.update", wantFound: true},
		{line: 10, col: 0, want: "", wantFound: false},
	}
	for _, tt := range tests {
		got, found, err := Locate(context.Background(), src, tt.line, tt.col)
		if err != nil {
			t.Fatalf("Locate(%d, %d): %v", tt.line, tt.col, err)
		}
		if got != tt.want || found != tt.wantFound {
			t.Errorf("Locate(%d, %d) = %q, %v; want %q, %v", tt.line, tt.col, got, found, tt.want, tt.wantFound)
		}
	}
}
