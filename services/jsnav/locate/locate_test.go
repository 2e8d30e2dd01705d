// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package locate

import (
	"context"
	"errors"
	"testing"

	"github.com/AleutianAI/jsnav/services/jsnav/ast"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		name      string
		script    string
		line, col int
		want      string
		wantFound bool
	}{
		{
			name:      "single function",
			script:    "function a() {\n  b();\n}",
			line:      2,
			col:       3,
			want:      "a",
			wantFound: true,
		},
		{
			name: "innermost by line span",
			script: `function outer() {
  function inner() {
    x();
  }
}`,
			line:      3,
			col:       4,
			want:      "inner",
			wantFound: true,
		},
		{
			name:      "line span tie broken by column span",
			script:    "function o() { const f = () => { g(); }; }",
			line:      1,
			col:       33,
			want:      "f",
			wantFound: true,
		},
		{
			name:      "arrow named by declarator",
			script:    "const f = () => { g(); };",
			line:      1,
			col:       18,
			want:      "f",
			wantFound: true,
		},
		{
			name:      "explicit name beats binding",
			script:    "const f = function g() {\n  x();\n};",
			line:      2,
			col:       2,
			want:      "g",
			wantFound: true,
		},
		{
			name:      "property assignment binding",
			script:    "obj.run = function () {\n  go();\n};",
			line:      2,
			col:       2,
			want:      "run",
			wantFound: true,
		},
		{
			name:      "callback is anonymous",
			script:    "setTimeout(function () {\n  tick();\n});",
			line:      2,
			col:       2,
			want:      ast.Anonymous,
			wantFound: true,
		},
		{
			name:      "outside every function",
			script:    "const x = 1;\nfunction a() {}",
			line:      1,
			col:       3,
			wantFound: false,
		},
		{
			name:      "before start column on start line",
			script:    "let y = 2; function a() { b(); }",
			line:      1,
			col:       5,
			wantFound: false,
		},
		{
			name:      "on closing brace",
			script:    "function a() {\n  b();\n}",
			line:      3,
			col:       0,
			want:      "a",
			wantFound: true,
		},
		{
			name:      "after closing brace",
			script:    "function a() {\n  b();\n} ",
			line:      3,
			col:       1,
			wantFound: false,
		},
		{
			name:      "empty script",
			script:    "",
			line:      1,
			col:       0,
			wantFound: false,
		},
		{
			name:      "line zero never matches",
			script:    "function a() { b(); }",
			line:      0,
			col:       5,
			wantFound: false,
		},
		{
			name:      "line past end never matches",
			script:    "function a() { b(); }",
			line:      40,
			col:       0,
			wantFound: false,
		},
		{
			name:      "negative column never matches on start line",
			script:    "function a() { b(); }",
			line:      1,
			col:       -1,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := Locate(context.Background(), []byte(tt.script), tt.line, tt.col)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v (name %q)", found, tt.wantFound, got)
			}
			if got != tt.want {
				t.Errorf("name = %q, want %q", got, tt.want)
			}
		})
	}
}

const classScript = `class A {
  foo() {
    bar();
  }
  count = 0;
  handler = () => {
    go();
  };
  get size() {
    return 1;
  }
}`

func TestLocate_ClassMembers(t *testing.T) {
	tests := []struct {
		name      string
		line, col int
		want      string
		wantFound bool
	}{
		// The member matches first; its method expression starts at "(".
		{"method key", 2, 3, "A.foo", true},
		// Inside the body the method expression is visited after the member
		// and is anonymous.
		{"method body", 3, 4, ast.Anonymous, true},
		{"field", 5, 4, "A.count", true},
		{"field key with arrow value", 6, 3, "A.handler", true},
		{"arrow body inside field", 7, 4, ast.Anonymous, true},
		// Getters are not methods or fields.
		{"getter key", 9, 7, "", false},
		{"getter body", 10, 4, ast.Anonymous, true},
		{"class header", 1, 3, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found, err := Locate(context.Background(), []byte(classScript), tt.line, tt.col)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v (name %q)", found, tt.wantFound, got)
			}
			if got != tt.want {
				t.Errorf("name = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocate_MemberOverridesEnclosingFunction(t *testing.T) {
	script := `function make() {
  return class Widget {
    size = 3;
  };
}`
	got, found, err := Locate(context.Background(), []byte(script), 3, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || got != "Widget.size" {
		t.Errorf("got (%q, %v), want (%q, true)", got, found, "Widget.size")
	}
}

func TestLocate_AnonymousClassMember(t *testing.T) {
	script := "const K = class {\n  run() {}\n};"
	got, found, err := Locate(context.Background(), []byte(script), 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || got != "(anonymous).run" {
		t.Errorf("got (%q, %v), want (%q, true)", got, found, "(anonymous).run")
	}
}

func TestLocate_SyntaxErrorPropagates(t *testing.T) {
	_, found, err := Locate(context.Background(), []byte("function a(){"), 1, 5)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, ast.ErrSyntax) {
		t.Errorf("expected ast.ErrSyntax, got %v", err)
	}
	if found {
		t.Error("found should be false on error")
	}
}

func TestLocate_NonASCIIPrefix(t *testing.T) {
	script := []byte("const s = 'éééé'; function f(){}")
	tests := []struct {
		name      string
		col       int
		wantFound bool
	}{
		{"first character", 18, true},
		{"inside keyword", 19, true},
		{"closing brace", 32, true},
		{"one past closing brace", 33, false},
		{"before function", 17, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, found, err := Locate(context.Background(), script, 1, tt.col)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v (name %q)", found, tt.wantFound, name)
			}
			if found && name != "f" {
				t.Errorf("name = %q, want f", name)
			}
		})
	}
}

func TestLocate_JSXIsSyntaxError(t *testing.T) {
	_, _, err := Locate(context.Background(), []byte("function a(){ return <div/>; b(); }"), 1, 15)
	if !errors.Is(err, ast.ErrSyntax) {
		t.Errorf("expected ast.ErrSyntax, got %v", err)
	}
}

func TestLocator_LocateMatch(t *testing.T) {
	l := NewLocator(ast.WithJSMaxFileSize(1024))
	m, found, err := l.LocateMatch(context.Background(), []byte("const f = () => { g(); };"), 1, 18)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected a match")
	}
	if m.Kind != ast.KindArrowFunction {
		t.Errorf("kind = %s, want %s", m.Kind, ast.KindArrowFunction)
	}
	if m.Span.StartCol != 10 {
		t.Errorf("span start col = %d, want 10", m.Span.StartCol)
	}
}

func TestLocator_FileTooLarge(t *testing.T) {
	l := NewLocator(ast.WithJSMaxFileSize(4))
	_, _, err := l.Locate(context.Background(), []byte("function a() {}"), 1, 1)
	if !errors.Is(err, ast.ErrFileTooLarge) {
		t.Errorf("expected ast.ErrFileTooLarge, got %v", err)
	}
}

func TestFind_NilTree(t *testing.T) {
	if _, found := Find(nil, 1, 1); found {
		t.Error("nil tree should not match")
	}
}
