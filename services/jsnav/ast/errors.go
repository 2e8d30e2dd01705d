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
	"errors"
	"fmt"
)

var (
	// ErrSyntax is returned (wrapped in *SyntaxError) when the script does not parse.
	ErrSyntax = errors.New("javascript syntax error")

	// ErrFileTooLarge is returned when the script exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("script exceeds maximum size")

	// ErrInvalidContent is returned when the script is not valid UTF-8.
	ErrInvalidContent = errors.New("script is not valid UTF-8")
)

// SyntaxError reports the first error or missing token tree-sitter recovered from.
//
// It unwraps to ErrSyntax, so callers can use errors.Is(err, ErrSyntax).
type SyntaxError struct {
	Line    int
	Col     int
	Missing bool
	Snippet string
}

// Error implements error.
func (e *SyntaxError) Error() string {
	what := "unexpected token"
	if e.Missing {
		what = "missing token"
	}
	if e.Snippet != "" {
		return fmt.Sprintf("%v: %s %q at line %d, column %d", ErrSyntax, what, e.Snippet, e.Line, e.Col)
	}
	return fmt.Sprintf("%v: %s at line %d, column %d", ErrSyntax, what, e.Line, e.Col)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
