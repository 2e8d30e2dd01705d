// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package jsnav

import (
	"github.com/AleutianAI/jsnav/services/jsnav/ast"
	"github.com/AleutianAI/jsnav/services/jsnav/callgraph"
)

// Operation names accepted in batch items.
const (
	OpLocate    = "locate"
	OpCallGraph = "callgraph"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeSyntaxError    = "SYNTAX_ERROR"
	CodeSourceTooLarge = "SOURCE_TOO_LARGE"
	CodeInvalidContent = "INVALID_CONTENT"
	CodeBatchTooLarge  = "BATCH_TOO_LARGE"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
	CodeNotReady       = "NOT_READY"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// Position is set for syntax errors.
	Position *ErrorPosition `json:"position,omitempty"`
}

// ErrorPosition locates the first syntax error.
type ErrorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// LocateRequest is the body of POST /v1/jsnav/locate.
//
// Line is 1-based and Column 0-based in UTF-16 code units. Positions outside
// the script are not errors; they simply match nothing.
type LocateRequest struct {
	Script string `json:"script" binding:"required"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// LocateResponse is the result of a locate.
type LocateResponse struct {
	// Name is the enclosing function or member, empty when Found is false.
	Name  string `json:"name"`
	Found bool   `json:"found"`

	// Kind and Span describe the matched node when Found is true.
	Kind string    `json:"kind,omitempty"`
	Span *ast.Span `json:"span,omitempty"`
}

// CallGraphRequest is the body of POST /v1/jsnav/callgraph.
type CallGraphRequest struct {
	Script    string `json:"script" binding:"required"`
	Focus     string `json:"focus" binding:"required"`
	FocusLine int    `json:"focus_line"`

	// Legacy selects the unmangled builder. Nil uses the service default.
	Legacy *bool `json:"legacy,omitempty"`

	// Digraph wraps the fragment in a standalone `digraph { }` document.
	Digraph bool `json:"digraph"`
}

// CallGraphResponse is the result of a call graph build. Scripts that do
// not parse produce an empty graph, not an error.
type CallGraphResponse struct {
	Dot    string           `json:"dot"`
	Edges  []callgraph.Edge `json:"edges"`
	Legacy bool             `json:"legacy"`
}

// BatchItem is one analysis of a batch. Operation selects which of the
// remaining fields apply.
type BatchItem struct {
	Operation string `json:"operation" binding:"required,oneof=locate callgraph"`
	Script    string `json:"script" binding:"required"`

	// Locate fields.
	Line   int `json:"line"`
	Column int `json:"column"`

	// Call graph fields.
	Focus     string `json:"focus" binding:"required_if=Operation callgraph"`
	FocusLine int    `json:"focus_line"`
	Legacy    *bool  `json:"legacy,omitempty"`
	Digraph   bool   `json:"digraph"`
}

// BatchRequest is the body of POST /v1/jsnav/batch.
type BatchRequest struct {
	Requests []BatchItem `json:"requests" binding:"required,min=1,dive"`
}

// BatchItemResult is the outcome of one batch item, in request order.
type BatchItemResult struct {
	Index     int                `json:"index"`
	Operation string             `json:"operation"`
	Locate    *LocateResponse    `json:"locate,omitempty"`
	CallGraph *CallGraphResponse `json:"callgraph,omitempty"`
	Error     *ErrorResponse     `json:"error,omitempty"`
}

// BatchResponse is the result of a batch.
type BatchResponse struct {
	Results []BatchItemResult `json:"results"`
}

// HealthResponse is returned by the health and readiness endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
