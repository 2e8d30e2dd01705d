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
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers serves the jsnav HTTP API.
type Handlers struct {
	svc *Service
}

// NewHandlers creates Handlers backed by svc.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleLocate handles POST /v1/jsnav/locate.
//
// Description:
//
//	Returns the function or class member enclosing a position. A position
//	outside every function is a successful response with found=false.
//
// Request Body:
//
//	LocateRequest
//
// Response:
//
//	200 OK: LocateResponse
//	400 Bad Request: Malformed body or missing script
//	413 Request Entity Too Large: Script exceeds max_source_bytes
//	422 Unprocessable Entity: Script has a syntax error
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleLocate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleLocate")

	var req LocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request: " + err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}
	if !h.checkSize(c, len(req.Script)) {
		return
	}

	resp, err := h.svc.Locate(c.Request.Context(), []byte(req.Script), req.Line, req.Column)
	if err != nil {
		status, errResp := errorResponseFor(err)
		logger.Info("locate failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		c.JSON(status, errResp)
		return
	}

	logger.Debug("locate complete",
		slog.Int("line", req.Line),
		slog.Int("column", req.Column),
		slog.Bool("found", resp.Found),
		slog.String("name", resp.Name),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleCallGraph handles POST /v1/jsnav/callgraph.
//
// Description:
//
//	Builds the call edges touching the focus. Scripts that do not parse
//	return an empty graph with 200, matching the library behavior.
//
// Request Body:
//
//	CallGraphRequest
//
// Response:
//
//	200 OK: CallGraphResponse
//	400 Bad Request: Malformed body, missing script or focus
//	413 Request Entity Too Large: Script exceeds max_source_bytes
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleCallGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleCallGraph")

	var req CallGraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request: " + err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}
	if !h.checkSize(c, len(req.Script)) {
		return
	}

	resp := h.svc.CallGraph(c.Request.Context(), req)
	logger.Debug("call graph complete",
		slog.String("focus", req.Focus),
		slog.Int("focus_line", req.FocusLine),
		slog.Bool("legacy", resp.Legacy),
		slog.Int("edges", len(resp.Edges)),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleBatch handles POST /v1/jsnav/batch.
//
// Description:
//
//	Runs up to max_batch_size analyses concurrently. Per-item failures are
//	reported inside each result; the batch itself only fails on malformed
//	input or cancellation.
//
// Request Body:
//
//	BatchRequest
//
// Response:
//
//	200 OK: BatchResponse
//	400 Bad Request: Malformed body or invalid item
//	413 Request Entity Too Large: Too many items
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleBatch(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleBatch")

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request: " + err.Error(),
			Code:  CodeInvalidRequest,
		})
		return
	}

	maxItems := h.svc.Config().MaxBatchSize
	if len(req.Requests) > maxItems {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("batch has %d items, maximum is %d", len(req.Requests), maxItems),
			Code:  CodeBatchTooLarge,
		})
		return
	}

	results, err := h.svc.Batch(c.Request.Context(), req.Requests)
	if err != nil {
		status, errResp := errorResponseFor(err)
		logger.Warn("batch failed", slog.String("error", err.Error()))
		c.JSON(status, errResp)
		return
	}

	logger.Debug("batch complete", slog.Int("items", len(results)))
	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

// HandleHealth handles GET /v1/jsnav/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: Version})
}

// HandleReady handles GET /v1/jsnav/ready.
//
// Response:
//
//	200 OK: Service accepts analyses
//	503 Service Unavailable: Service is draining
func (h *Handlers) HandleReady(c *gin.Context) {
	if !h.svc.Ready() {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "service not ready",
			Code:  CodeNotReady,
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ready", Version: Version})
}

// checkSize rejects scripts above max_source_bytes before parsing.
func (h *Handlers) checkSize(c *gin.Context, size int) bool {
	limit := h.svc.Config().MaxSourceBytes
	if size <= limit {
		return true
	}
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error: fmt.Sprintf("script is %d bytes, maximum is %d", size, limit),
		Code:  CodeSourceTooLarge,
	})
	return false
}
