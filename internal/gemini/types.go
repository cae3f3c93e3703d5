// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import "fmt"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Part is one piece of content. Only text parts are used here.
type Part struct {
	Text string `json:"text"`
}

// Content is an ordered message entry on the wire. Role is "user" or
// "model"; the system instruction content carries no role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerateRequest is the request body for :streamGenerateContent.
type GenerateRequest struct {
	Contents          []Content `json:"contents"`
	SystemInstruction *Content  `json:"system_instruction,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// streamPayload is one decoded SSE data payload. The two shapes the server
// sends (candidates on success, error mid-stream) are both optional fields;
// anything that does not parse into this shape is treated as malformed and
// dropped.
type streamPayload struct {
	Candidates []candidate `json:"candidates"`
	Error      *APIError   `json:"error,omitempty"`
}

type candidate struct {
	Content Content `json:"content"`
}

// APIError is an error payload reported by the server inside the stream.
type APIError struct {
	Code    int    `json:"code,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini: %s: %s", e.Status, e.Message)
	}
	return "gemini: " + e.Message
}

// StatusError reports a non-200 HTTP response before any stream was decoded.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini: unexpected status %d", e.Code)
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// Chunk is one decoded stream event: either a text fragment or a
// server-reported error. Errors do not end the stream; they are surfaced and
// decoding continues with the next payload.
type Chunk struct {
	Text string
	Err  error
}

// ChunkFunc is called for each decoded chunk, in transport order.
type ChunkFunc func(Chunk)
