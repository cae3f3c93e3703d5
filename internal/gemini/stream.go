// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// STREAMING: Robust SSE parsing with error handling

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// dataPrefix is the server-sent-event field marker for data lines.
const dataPrefix = "data:"

// doneSentinel terminates the stream. It is not a data payload.
const doneSentinel = "[DONE]"

// =============================================================================
// STREAM DECODER
// =============================================================================

// DecodeStream consumes a streaming response body line by line and calls fn
// for each decoded chunk, in transport order.
//
// Each line is classified after stripping a trailing carriage return:
//   - the termination sentinel ends the stream;
//   - a "data:"-prefixed line is stripped and parsed as a JSON payload;
//   - a line opening with '{' or '[' is parsed directly, a fallback for
//     transports that do not frame payloads as SSE;
//   - anything else is ignored.
//
// Malformed payloads are dropped, never fatal. A payload carrying an error
// field is surfaced through fn as Chunk.Err and yields no text; decoding
// continues with the next line. Returns nil on sentinel, EOF, or connection
// close, and the context error on cancellation.
func DecodeStream(ctx context.Context, r io.Reader, fn ChunkFunc) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Process a final unterminated line before ending.
				if len(line) > 0 {
					decodeLine(line, fn)
				}
				return nil
			}
			return err
		}

		if done := decodeLine(line, fn); done {
			return nil
		}
	}
}

// decodeLine classifies and decodes a single stream line. Returns true when
// the line is the termination sentinel.
func decodeLine(line string, fn ChunkFunc) bool {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	var payload string
	switch {
	case strings.HasPrefix(line, dataPrefix):
		payload = strings.TrimSpace(line[len(dataPrefix):])
	case strings.HasPrefix(line, "{"), strings.HasPrefix(line, "["):
		payload = line
	default:
		return false
	}

	if payload == doneSentinel {
		return true
	}

	var p streamPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		// Skip malformed payloads
		return false
	}

	if p.Error != nil {
		fn(Chunk{Err: p.Error})
		return false
	}

	// Text fragments come from the first candidate's content parts, in order.
	if len(p.Candidates) > 0 {
		for _, part := range p.Candidates[0].Content.Parts {
			if part.Text != "" {
				fn(Chunk{Text: part.Text})
			}
		}
	}

	return false
}
