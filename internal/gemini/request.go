// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"strings"

	"github.com/jeranaias/chatdoc/internal/document"
)

// =============================================================================
// REQUEST BUILDER
// =============================================================================

// BuildRequest converts parsed document segments into the wire payload.
//
// User and assistant segments become ordered message entries, with the
// assistant role mapped to the provider's "model" role. All system segments
// are joined by double newlines into the single system instruction field.
// Preamble lines before the first marker carry no role and are not sent.
func BuildRequest(segs []document.Segment) *GenerateRequest {
	req := &GenerateRequest{}
	var system []string

	for _, seg := range segs {
		switch seg.Role {
		case document.RoleSystem:
			if seg.Text != "" {
				system = append(system, seg.Text)
			}
		case document.RoleUser:
			if seg.Text != "" {
				req.Contents = append(req.Contents, Content{
					Role:  "user",
					Parts: []Part{{Text: seg.Text}},
				})
			}
		case document.RoleAssistant:
			if seg.Text != "" {
				req.Contents = append(req.Contents, Content{
					Role:  "model",
					Parts: []Part{{Text: seg.Text}},
				})
			}
		}
	}

	if len(system) > 0 {
		req.SystemInstruction = &Content{
			Parts: []Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	return req
}
