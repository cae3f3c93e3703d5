// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import "strings"

// =============================================================================
// SEGMENTS
// =============================================================================

// Segment is one role-tagged slice of the document: the lines between a
// marker (inclusive) and the next marker or document end, with blank edges
// trimmed and joined by newlines.
type Segment struct {
	Role Role
	Text string
}

// Parse partitions the document into ordered role-tagged segments.
//
// Lines before the first marker form a RoleNone segment (omitted when
// blank). A document containing no markers at all is a single implicit user
// message whose text is the full document verbatim.
func Parse(lines []string) []Segment {
	if !hasMarker(lines) {
		return []Segment{{Role: RoleUser, Text: strings.Join(lines, "\n")}}
	}

	var segs []Segment
	role := RoleNone
	var body []string

	flush := func() {
		text := strings.Join(trimBlankEdges(body), "\n")
		// A blank preamble carries nothing; marker-introduced segments are
		// kept even when empty so reconstruction preserves marker order.
		if role == RoleNone && text == "" {
			return
		}
		segs = append(segs, Segment{Role: role, Text: text})
	}

	for _, line := range lines {
		if r, ok := MarkerRole(line); ok {
			flush()
			role = r
			body = body[:0]
			continue
		}
		body = append(body, line)
	}
	flush()

	return segs
}

// hasMarker reports whether any line is an exact role marker.
func hasMarker(lines []string) bool {
	for _, line := range lines {
		if _, ok := MarkerRole(line); ok {
			return true
		}
	}
	return false
}

// trimBlankEdges drops leading and trailing blank lines, preserving interior
// blanks.
func trimBlankEdges(lines []string) []string {
	start := 0
	end := len(lines)
	for start < end && isBlank(lines[start]) {
		start++
	}
	for end > start && isBlank(lines[end-1]) {
		end--
	}
	return lines[start:end]
}

// isBlank reports whether a line is empty or whitespace-only.
func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// Normalize returns the canonical form of the document and whether it
// differs from the input. Canonical form has no leading blank lines, exactly
// one blank line immediately before each marker (unless the marker is the
// first line), and exactly one blank line immediately after each marker.
// Runs of blank lines adjacent to a marker collapse to one; blank runs away
// from markers are untouched. Normalize is idempotent.
func Normalize(lines []string) ([]string, bool) {
	out := make([]string, 0, len(lines))

	i := 0
	for i < len(lines) && isBlank(lines[i]) {
		i++
	}

	for ; i < len(lines); i++ {
		line := lines[i]
		if _, ok := MarkerRole(line); !ok {
			out = append(out, line)
			continue
		}

		// Collapse the blank run before the marker to exactly one line.
		for len(out) > 0 && isBlank(out[len(out)-1]) {
			out = out[:len(out)-1]
		}
		if len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, line, "")

		// Collapse the blank run after the marker; the single canonical
		// blank was appended above.
		for i+1 < len(lines) && isBlank(lines[i+1]) {
			i++
		}
	}

	return out, !equalLines(lines, out)
}

// LastNonBlank returns the last non-blank line, or false when the document
// is entirely blank.
func LastNonBlank(lines []string) (string, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if !isBlank(lines[i]) {
			return lines[i], true
		}
	}
	return "", false
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
