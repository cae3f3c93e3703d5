// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the author of a document segment.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"

	// RoleNone marks preamble lines that appear before the first marker.
	RoleNone Role = ""
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// =============================================================================
// ROLE MARKERS
// =============================================================================

// Role marker lines. Matching is bit-exact: no variation in spacing or case
// is recognized.
const (
	UserMarker      = "# === USER ==="
	AssistantMarker = "# === ASSISTANT ==="
	SystemMarker    = "# === SYSTEM ==="
)

// MarkerRole returns the role a marker line introduces, and whether the line
// is a marker at all.
func MarkerRole(line string) (Role, bool) {
	switch line {
	case UserMarker:
		return RoleUser, true
	case AssistantMarker:
		return RoleAssistant, true
	case SystemMarker:
		return RoleSystem, true
	default:
		return RoleNone, false
	}
}

// Marker returns the marker line for a role. RoleNone has no marker and
// returns the empty string.
func Marker(role Role) string {
	switch role {
	case RoleUser:
		return UserMarker
	case RoleAssistant:
		return AssistantMarker
	case RoleSystem:
		return SystemMarker
	default:
		return ""
	}
}
