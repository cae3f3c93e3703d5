// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chatdoc TUI.
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// COLORS
// =============================================================================

// Purple - Primary accent, assistant output
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, info notices, markers
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, streaming indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// SurfaceDim - Status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// TextMuted - Secondary text
var TextMuted = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}

// =============================================================================
// STATUS BAR STYLES
// =============================================================================

var StatusBar = lipgloss.NewStyle().
	Background(SurfaceDim).
	Padding(0, 1)

var StatusFile = lipgloss.NewStyle().
	Background(SurfaceDim).
	Foreground(Cyan).
	Bold(true)

var StatusModel = lipgloss.NewStyle().
	Background(SurfaceDim).
	Foreground(TextMuted)

var StatusSessions = lipgloss.NewStyle().
	Background(SurfaceDim).
	Foreground(Amber).
	Bold(true)

var NoticeInfo = lipgloss.NewStyle().
	Background(SurfaceDim).
	Foreground(Emerald)

var NoticeError = lipgloss.NewStyle().
	Background(SurfaceDim).
	Foreground(Rose).
	Bold(true)

// Spinner style for the streaming progress indicator.
var Spinner = lipgloss.NewStyle().Foreground(Purple)
