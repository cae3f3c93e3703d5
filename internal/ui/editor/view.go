// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor provides the document editing surface for the chatdoc TUI.
//
// This file renders the editor: the document body (raw textarea or rendered
// preview) above a single-row status bar.
package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatdoc/internal/config"
	"github.com/jeranaias/chatdoc/internal/ui/styles"
	"github.com/jeranaias/chatdoc/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	var body string
	if m.preview {
		body = m.previewBody
	} else {
		body = m.textarea.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

// statusBar renders the bottom row: file and dirty flag on the left, the
// last notice in the middle, model / live session count / spinner on the
// right.
func (m Model) statusBar() string {
	name := m.path
	if name == "" {
		name = "[scratch]"
	}
	if m.dirty {
		name += " *"
	}
	left := styles.StatusFile.Render(util.TruncateWidth(name, 32))

	right := styles.StatusModel.Render(m.modelName)
	if m.liveCount > 0 {
		right += styles.StatusSessions.Render(fmt.Sprintf("  %d live", m.liveCount))
	}
	if m.streaming {
		right += " " + m.spinner.View()
	}

	noticeStyle := styles.NoticeInfo
	if m.noticeErr {
		noticeStyle = styles.NoticeError
	}
	middleWidth := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	middle := noticeStyle.Render(util.TruncateWidth(m.notice, max(middleWidth, 0)))

	pad := m.width - lipgloss.Width(left) - lipgloss.Width(middle) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return styles.StatusBar.Render(left + "  " + middle + strings.Repeat(" ", pad) + right)
}

// =============================================================================
// PREVIEW RENDERING
// =============================================================================

// renderPreview renders the document through glamour for the read-only
// markdown preview. Render errors fall back to the raw text.
func renderPreview(content string, width int) string {
	if width <= 0 {
		width = 80
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width - 2)}
	if theme := config.Global().PreviewTheme; theme == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(theme))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
