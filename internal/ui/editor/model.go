// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor provides the document editing surface for the chatdoc TUI.
//
// The document itself is the conversation log: the textarea holds the
// role-marked text, completions stream into the shared buffer behind it,
// and the status bar shows the live session count fed by the registry.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatdoc/internal/document"
	"github.com/jeranaias/chatdoc/internal/session"
	"github.com/jeranaias/chatdoc/internal/ui/styles"
	"github.com/jeranaias/chatdoc/internal/util"
)

// =============================================================================
// EDITOR MODEL
// =============================================================================

// Model is the Bubble Tea model for the editor surface.
type Model struct {
	keys     KeyMap
	textarea textarea.Model
	spinner  spinner.Model

	manager *session.Manager
	buf     *document.Buffer

	path      string
	modelName string

	width  int
	height int

	// streaming is true while this document's session is live. The
	// textarea is blurred for the duration so user edits cannot race the
	// flush writes.
	streaming bool
	liveCount int

	notice    string
	noticeErr bool

	preview     bool
	previewBody string

	dirty bool
}

// New creates the editor model for one conversation document.
func New(path string, buf *document.Buffer, manager *session.Manager, modelName string) Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Placeholder = "Type a prompt, then C-g to run a completion..."
	ta.SetValue(buf.Content())
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		keys:      DefaultKeyMap(),
		textarea:  ta,
		spinner:   sp,
		manager:   manager,
		buf:       buf,
		path:      path,
		modelName: modelName,
		notice:    "ready",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(msg.Width)
		m.textarea.SetHeight(msg.Height - 1) // status bar takes the last row
		if m.preview {
			m.previewBody = renderPreview(m.documentContent(), m.width)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case DocumentChangedMsg:
		if m.streaming {
			m.textarea.SetValue(m.buf.Content())
		}
		return m, nil

	case SessionCountMsg:
		m.liveCount = msg.Count
		return m, nil

	case NoticeMsg:
		m.notice = msg.Text
		m.noticeErr = msg.Level == session.NoticeError
		return m, nil

	case SessionDoneMsg:
		// Progress indicator teardown: the spinner simply stops being
		// drawn and ticked once streaming is false.
		m.streaming = false
		m.textarea.SetValue(m.buf.Content())
		m.textarea.Focus()
		m.dirty = true
		return m, nil

	case ConfigReloadedMsg:
		m.modelName = msg.Model
		m.notice = "config reloaded"
		m.noticeErr = false
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateTextarea(msg)
}

// handleKey routes hotkeys, passing everything else to the textarea.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys

	switch {
	case key.Matches(msg, keys.Complete):
		return m.startCompletion()

	case key.Matches(msg, keys.Stop):
		m.manager.Stop(m.buf)
		return m, nil

	case key.Matches(msg, keys.StopAll):
		m.manager.StopAll()
		return m, nil

	case key.Matches(msg, keys.Preview):
		m.preview = !m.preview
		if m.preview {
			m.previewBody = renderPreview(m.documentContent(), m.width)
		}
		return m, nil

	case key.Matches(msg, keys.Save):
		return m.save()

	case key.Matches(msg, keys.Quit):
		// Every live session runs its full finalize path before exit so
		// no document is left without its trailing USER marker.
		m.manager.StopAll()
		return m, tea.Quit
	}

	if m.streaming || m.preview {
		return m, nil
	}
	return m.updateTextarea(msg)
}

// startCompletion syncs the textarea into the shared buffer and begins an
// asynchronous session. Returns immediately; fragments arrive as messages.
func (m Model) startCompletion() (tea.Model, tea.Cmd) {
	if m.streaming {
		m.notice = "completion already running"
		m.noticeErr = true
		return m, nil
	}

	m.buf.ReplaceAll(strings.Split(m.textarea.Value(), "\n"))
	if _, err := m.manager.Start(m.buf); err != nil {
		// Manager already pushed the user-visible notice.
		return m, nil
	}

	m.streaming = true
	m.preview = false
	m.textarea.Blur()
	m.textarea.SetValue(m.buf.Content())
	return m, m.spinner.Tick
}

// save writes the document to disk atomically.
func (m Model) save() (tea.Model, tea.Cmd) {
	if m.path == "" {
		m.notice = "no file to save to"
		m.noticeErr = true
		return m, nil
	}
	if err := util.AtomicWriteFile(m.path, []byte(m.documentContent()+"\n"), 0644); err != nil {
		m.notice = "save failed: " + err.Error()
		m.noticeErr = true
		return m, nil
	}
	m.notice = "saved " + m.path
	m.noticeErr = false
	m.dirty = false
	return m, nil
}

// documentContent returns the authoritative document text: the shared
// buffer while streaming, the textarea otherwise.
func (m Model) documentContent() string {
	if m.streaming {
		return m.buf.Content()
	}
	return m.textarea.Value()
}

func (m Model) updateTextarea(msg tea.Msg) (tea.Model, tea.Cmd) {
	before := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if m.textarea.Value() != before {
		m.dirty = true
	}
	return m, cmd
}
