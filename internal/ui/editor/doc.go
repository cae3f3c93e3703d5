// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package editor provides the document editing surface for the chatdoc TUI.

The editor is a textarea over the conversation document. The document text
itself carries the conversation structure through role marker lines; there
is no separate message list. Completions requested with ctrl+g stream into
the shared document buffer, and while one is running the textarea is blurred
and mirrors the buffer on every change notification.

# Components

  - keys.go - Keyboard bindings (complete, stop, stop all, preview, save, quit)
  - messages.go - Bubble Tea messages crossing from sessions into the UI loop
  - model.go - The Bubble Tea model: editing state, streaming state, dispatch
  - view.go - Rendering: textarea or markdown preview, plus the status bar

# Streaming Handoff

While a completion streams, the document buffer is the source of truth and
the textarea is a read-only mirror. When the session finalizes the textarea
regains focus with the repaired document. Keystrokes other than the control
bindings are ignored during streaming so concurrent edits never race the
flush writes.
*/
package editor
