// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor provides the document editing surface for the chatdoc TUI.
//
// This file defines the messages asynchronous session machinery sends into
// the Bubble Tea loop. Sessions run on their own goroutines; everything they
// need the editor to know arrives as one of these messages via Program.Send.
package editor

import "github.com/jeranaias/chatdoc/internal/session"

// DocumentChangedMsg reports that a session flushed text into the shared
// document buffer and the view must re-read it.
type DocumentChangedMsg struct{}

// SessionCountMsg carries the live session count from a registry observer.
type SessionCountMsg struct {
	Count int
}

// NoticeMsg carries a user-visible notice for the status bar.
type NoticeMsg struct {
	Level session.NoticeLevel
	Text  string
}

// SessionDoneMsg reports that a session finalized. Err is nil on natural
// end, context.Canceled on explicit stop.
type SessionDoneMsg struct {
	ID  int64
	Err error
}

// ConfigReloadedMsg reports a live configuration reload.
type ConfigReloadedMsg struct {
	Model string
}
