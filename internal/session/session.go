// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatdoc/internal/document"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the lifecycle phase of a session. Transitions only move forward.
type State int

const (
	StateCreated State = iota
	StateRequesting
	StateStreaming
	StateFinalizing
	StateFinalized
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats holds timing and fragment counts for one session.
type Stats struct {
	Start         time.Time
	FirstFragment time.Time
	Fragments     int
}

// TTFF returns the time to first fragment, zero before any fragment arrived.
func (st Stats) TTFF() time.Duration {
	if st.FirstFragment.IsZero() {
		return 0
	}
	return st.FirstFragment.Sub(st.Start)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one in-flight streaming completion bound to a document buffer.
//
// The flush discipline: decoded fragments append to partial, and at most one
// flush timer is outstanding. When it fires, partial is split on newlines;
// the first piece overwrites the buffer's last line, middle pieces become
// new lines, and the final piece stays in partial as the content of the new
// last line. partial therefore always mirrors the buffer's last line plus
// any unflushed text, which makes the degenerate zero-newline flush a plain
// overwrite.
//
// IMPORTANT: Session must be used as a pointer; it embeds a mutex.
type Session struct {
	id  int64
	buf *document.Buffer

	mu         sync.Mutex
	state      State
	partial    string
	flushTimer *time.Timer
	cancel     context.CancelFunc
	window     time.Duration
	stats      Stats
}

func newSession(buf *document.Buffer, window time.Duration) *Session {
	return &Session{
		buf:    buf,
		state:  StateCreated,
		window: window,
		stats:  Stats{Start: time.Now()},
	}
}

// ID returns the session's process-unique identity, assigned at
// registration.
func (s *Session) ID() int64 {
	return s.id
}

// Buffer returns the document buffer this session streams into.
func (s *Session) Buffer() *document.Buffer {
	return s.buf
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the session statistics.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// bindCancel attaches the cancellation handle for the underlying network
// operation. Called once, before the request goroutine starts.
func (s *Session) bindCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.state = StateRequesting
	s.mu.Unlock()
}

// cancelTransport cancels the underlying network operation. Safe to call
// any number of times, including after the transport already completed.
func (s *Session) cancelTransport() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// =============================================================================
// FRAGMENT ACCUMULATION
// =============================================================================

// Append adds one decoded text fragment to the accumulation buffer and
// schedules a coalesced flush if none is pending. Fragments arriving after
// finalization began are dropped; cancellation stops new data, it does not
// reopen the document.
func (s *Session) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state >= StateFinalizing {
		return
	}
	if s.state != StateStreaming {
		s.state = StateStreaming
		s.stats.FirstFragment = time.Now()
	}

	s.stats.Fragments++
	s.partial += text

	// Single outstanding flush timer per session.
	if s.flushTimer == nil {
		s.flushTimer = time.AfterFunc(s.window, s.flushTimerFired)
	}
}

// flushTimerFired runs on the timer goroutine when the coalescing window
// elapses.
func (s *Session) flushTimerFired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushTimer = nil
	if s.state >= StateFinalizing {
		return
	}
	s.flushLocked()
}

// flushLocked writes all accumulated partial text into the buffer. Caller
// must hold s.mu.
func (s *Session) flushLocked() {
	if s.partial == "" {
		return
	}
	pieces := strings.Split(s.partial, "\n")
	s.buf.FlushTail(pieces)
	s.partial = pieces[len(pieces)-1]
}

// =============================================================================
// FINALIZATION
// =============================================================================

// finalize runs the terminal cleanup exactly once: cancel the pending flush
// timer, flush remaining text synchronously, release the transport handle,
// and repair the document so its last non-blank line is the USER marker.
// Safe against racing callers (explicit stop vs natural stream end); only
// the first caller performs the work and gets true back.
func (s *Session) finalize() bool {
	s.mu.Lock()
	if s.state >= StateFinalizing {
		s.mu.Unlock()
		return false
	}
	s.state = StateFinalizing

	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
	s.flushLocked()
	cancel := s.cancel
	s.mu.Unlock()

	// Idempotent; stops the transport if it is still open.
	if cancel != nil {
		cancel()
	}

	if last, ok := s.buf.LastNonBlank(); !ok || last != document.UserMarker {
		s.buf.Append("", document.UserMarker)
	}
	s.buf.Normalize()

	s.mu.Lock()
	s.state = StateFinalized
	s.mu.Unlock()
	return true
}
