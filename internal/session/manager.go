// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/chatdoc/internal/document"
	"github.com/jeranaias/chatdoc/internal/gemini"
)

// =============================================================================
// MANAGER TYPES
// =============================================================================

// DefaultFlushWindow is the coalescing delay between the first unflushed
// fragment and the next document write. Trades up to this much display
// latency for one document mutation per window instead of one per fragment.
const DefaultFlushWindow = 100 * time.Millisecond

// Streamer is the transport a Manager issues completions through.
// *gemini.Client satisfies it; tests substitute fakes.
type Streamer interface {
	// Configured reports whether the transport can issue requests at all.
	// Checked before a session is created so configuration errors never
	// touch the network or the registry.
	Configured() error

	// Stream issues one request and delivers decoded chunks to fn in
	// transport order, blocking until the stream terminates.
	Stream(ctx context.Context, req *gemini.GenerateRequest, fn gemini.ChunkFunc) error
}

// NoticeLevel classifies user-visible notices.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// NotifyFunc receives user-visible notices (status line messages).
type NotifyFunc func(level NoticeLevel, text string)

// DoneFunc is invoked after a session finalized and deregistered, with the
// terminal error (nil on natural end, context.Canceled on explicit stop).
// The editor surface uses it to tear down the progress indicator.
type DoneFunc func(s *Session, err error)

// Errors returned by Start and Stop.
var (
	// ErrSessionActive rejects a completion started on a document that
	// already has a live session, rather than racing two streams into the
	// same buffer.
	ErrSessionActive = errors.New("session: a completion is already running in this document")

	// ErrNoSession indicates a stop request for a document with no live
	// session.
	ErrNoSession = errors.New("session: no completion running in this document")
)

// =============================================================================
// MANAGER
// =============================================================================

// Manager issues and supervises streaming completions against document
// buffers. All sessions created by one Manager share its Registry and
// transport.
type Manager struct {
	registry *Registry
	streamer Streamer
	window   time.Duration
	notify   NotifyFunc
	onDone   DoneFunc
	logf     func(format string, args ...any)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFlushWindow overrides the coalescing window.
func WithFlushWindow(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithNotifier installs the user-visible notice sink.
func WithNotifier(fn NotifyFunc) ManagerOption {
	return func(m *Manager) { m.notify = fn }
}

// WithDoneFunc installs the finalization hook.
func WithDoneFunc(fn DoneFunc) ManagerOption {
	return func(m *Manager) { m.onDone = fn }
}

// WithLogger installs a diagnostic log function.
func WithLogger(logf func(format string, args ...any)) ManagerOption {
	return func(m *Manager) { m.logf = logf }
}

// NewManager creates a manager issuing completions through the given
// transport.
func NewManager(registry *Registry, streamer Streamer, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: registry,
		streamer: streamer,
		window:   DefaultFlushWindow,
		notify:   func(NoticeLevel, string) {},
		logf:     func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the manager's session registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// =============================================================================
// START
// =============================================================================

// Start begins an asynchronous completion for the document held in buf and
// returns immediately after issuing the request. The buffer is normalized,
// its segments become the request payload, an ASSISTANT marker is appended
// as the streaming region, and decoded fragments flow into the buffer until
// the stream terminates.
//
// Fails fast, creating no session, when the transport is unconfigured or
// the buffer already has a live session.
func (m *Manager) Start(buf *document.Buffer) (*Session, error) {
	if err := m.streamer.Configured(); err != nil {
		m.notify(NoticeError, err.Error())
		return nil, err
	}
	if cur := m.registry.ForBuffer(buf); cur != nil {
		m.notify(NoticeError, "completion already running (session "+fmt.Sprint(cur.ID())+")")
		return nil, ErrSessionActive
	}

	buf.Normalize()
	req := gemini.BuildRequest(document.Parse(buf.Lines()))
	seedAssistant(buf)

	s := newSession(buf, m.window)
	m.registry.Register(s)

	ctx, cancel := context.WithCancel(context.Background())
	s.bindCancel(cancel)
	m.logf("session %d: started", s.ID())

	go m.run(ctx, s, req)
	return s, nil
}

// run drives one session's stream to completion. Runs on its own goroutine.
func (m *Manager) run(ctx context.Context, s *Session, req *gemini.GenerateRequest) {
	err := m.streamer.Stream(ctx, req, func(c gemini.Chunk) {
		if c.Err != nil {
			// Server-reported error payload: user-visible, not fatal to
			// the session, which finalizes through the standard exit path.
			m.logf("session %d: server error: %v", s.ID(), c.Err)
			m.notify(NoticeError, c.Err.Error())
			return
		}
		s.Append(c.Text)
	})
	m.finish(s, err)
}

// seedAssistant appends the ASSISTANT marker and an empty streaming tail
// line the session flushes into.
func seedAssistant(buf *document.Buffer) {
	lines := buf.Lines()
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, document.AssistantMarker, "", "")
	buf.ReplaceAll(lines)
}

// =============================================================================
// STOP CONTROL
// =============================================================================

// Stop cancels and finalizes the session bound to buf. The transport is
// cancelled first, then finalization runs immediately without waiting for
// the transport to acknowledge: finalize is the only place buffered text is
// guaranteed to be committed. Returns ErrNoSession when the document has no
// live session.
func (m *Manager) Stop(buf *document.Buffer) error {
	s := m.registry.ForBuffer(buf)
	if s == nil {
		m.notify(NoticeInfo, "no completion running")
		return ErrNoSession
	}
	s.cancelTransport()
	m.finish(s, context.Canceled)
	return nil
}

// StopAll cancels and finalizes every live session exactly once and returns
// the number stopped. An empty registry reports zero with a distinct
// nothing-to-stop notice.
func (m *Manager) StopAll() int {
	sessions := m.registry.Sessions()
	if len(sessions) == 0 {
		m.notify(NoticeInfo, "no completions running")
		return 0
	}

	stopped := 0
	for _, s := range sessions {
		s.cancelTransport()
		if m.finish(s, context.Canceled) {
			stopped++
		}
	}
	m.notify(NoticeInfo, fmt.Sprintf("stopped %d completion(s)", stopped))
	return stopped
}

// =============================================================================
// FINALIZATION
// =============================================================================

// finish finalizes and deregisters the session. Both the explicit stop path
// and the stream goroutine's natural exit call it; whichever arrives first
// performs the work, the loser is a no-op. One failing session never
// affects others: errors terminate the session, not the process.
func (m *Manager) finish(s *Session, err error) bool {
	if !s.finalize() {
		return false
	}
	m.registry.Deregister(s)

	stats := s.Stats()
	switch {
	case err == nil:
		m.logf("session %d: finished, %d fragments, ttff %s", s.ID(), stats.Fragments, stats.TTFF())
		if stats.Fragments == 0 {
			m.notify(NoticeInfo, "completion finished (no output)")
		} else {
			m.notify(NoticeInfo, fmt.Sprintf("completion finished: %d fragments, first after %s",
				stats.Fragments, stats.TTFF().Round(time.Millisecond)))
		}
	case errors.Is(err, context.Canceled):
		m.logf("session %d: stopped", s.ID())
		m.notify(NoticeInfo, "completion stopped")
	default:
		// Partial text already flushed by finalize stays in the document.
		m.logf("session %d: failed: %v", s.ID(), err)
		m.notify(NoticeError, fmt.Sprintf("completion failed: %v (partial output kept)", err))
	}

	if m.onDone != nil {
		m.onDone(s, err)
	}
	return true
}
