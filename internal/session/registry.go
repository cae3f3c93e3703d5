// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sort"
	"sync"

	"github.com/jeranaias/chatdoc/internal/document"
)

// =============================================================================
// SESSION REGISTRY
// =============================================================================

// Observer is a callback invoked with the live session count whenever the
// registry size changes.
type Observer func(count int)

// Registry tracks every live session. A session exists in the registry
// exactly between registration and deregistration; identity is a
// monotonically increasing integer unique for the process lifetime.
//
// Registry is an explicitly constructed, owned object: callers pass it by
// reference to whatever issues completions, there is no ambient global.
type Registry struct {
	mu        sync.Mutex
	nextID    int64
	sessions  map[int64]*Session
	observers []Observer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[int64]*Session),
	}
}

// Subscribe appends an observer. Observers are invoked synchronously, in
// subscription order, on every registry size change. There is no removal;
// observers live for the process lifetime.
func (r *Registry) Subscribe(fn Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Register assigns the session its identity and adds it to the registry,
// then notifies observers with the new count.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	r.nextID++
	s.id = r.nextID
	r.sessions[s.id] = s
	observers, count := r.snapshotLocked()
	r.mu.Unlock()

	dispatch(observers, count)
}

// Deregister removes the session and notifies observers. Removing a session
// that is not registered is a no-op with no notification.
func (r *Registry) Deregister(s *Session) bool {
	r.mu.Lock()
	if _, ok := r.sessions[s.id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s.id)
	observers, count := r.snapshotLocked()
	r.mu.Unlock()

	dispatch(observers, count)
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sessions returns a snapshot of all live sessions, ordered by id.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// ForBuffer returns the live session bound to the given document buffer, or
// nil. Lookup scans; at most one session per buffer is ever created by the
// Manager.
func (r *Registry) ForBuffer(buf *document.Buffer) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.buf == buf {
			return s
		}
	}
	return nil
}

func (r *Registry) snapshotLocked() ([]Observer, int) {
	return append([]Observer(nil), r.observers...), len(r.sessions)
}

// dispatch invokes observers outside the registry lock so they may call
// back into the registry. Best-effort: a panicking observer never prevents
// the registry mutation (or later observers) from completing.
func dispatch(observers []Observer, count int) {
	for _, fn := range observers {
		func() {
			defer func() { _ = recover() }()
			fn(count)
		}()
	}
}
