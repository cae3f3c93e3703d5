// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
	"sync"
)

// =============================================================================
// DOCUMENT BUFFER
// =============================================================================

// Buffer is the mutable line store a conversation lives in. It is shared
// between the editor surface and streaming sessions, so every operation is
// mutex-guarded; the ordering of concurrent mutations is whatever order the
// lock grants.
//
// IMPORTANT: Buffer must be used as a pointer. Copying it would copy the
// mutex and break the serialization guarantee.
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	onChange func()
}

// NewBuffer creates a buffer seeded with the given lines. The slice is
// copied. A buffer always holds at least one line, matching editor
// semantics for an empty file.
func NewBuffer(lines []string) *Buffer {
	b := &Buffer{}
	if len(lines) == 0 {
		b.lines = []string{""}
	} else {
		b.lines = append([]string(nil), lines...)
	}
	return b
}

// NewBufferFromContent creates a buffer by splitting content on newlines.
func NewBufferFromContent(content string) *Buffer {
	return NewBuffer(strings.Split(content, "\n"))
}

// SetOnChange registers a callback invoked after every mutation, outside the
// buffer lock. Used by the editor surface to refresh its view of the
// document while a session streams into it.
func (b *Buffer) SetOnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Lines returns a copy of the document lines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Content returns the document as a single newline-joined string.
func (b *Buffer) Content() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// LastNonBlank returns the last non-blank line, or false when the document
// is entirely blank.
func (b *Buffer) LastNonBlank() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return LastNonBlank(b.lines)
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// ReplaceAll swaps the entire document content. An empty replacement leaves
// a single empty line.
func (b *Buffer) ReplaceAll(lines []string) {
	b.mu.Lock()
	if len(lines) == 0 {
		b.lines = []string{""}
	} else {
		b.lines = append(b.lines[:0], lines...)
	}
	fn := b.onChange
	b.mu.Unlock()
	b.notify(fn)
}

// Append adds lines at the end of the document.
func (b *Buffer) Append(lines ...string) {
	b.mu.Lock()
	b.lines = append(b.lines, lines...)
	fn := b.onChange
	b.mu.Unlock()
	b.notify(fn)
}

// FlushTail applies one coalesced streaming flush: the first piece
// overwrites the current last line, and any remaining pieces are appended
// as new lines, the last of them becoming the new last line. The whole
// flush is a single atomic mutation with one change notification.
func (b *Buffer) FlushTail(pieces []string) {
	if len(pieces) == 0 {
		return
	}
	b.mu.Lock()
	b.lines[len(b.lines)-1] = pieces[0]
	b.lines = append(b.lines, pieces[1:]...)
	fn := b.onChange
	b.mu.Unlock()
	b.notify(fn)
}

// Normalize rewrites the document into canonical marker spacing. The
// rewrite happens only when the normalized form differs, so an
// already-canonical document produces no change notification and no
// spurious edit.
func (b *Buffer) Normalize() bool {
	b.mu.Lock()
	normalized, _ := Normalize(b.lines)
	if len(normalized) == 0 {
		// An entirely blank document stays a single empty line.
		normalized = []string{""}
	}
	changed := !equalLines(b.lines, normalized)
	if changed {
		b.lines = normalized
	}
	fn := b.onChange
	b.mu.Unlock()
	if changed {
		b.notify(fn)
	}
	return changed
}

func (b *Buffer) notify(fn func()) {
	if fn != nil {
		fn()
	}
}
