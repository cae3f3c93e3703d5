// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"reflect"
	"sync"
	"testing"
)

func TestNewBufferNeverEmpty(t *testing.T) {
	if got := NewBuffer(nil).Lines(); !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("empty buffer lines = %q, want one empty line", got)
	}
	b := NewBuffer([]string{"a"})
	b.ReplaceAll(nil)
	if got := b.Lines(); !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("after ReplaceAll(nil) lines = %q, want one empty line", got)
	}
}

func TestBufferFlushTail(t *testing.T) {
	b := NewBuffer([]string{UserMarker, "", "hi", "", AssistantMarker, "", ""})

	// First piece overwrites the last line, the rest append.
	b.FlushTail([]string{"Hello"})
	b.FlushTail([]string{"Hello", "World"})

	want := []string{UserMarker, "", "hi", "", AssistantMarker, "", "Hello", "World"}
	if got := b.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("FlushTail result:\ngot  %q\nwant %q", got, want)
	}
}

func TestBufferFlushTailNotifiesOnce(t *testing.T) {
	b := NewBuffer([]string{""})
	var calls int
	b.SetOnChange(func() { calls++ })

	b.FlushTail([]string{"a", "b", "c"})
	if calls != 1 {
		t.Errorf("expected 1 change notification, got %d", calls)
	}
	b.FlushTail(nil)
	if calls != 1 {
		t.Errorf("empty flush must not notify, got %d", calls)
	}
}

func TestBufferNormalizeNoChangeNoNotify(t *testing.T) {
	b := NewBuffer([]string{UserMarker, "", "hello"})
	var calls int
	b.SetOnChange(func() { calls++ })

	if b.Normalize() {
		t.Error("canonical document reported as changed")
	}
	if calls != 0 {
		t.Errorf("canonical document must not notify, got %d calls", calls)
	}

	b.Append("", "", AssistantMarker)
	calls = 0
	if !b.Normalize() {
		t.Error("expected normalization to change the document")
	}
	if calls != 1 {
		t.Errorf("expected 1 notification, got %d", calls)
	}
}

func TestBufferNormalizeAllBlank(t *testing.T) {
	b := NewBuffer([]string{"", "", ""})
	b.Normalize()
	if b.LineCount() == 0 {
		t.Fatal("buffer must never be empty")
	}
	if got := b.Lines(); !reflect.DeepEqual(got, []string{""}) {
		t.Errorf("all-blank document = %q, want one empty line", got)
	}
}

func TestBufferConcurrentAppend(t *testing.T) {
	b := NewBuffer([]string{""})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Append("line")
			}
		}()
	}
	wg.Wait()

	if got := b.LineCount(); got != 1+8*50 {
		t.Errorf("expected %d lines, got %d", 1+8*50, got)
	}
}
