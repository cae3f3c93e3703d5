// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/chatdoc/internal/document"
	"github.com/jeranaias/chatdoc/internal/gemini"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// fakeStreamer delivers a scripted chunk sequence. With block set it holds
// the stream open after delivery until the context is cancelled, standing in
// for a connection that is still producing.
type fakeStreamer struct {
	configErr error
	chunks    []gemini.Chunk
	err       error
	block     bool
	emitted   chan struct{}
}

func (f *fakeStreamer) Configured() error { return f.configErr }

func (f *fakeStreamer) Stream(ctx context.Context, req *gemini.GenerateRequest, fn gemini.ChunkFunc) error {
	for _, c := range f.chunks {
		fn(c)
	}
	if f.emitted != nil {
		f.emitted <- struct{}{}
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

// recorder collects notices and terminal results across goroutines.
type recorder struct {
	mu      sync.Mutex
	notices []string
	errors  []string
	done    chan error
}

func newRecorder() *recorder {
	return &recorder{done: make(chan error, 8)}
}

func (r *recorder) notify(level NoticeLevel, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level == NoticeError {
		r.errors = append(r.errors, text)
		return
	}
	r.notices = append(r.notices, text)
}

func (r *recorder) onDone(s *Session, err error) {
	r.done <- err
}

func (r *recorder) hasNotice(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notices {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func (r *recorder) hasError(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.errors {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func (r *recorder) waitDone(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session completion")
		return nil
	}
}

func newTestManager(f *fakeStreamer, rec *recorder) *Manager {
	return NewManager(NewRegistry(), f,
		WithFlushWindow(5*time.Millisecond),
		WithNotifier(rec.notify),
		WithDoneFunc(rec.onDone))
}

func questionBuffer() *document.Buffer {
	return document.NewBuffer([]string{document.UserMarker, "", "q"})
}

// =============================================================================
// START
// =============================================================================

func TestStartUnconfigured(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(&fakeStreamer{configErr: gemini.ErrNotConfigured}, rec)
	buf := questionBuffer()
	before := buf.Lines()

	s, err := m.Start(buf)
	if !errors.Is(err, gemini.ErrNotConfigured) {
		t.Fatalf("Start = %v, want ErrNotConfigured", err)
	}
	if s != nil {
		t.Error("no session must be created on configuration failure")
	}
	if got := m.Registry().Count(); got != 0 {
		t.Errorf("registry count = %d, want 0", got)
	}
	if got := buf.Lines(); !reflect.DeepEqual(got, before) {
		t.Errorf("document must be untouched, got %q", got)
	}
	if !rec.hasError("no API key") {
		t.Error("expected a configuration error notice")
	}
}

func TestStartRejectsSecondSession(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(&fakeStreamer{block: true}, rec)
	buf := questionBuffer()

	if _, err := m.Start(buf); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := m.Start(buf); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start = %v, want ErrSessionActive", err)
	}
	if got := m.Registry().Count(); got != 1 {
		t.Errorf("registry count = %d, want 1", got)
	}

	m.StopAll()
	rec.waitDone(t)
}

func TestNaturalCompletion(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(&fakeStreamer{
		chunks: []gemini.Chunk{{Text: "Hel"}, {Text: "lo\nWor"}, {Text: "ld"}},
	}, rec)
	buf := questionBuffer()

	if _, err := m.Start(buf); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.waitDone(t); err != nil {
		t.Fatalf("terminal error = %v, want nil", err)
	}

	segs := document.Parse(buf.Lines())
	var texts []string
	for _, seg := range segs {
		texts = append(texts, string(seg.Role)+":"+seg.Text)
	}
	want := []string{"user:q", "assistant:Hello\nWorld", "user:"}
	if !reflect.DeepEqual(texts, want) {
		t.Errorf("segments = %q, want %q", texts, want)
	}
	if last, _ := buf.LastNonBlank(); last != document.UserMarker {
		t.Errorf("last non-blank = %q, want user marker", last)
	}
	if got := m.Registry().Count(); got != 0 {
		t.Errorf("registry count = %d, want 0", got)
	}
	if !rec.hasNotice("completion finished") {
		t.Error("expected a finished notice")
	}
}

func TestServerErrorChunkNotFatal(t *testing.T) {
	rec := newRecorder()
	m := newTestManager(&fakeStreamer{
		chunks: []gemini.Chunk{
			{Err: &gemini.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "slow down"}},
			{Text: "ok"},
		},
	}, rec)
	buf := questionBuffer()

	if _, err := m.Start(buf); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.waitDone(t); err != nil {
		t.Fatalf("terminal error = %v, want nil", err)
	}

	if !rec.hasError("slow down") {
		t.Error("expected the server error as a notice")
	}
	if !strings.Contains(buf.Content(), "ok") {
		t.Errorf("fragments after the error must land, got %q", buf.Content())
	}
}

func TestTransportErrorKeepsPartial(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("connection reset")
	m := newTestManager(&fakeStreamer{
		chunks: []gemini.Chunk{{Text: "partial out"}},
		err:    boom,
	}, rec)
	buf := questionBuffer()

	if _, err := m.Start(buf); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.waitDone(t); !errors.Is(err, boom) {
		t.Fatalf("terminal error = %v, want %v", err, boom)
	}

	if !strings.Contains(buf.Content(), "partial out") {
		t.Errorf("partial text must stay in the document, got %q", buf.Content())
	}
	if last, _ := buf.LastNonBlank(); last != document.UserMarker {
		t.Errorf("last non-blank = %q, want user marker", last)
	}
	if !rec.hasError("completion failed") {
		t.Error("expected a failure notice")
	}
	if got := m.Registry().Count(); got != 0 {
		t.Errorf("registry count = %d, want 0", got)
	}
}

// =============================================================================
// STOP CONTROL
// =============================================================================

func TestStopCancelsAndFinalizes(t *testing.T) {
	rec := newRecorder()
	f := &fakeStreamer{
		chunks:  []gemini.Chunk{{Text: "Hel"}},
		block:   true,
		emitted: make(chan struct{}, 8),
	}
	m := newTestManager(f, rec)
	buf := questionBuffer()

	if _, err := m.Start(buf); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-f.emitted

	if err := m.Stop(buf); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := rec.waitDone(t); !errors.Is(err, context.Canceled) {
		t.Fatalf("terminal error = %v, want Canceled", err)
	}

	if !strings.Contains(buf.Content(), "Hel") {
		t.Errorf("stopped session must keep flushed text, got %q", buf.Content())
	}
	if last, _ := buf.LastNonBlank(); last != document.UserMarker {
		t.Errorf("last non-blank = %q, want user marker", last)
	}
	if !rec.hasNotice("completion stopped") {
		t.Error("expected a stopped notice")
	}

	// The stream goroutine's own exit must not finalize a second time.
	select {
	case err := <-rec.done:
		t.Errorf("done hook ran twice, second err %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := m.Stop(buf); !errors.Is(err, ErrNoSession) {
		t.Errorf("Stop on idle document = %v, want ErrNoSession", err)
	}
	if !rec.hasNotice("no completion running") {
		t.Error("expected a no-session notice")
	}
}

func TestStopAll(t *testing.T) {
	rec := newRecorder()
	f := &fakeStreamer{block: true}
	m := newTestManager(f, rec)

	for i := 0; i < 3; i++ {
		if _, err := m.Start(questionBuffer()); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
	}

	if got := m.StopAll(); got != 3 {
		t.Errorf("StopAll = %d, want 3", got)
	}
	if got := m.Registry().Count(); got != 0 {
		t.Errorf("registry count = %d, want 0", got)
	}
	if !rec.hasNotice("stopped 3 completion(s)") {
		t.Error("expected a stop-count notice")
	}
	for i := 0; i < 3; i++ {
		if err := rec.waitDone(t); !errors.Is(err, context.Canceled) {
			t.Errorf("terminal error = %v, want Canceled", err)
		}
	}

	// Idle registry reports zero with the distinct nothing-to-stop notice.
	if got := m.StopAll(); got != 0 {
		t.Errorf("second StopAll = %d, want 0", got)
	}
	if !rec.hasNotice("no completions running") {
		t.Error("expected a nothing-to-stop notice")
	}
}
