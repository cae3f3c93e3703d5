// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestAPIKeyFromEnvPrecedence(t *testing.T) {
	t.Setenv(EnvAPIKey, "primary")
	t.Setenv(EnvAPIKeyAlt, "fallback")
	if got := APIKeyFromEnv(); got != "primary" {
		t.Errorf("expected primary key to win, got %q", got)
	}

	t.Setenv(EnvAPIKey, "")
	if got := APIKeyFromEnv(); got != "fallback" {
		t.Errorf("expected fallback key, got %q", got)
	}

	t.Setenv(EnvAPIKeyAlt, "")
	if got := APIKeyFromEnv(); got != "" {
		t.Errorf("expected empty key, got %q", got)
	}
}

func TestModelFromEnv(t *testing.T) {
	t.Setenv(EnvModel, "")
	if got := ModelFromEnv(); got != DefaultModel {
		t.Errorf("expected default model, got %q", got)
	}
	t.Setenv(EnvModel, "gemini-2.5-pro")
	if got := ModelFromEnv(); got != "gemini-2.5-pro" {
		t.Errorf("expected override, got %q", got)
	}
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("", "")
	if err := c.Configured(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Configured() = %v, want ErrNotConfigured", err)
	}
	err := c.Stream(context.Background(), &GenerateRequest{}, func(Chunk) {})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Stream() = %v, want ErrNotConfigured", err)
	}
}

func TestClientStream(t *testing.T) {
	var gotPath string
	var gotReq GenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`+"\n")
		io.WriteString(w, `data: {"candidates":[{"content":{"parts":[{"text":"lo"}]}}]}`+"\n")
		io.WriteString(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model",
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(1000, 1000))

	var texts []string
	err := c.Stream(context.Background(), &GenerateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: "hi"}}}},
	}, func(c Chunk) {
		texts = append(texts, c.Text)
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if !reflect.DeepEqual(texts, []string{"Hel", "lo"}) {
		t.Errorf("fragments = %q, want [Hel lo]", texts)
	}
	if want := "/models/test-model:streamGenerateContent"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Parts[0].Text != "hi" {
		t.Errorf("server received unexpected body: %+v", gotReq)
	}
}

func TestClientStreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", "", WithBaseURL(srv.URL), WithRateLimit(1000, 1000))

	err := c.Stream(context.Background(), &GenerateRequest{}, func(Chunk) {
		t.Error("no chunks expected on HTTP error")
	})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429", statusErr.Code)
	}
	if !strings.Contains(statusErr.Body, "quota") {
		t.Errorf("body %q missing server detail", statusErr.Body)
	}
}

func TestClientStreamCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient("test-key", "", WithBaseURL(srv.URL), WithRateLimit(1000, 1000))

	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, &GenerateRequest{}, func(Chunk) {})
	}()
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
