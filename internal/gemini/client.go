// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model override is configured.
	DefaultModel = "gemini-2.5-flash"

	// EnvAPIKey and EnvAPIKeyAlt are the accepted API key variables, first
	// non-empty wins.
	EnvAPIKey    = "GEMINI_API_KEY"
	EnvAPIKeyAlt = "GOOGLE_API_KEY"

	// EnvModel overrides the model identifier.
	EnvModel = "CHATDOC_MODEL"
)

// ErrNotConfigured indicates no API key was found. Checked before any
// network call so a missing key never creates a session.
var ErrNotConfigured = errors.New("gemini: no API key set (" + EnvAPIKey + " or " + EnvAPIKeyAlt + ")")

// APIKeyFromEnv returns the API key from the environment, first non-empty
// variable wins. Empty string when unset.
func APIKeyFromEnv() string {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key
	}
	return os.Getenv(EnvAPIKeyAlt)
}

// ModelFromEnv returns the model identifier override from the environment,
// falling back to DefaultModel.
func ModelFromEnv() string {
	if model := os.Getenv(EnvModel); model != "" {
		return model
	}
	return DefaultModel
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Gemini streaming generation endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logf    func(format string, args ...any)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests to point the client
// at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit caps outbound requests at r per second with the given
// burst. Requests over the cap wait, they are never dropped.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(r), burst) }
}

// WithLogger installs a diagnostic log function.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(c *Client) { c.logf = logf }
}

// NewClient creates a client for the given API key and model. An empty
// model falls back to DefaultModel.
func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		// Streaming responses have no sensible overall deadline; a hung
		// connection is ended by explicit stop (context cancellation).
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		logf:    func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromEnv creates a client configured entirely from the
// environment.
func NewClientFromEnv(opts ...Option) *Client {
	return NewClient(APIKeyFromEnv(), ModelFromEnv(), opts...)
}

// Configured returns ErrNotConfigured when no API key is set.
func (c *Client) Configured() error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	return nil
}

// Model returns the model identifier the client sends requests to.
func (c *Client) Model() string {
	return c.model
}

// =============================================================================
// STREAMING REQUEST
// =============================================================================

// Stream issues a streaming generation request and calls fn for each
// decoded chunk. Blocks until the stream ends, fails, or ctx is cancelled;
// the caller runs it from its own goroutine.
func (c *Client) Stream(ctx context.Context, genReq *GenerateRequest, fn ChunkFunc) error {
	if err := c.Configured(); err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	requestID := uuid.NewString()
	c.logf("gemini: request %s model=%s messages=%d", requestID, c.model, len(genReq.Contents))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: request %s failed: %w", requestID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read: error bodies are small, never stream-sized.
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logf("gemini: request %s status=%d", requestID, resp.StatusCode)
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	err = DecodeStream(ctx, resp.Body, fn)
	c.logf("gemini: request %s done in %s err=%v", requestID, time.Since(start).Round(time.Millisecond), err)
	return err
}
