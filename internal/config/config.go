// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/chatdoc/internal/gemini"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config represents the complete chatdoc configuration.
type Config struct {
	// Model is the Gemini model identifier. Overridden by CHATDOC_MODEL.
	Model string `toml:"model"`

	// FlushWindowMs is the streaming coalescing window in milliseconds.
	// Clamped to 16-1000: below one frame the batching buys nothing, above
	// a second the document feels stuck.
	FlushWindowMs int `toml:"flush_window_ms"`

	// RequestsPerSecond caps outbound completion requests. Requests over
	// the cap wait, they are never dropped.
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// RequestBurst is the rate limiter burst size.
	RequestBurst int `toml:"request_burst"`

	// PreviewTheme is the glamour style for the rendered preview
	// ("auto", "dark", "light", "notty").
	PreviewTheme string `toml:"preview_theme"`

	// LogFile is where diagnostics go. The TUI owns the terminal, so
	// logging never writes to stdout. Empty means ~/.chatdoc/chatdoc.log.
	LogFile string `toml:"log_file"`
}

// Default clamping bounds for FlushWindowMs.
const (
	minFlushWindowMs = 16
	maxFlushWindowMs = 1000
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:             gemini.DefaultModel,
		FlushWindowMs:     100,
		RequestsPerSecond: 1,
		RequestBurst:      2,
		PreviewTheme:      "auto",
	}
}

// FlushWindow returns the coalescing window as a duration.
func (c *Config) FlushWindow() time.Duration {
	return time.Duration(c.FlushWindowMs) * time.Millisecond
}

// Validate clamps out-of-range values in place so a bad config file
// degrades instead of failing.
func (c *Config) Validate() {
	if c.Model == "" {
		c.Model = gemini.DefaultModel
	}
	if c.FlushWindowMs < minFlushWindowMs {
		c.FlushWindowMs = minFlushWindowMs
	}
	if c.FlushWindowMs > maxFlushWindowMs {
		c.FlushWindowMs = maxFlushWindowMs
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.RequestBurst < 1 {
		c.RequestBurst = 1
	}
	if c.PreviewTheme == "" {
		c.PreviewTheme = "auto"
	}
}

// applyEnv overlays environment variable overrides.
func (c *Config) applyEnv() {
	if model := os.Getenv(gemini.EnvModel); model != "" {
		c.Model = model
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Dir returns the chatdoc configuration directory (~/.chatdoc).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chatdoc"
	}
	return filepath.Join(home, ".chatdoc")
}

// Path returns the configuration file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultLogFile returns the default diagnostic log path.
func DefaultLogFile() string {
	return filepath.Join(Dir(), "chatdoc.log")
}

// Load reads the configuration file if it exists, overlays environment
// overrides, and validates. A missing file is not an error: defaults apply.
func Load() (*Config, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Validate()
	return cfg, nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// Global returns the process-wide configuration, loading it on first use.
// Load errors fall back to defaults; the caller that needs the error calls
// Load directly.
func Global() *Config {
	globalMu.RLock()
	cfg := globalConfig
	globalMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	loaded, err := Load()
	if err != nil {
		loaded = DefaultConfig()
	}
	SetGlobal(loaded)
	return loaded
}

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}

// ReloadGlobal re-reads the configuration file and swaps the global.
func ReloadGlobal() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	SetGlobal(cfg)
	return cfg, nil
}

// ResetGlobalForTesting clears the global configuration.
func ResetGlobalForTesting() {
	globalMu.Lock()
	globalConfig = nil
	globalMu.Unlock()
}
