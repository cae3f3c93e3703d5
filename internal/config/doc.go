// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatdoc.
//
// Configuration comes from ~/.chatdoc/config.toml when present, with
// built-in defaults, environment variable overrides, and validation that
// clamps out-of-range values. The loaded configuration is held in a
// process-global accessor safe for concurrent use, and can be reloaded live
// when the file changes.
package config
