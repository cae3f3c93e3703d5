// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the HTTP client for the Gemini streaming
// generation API: request construction from parsed document segments,
// server-sent-event stream decoding, and environment-based configuration.
package gemini
