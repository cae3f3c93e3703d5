// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages in-flight streaming completions.
//
// A Session owns one request/response exchange: it accumulates decoded text
// fragments, coalesces document writes behind a single flush timer, and
// finalizes the document exactly once regardless of how the stream ends.
// The Registry tracks every live session and feeds observers the live count;
// the Manager wires sessions to a transport and exposes the start / stop /
// stop-all operations the editor surface binds to.
package session
