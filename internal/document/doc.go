// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models a conversation held inside a plain text document.
//
// The document is an ordered sequence of lines segmented by role marker
// lines (see UserMarker, AssistantMarker, SystemMarker). Everything between
// one marker and the next belongs to that marker's role. The package
// provides the marker parser, the normalizer that enforces canonical blank
// spacing around markers, and the mutex-guarded Buffer that sessions and the
// editor surface share.
package document
