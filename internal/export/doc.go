// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes stored sessions to shareable files.
//
// # Formats
//
//   - Markdown: query/answer pairs with answers in fenced sql blocks
//   - JSON: the complete session as stored
//
// # Usage
//
//	opts := export.DefaultOptions()
//	opts.OutputDir = "./exports"
//	path, err := export.ExportMarkdown(session, opts)
package export
