// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists query transcripts in SQLite.
//
// A session groups the entries produced by one run of the TUI, the REPL, or
// a one-shot ask. Entries are written when they are appended and rewritten
// when their answer arrives, so a crash mid-poll leaves the placeholder on
// disk exactly as the user saw it.
//
// # Key Types
//
//   - Store: SQLite-backed session and entry storage
//   - Session: A stored session with its entries
//   - SessionMeta: Listing row with entry counts
//   - Recorder: query.Observer that writes events to a Store
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := storage.NewRecorder(store, storage.SourceTUI, 100, logger)
//	detach := rec.Attach(client)
//	defer detach()
package storage
