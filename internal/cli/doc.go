// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the sqlchat command tree.
//
// Running sqlchat with no subcommand opens the terminal UI. The other
// commands work without a full-screen terminal:
//
//   - ask: submit one query and print the generated SQL
//   - chat: line-oriented REPL with persistent input history
//   - history: list, show, search, and delete saved sessions
//   - export: write a saved session to Markdown or JSON
//   - status: probe the SQL generation service
//   - config: show, initialize, and edit the config file
//   - version: print build information
//
// Commands that print data accept --json and wrap their output in a
// JSONResponse envelope. ask --json prints a flat result object instead.
package cli
