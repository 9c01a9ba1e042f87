// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sqlchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation, and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: SQL service location and request behavior
//   - PollingConfig: Result polling attempts and interval
//   - HistoryConfig: Transcript persistence
//   - Watcher: Debounced file watcher that reloads the config on change
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SQLCHAT_*)
//   - ~/.sqlchat/config.toml
//   - ~/.sqlchat/config.json
//   - Built-in defaults
//
// The directory can be moved with SQLCHAT_HOME.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	policy := cfg.Polling.Interval()
package config
