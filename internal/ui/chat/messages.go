// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/sqlchat-tui/internal/config"
	"github.com/jeranaias/sqlchat-tui/internal/query"
)

// =============================================================================
// SUBMISSION MESSAGES
// =============================================================================

// resolvedMsg carries the outcome of query.Client.Resolve.
type resolvedMsg struct {
	entryID string
	result  *query.Result
	err     error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a reloaded config, or the error that
// prevented the reload.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// ACTION RESULTS
// =============================================================================

type clipboardMsg struct {
	err error
}

type exportDoneMsg struct {
	path string
	err  error
}

// noticeExpiredMsg clears the status bar notice if seq is still current.
type noticeExpiredMsg struct {
	seq int
}
