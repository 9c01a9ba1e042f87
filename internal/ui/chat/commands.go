// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sqlchat-tui/internal/export"
	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
)

// =============================================================================
// COMMANDS
// =============================================================================

// resolveCmd submits and polls for the pending entry off the Update loop.
func resolveCmd(ctx context.Context, client *query.Client, entryID string) tea.Cmd {
	return func() tea.Msg {
		res, err := client.Resolve(ctx, entryID)
		return resolvedMsg{entryID: entryID, result: res, err: err}
	}
}

// waitForReload blocks until the config watcher delivers a reload.
func waitForReload(ch <-chan ConfigReloadedMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return clipboardMsg{err: write(text)}
	}
}

func exportCmd(sess *storage.Session, dir string) tea.Cmd {
	return func() tea.Msg {
		opts := export.DefaultOptions()
		opts.OutputDir = dir
		path, err := export.ExportMarkdown(sess, opts)
		return exportDoneMsg{path: path, err: err}
	}
}

func expireNoticeCmd(seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
