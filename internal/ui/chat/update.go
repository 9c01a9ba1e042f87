// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case resolvedMsg:
		return m.handleResolved(msg)

	case spinner.TickMsg:
		if !m.client.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		// A failed submission request shows its error while polling continues.
		m.refreshTranscript(false)
		return m, cmd

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("clipboard write failed")
			return m, m.setNotice("copy failed: " + msg.err.Error())
		}
		return m, m.setNotice("copied SQL to clipboard")

	case exportDoneMsg:
		if msg.err != nil {
			m.logger.Warn().Err(msg.err).Msg("export failed")
			return m, m.setNotice("export failed: " + msg.err.Error())
		}
		m.logger.Info().Str("path", msg.path).Msg("transcript exported")
		return m, m.setNotice("exported to " + msg.path)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.renderedSig = ""
	m.refreshTranscript(false)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.cancelMgr.cancel()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Top):
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keyMap.Copy):
		answer := m.client.Snapshot().LastAnswer
		if answer == "" {
			return m, m.setNotice("no SQL to copy yet")
		}
		return m, copyCmd(m.clipboard, answer)

	case key.Matches(msg, m.keyMap.Export):
		snap := m.client.Snapshot()
		if len(snap.History) == 0 {
			return m, m.setNotice("nothing to export yet")
		}
		sess := storage.SnapshotSession(m.sessionID(), storage.SourceTUI, snap.History)
		return m, exportCmd(sess, m.exportDir)

	case key.Matches(msg, m.keyMap.ClearError):
		m.client.ClearError()
		m.refreshTranscript(false)
		return m, nil
	}

	if m.client.Loading() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit appends the placeholder entry now and resolves it in a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	entry, err := m.client.Begin(m.input.Value())
	if err != nil {
		// Blank input and a second submission are both ignored.
		return m, nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelMgr.set(cancel)
	m.input.Blur()
	m.refreshTranscript(true)

	return m, tea.Batch(resolveCmd(ctx, m.client, entry.ID), m.spinner.Tick)
}

func (m Model) handleResolved(msg resolvedMsg) (tea.Model, tea.Cmd) {
	m.cancelMgr.cancel()

	switch {
	case msg.err == nil:
		m.logger.Debug().Str("entry_id", msg.entryID).Int("attempts", msg.result.Attempts).Msg("entry resolved")
	case errors.Is(msg.err, query.ErrNotPending):
		m.logger.Warn().Str("entry_id", msg.entryID).Msg("resolved entry was not pending")
	default:
		m.logger.Debug().Err(msg.err).Str("entry_id", msg.entryID).Msg("entry failed")
	}

	m.input.Reset()
	m.input.Focus()
	m.refreshTranscript(true)
	return m, textinput.Blink
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	next := waitForReload(m.reloads)
	if msg.Err != nil {
		m.logger.Warn().Err(msg.Err).Msg("config reload failed")
		return m, tea.Batch(next, m.setNotice("config reload failed: "+msg.Err.Error()))
	}

	cfg := msg.Config
	m.client.SetPolicy(query.RetryPolicy{
		MaxAttempts: cfg.Polling.MaxAttempts,
		Interval:    cfg.Polling.Interval(),
	})
	if cfg.UI.Theme != "" && (cfg.UI.Theme == styles.ThemeAuto || cfg.UI.Theme != m.theme.Name) {
		m.applyTheme(styles.NewTheme(cfg.UI.Theme))
	}
	m.showTimestamps = cfg.UI.ShowTimestamps
	m.highlight = cfg.UI.HighlightSQL
	m.renderedSig = ""
	m.refreshTranscript(false)

	m.logger.Info().
		Int("max_attempts", cfg.Polling.MaxAttempts).
		Dur("interval", cfg.Polling.Interval()).
		Str("theme", m.theme.Name).
		Msg("config reloaded")
	return m, tea.Batch(next, m.setNotice("config reloaded"))
}
