// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/ui/components"
)

// =============================================================================
// RENDERING
// =============================================================================

// render lays out header, transcript, error line, input and status bar.
func (m Model) render() string {
	snap := m.client.Snapshot()
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.viewport.View(),
		m.renderFooter(snap),
	)
}

func (m Model) renderFooter(snap query.State) string {
	var parts []string

	if snap.Error != "" {
		parts = append(parts, m.theme.ErrorLine.Width(max(m.width, 1)).Render(snap.Error))
	}
	parts = append(parts, m.renderInput(snap.Loading))
	parts = append(parts, m.renderStatusBar(snap))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderInput draws the prompt and the submit affordance on one line.
func (m Model) renderInput(loading bool) string {
	button := components.SubmitButton(m.theme, loading)
	left := m.input.View()
	if loading {
		left = m.spinner.View() + " " + m.theme.InputPrompt.Render(query.Placeholder)
	}

	// InputContainer pads one column each side.
	inner := max(m.width-2, 1)
	gap := inner - lipgloss.Width(left) - lipgloss.Width(button)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + button
	return m.theme.InputContainer.Width(max(m.width, 1)).MaxWidth(max(m.width, 1)).Render(line)
}

func (m Model) renderStatusBar(snap query.State) string {
	bar := *m.statusBar
	switch {
	case snap.Loading:
		bar.Status = components.StatusGenerating
	case snap.Error != "":
		bar.Status = components.StatusError
	default:
		bar.Status = components.StatusReady
	}
	bar.EntryCount = len(snap.History)
	bar.SessionID = m.sessionID()
	bar.Notice = m.notice
	return bar.View()
}

// refreshTranscript resizes the viewport around the current chrome and
// rebuilds its content when the client state changed. The view follows the
// newest entry when toBottom is set or it was already at the bottom.
func (m *Model) refreshTranscript(toBottom bool) {
	snap := m.client.Snapshot()

	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	chrome := lipgloss.Height(m.header.View()) + lipgloss.Height(m.renderFooter(snap))
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-chrome, 1)

	button := components.SubmitButton(m.theme, false)
	m.input.Width = max(m.width-lipgloss.Width(button)-lipgloss.Width(m.input.Prompt)-4, 10)

	sig := fmt.Sprintf("%d|%t|%q|%d|%t|%t|%s",
		len(snap.History), snap.Loading, snap.LastAnswer, m.width, m.showTimestamps, m.highlight, m.theme.Name)
	if sig == m.renderedSig && !toBottom {
		return
	}

	atBottom := m.viewport.AtBottom()
	if sig != m.renderedSig {
		m.viewport.SetContent(components.RenderTranscript(snap.History, m.theme, components.TranscriptOptions{
			Width:         m.viewport.Width,
			ShowTimestamp: m.showTimestamps,
			Highlight:     m.highlight,
		}))
		m.renderedSig = sig
	}
	if toBottom || atBottom {
		m.viewport.GotoBottom()
	}
}
