// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
	"github.com/jeranaias/sqlchat-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// DefaultTitle is the application title shown in the header.
const DefaultTitle = "SQL Based Chatbot"

// Header is the title bar.
type Header struct {
	Title    string
	Subtitle string // usually the backend base URL
	Width    int
	theme    *styles.Theme
}

// NewHeader creates a header with the default title.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: DefaultTitle,
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSubtitle updates the line under the title.
func (h *Header) SetSubtitle(subtitle string) {
	h.Subtitle = subtitle
}

// View renders the header. Narrow terminals get a single unboxed line.
func (h *Header) View() string {
	if h.Width < 40 {
		return h.theme.HeaderTitle.Render(util.TruncateWidth(h.Title, max(h.Width, 1)))
	}

	// Border and padding take six columns.
	innerWidth := h.Width - 6
	center := lipgloss.NewStyle().Width(innerWidth).Align(lipgloss.Center)

	lines := []string{center.Render(h.theme.HeaderTitle.Render(h.Title))}
	if h.Subtitle != "" {
		sub := util.TruncateWidth(h.Subtitle, innerWidth)
		lines = append(lines, center.Render(h.theme.HeaderSubtitle.Render(sub)))
	}

	return h.theme.Header.Width(h.Width - 2).Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}
