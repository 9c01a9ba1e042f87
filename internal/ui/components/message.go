// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

// =============================================================================
// ENTRY VIEW
// =============================================================================

// EmptyTranscriptHint is shown before the first query.
const EmptyTranscriptHint = "Describe the data you want in plain English and press Enter to generate SQL."

// EntryView renders one transcript entry: the user's query bubble followed
// by the answer, or the placeholder while the answer is pending.
type EntryView struct {
	Entry         query.Entry
	Width         int
	ShowTimestamp bool
	Highlight     bool
	Now           time.Time
	theme         *styles.Theme
}

// NewEntryView creates a view for entry.
func NewEntryView(entry query.Entry, theme *styles.Theme) *EntryView {
	return &EntryView{
		Entry:     entry,
		Width:     80,
		Highlight: true,
		Now:       time.Now(),
		theme:     theme,
	}
}

// View renders the entry.
func (v *EntryView) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, v.renderQuery(), v.renderAnswer())
}

func (v *EntryView) contentWidth() int {
	// Border, padding and indent.
	w := v.Width - 8
	if w < 20 {
		w = 20
	}
	return w
}

func (v *EntryView) renderQuery() string {
	header := v.theme.UserLabel.Render("you")
	if v.ShowTimestamp {
		if ts := formatTimestamp(v.Entry.CreatedAt, v.Now); ts != "" {
			header += " " + v.theme.Timestamp.Render(ts)
		}
	}

	wrapped := wordWrap(v.Entry.UserQuery, v.contentWidth())
	bubble := v.theme.UserBubble.Width(min(maxLineWidth(wrapped)+4, v.contentWidth()+4)).Render(wrapped)

	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

func (v *EntryView) renderAnswer() string {
	header := v.theme.AnswerLabel.Render("sql")
	if v.ShowTimestamp && !v.Entry.Pending() {
		if ts := formatTimestamp(v.Entry.ResolvedAt, v.Now); ts != "" {
			header += " " + v.theme.Timestamp.Render(ts)
		}
	}

	if v.Entry.Pending() {
		return lipgloss.JoinVertical(lipgloss.Left, header, v.theme.PendingBubble.Render(query.Placeholder))
	}

	block := NewCodeBlock(v.Entry.BotReply)
	block.MaxWidth = v.contentWidth()
	block.Highlight = v.Highlight
	block.ChromaStyle = v.theme.ChromaStyle
	return lipgloss.JoinVertical(lipgloss.Left, header, v.theme.AnswerBubble.Render(block.Render()))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// TranscriptOptions controls RenderTranscript.
type TranscriptOptions struct {
	Width         int
	ShowTimestamp bool
	Highlight     bool
	Now           time.Time
}

// RenderTranscript renders every entry in order, separated by blank lines.
func RenderTranscript(entries []query.Entry, theme *styles.Theme, opts TranscriptOptions) string {
	if len(entries) == 0 {
		return theme.EmptyHint.Render(wordWrap(EmptyTranscriptHint, max(opts.Width-4, 20)))
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		v := NewEntryView(entry, theme)
		v.Width = opts.Width
		v.ShowTimestamp = opts.ShowTimestamp
		v.Highlight = opts.Highlight
		v.Now = opts.Now
		parts = append(parts, v.View())
	}
	return strings.Join(parts, "\n\n")
}
