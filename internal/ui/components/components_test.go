// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ThemeDark)
}

// =============================================================================
// CODE BLOCK
// =============================================================================

func TestHighlightSQL_KeepsText(t *testing.T) {
	code := "SELECT id, name\nFROM users\nWHERE active = 1;"
	out := HighlightSQL(code, "monokai")

	assert.Contains(t, out, "SELECT")
	assert.Contains(t, out, "users")
	assert.Equal(t, strings.Count(code, "\n"), strings.Count(out, "\n"))
}

func TestHighlightSQL_UnknownStyle(t *testing.T) {
	out := HighlightSQL("SELECT 1;", "no-such-style")
	assert.Contains(t, out, "SELECT")
}

func TestCodeBlock_Plain(t *testing.T) {
	block := CodeBlock{Code: "SELECT *\nFROM users;\n", MaxWidth: 80}
	assert.Equal(t, "SELECT *\nFROM users;", block.Render())
}

func TestCodeBlock_LineNumbers(t *testing.T) {
	block := CodeBlock{Code: "SELECT *\nFROM users;", MaxWidth: 80, LineNumbers: true}
	out := block.Render()

	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "1")
	assert.Contains(t, lines[1], "FROM users;")
}

func TestNewCodeBlock_Defaults(t *testing.T) {
	block := NewCodeBlock("SELECT 1;")
	assert.True(t, block.Highlight)
	assert.False(t, block.LineNumbers)
	assert.Equal(t, 80, block.MaxWidth)
	assert.Contains(t, block.Render(), "SELECT")
}

// =============================================================================
// ENTRY VIEW
// =============================================================================

func TestEntryView_Pending(t *testing.T) {
	entry := query.Entry{ID: "1", UserQuery: "show all users", BotReply: query.Placeholder}
	out := NewEntryView(entry, testTheme()).View()

	assert.Contains(t, out, "show all users")
	assert.Contains(t, out, query.Placeholder)
}

func TestEntryView_Answer(t *testing.T) {
	entry := query.Entry{ID: "1", UserQuery: "show all users", BotReply: "SELECT *\nFROM users;"}
	v := NewEntryView(entry, testTheme())
	v.Highlight = false
	out := v.View()

	assert.Contains(t, out, "SELECT *")
	assert.Contains(t, out, "FROM users;")
	assert.NotContains(t, out, query.Placeholder)
}

func TestEntryView_Timestamps(t *testing.T) {
	now := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	entry := query.Entry{
		UserQuery:  "count orders",
		BotReply:   "SELECT COUNT(*) FROM orders;",
		CreatedAt:  now.Add(-time.Minute),
		ResolvedAt: now,
	}
	v := NewEntryView(entry, testTheme())
	v.ShowTimestamp = true
	v.Highlight = false
	v.Now = now

	out := v.View()
	assert.Contains(t, out, "2:59 PM")
	assert.Contains(t, out, "3:00 PM")
}

func TestRenderTranscript(t *testing.T) {
	theme := testTheme()

	empty := RenderTranscript(nil, theme, TranscriptOptions{Width: 80})
	assert.Contains(t, empty, "plain English")

	entries := []query.Entry{
		{ID: "1", UserQuery: "first", BotReply: "SELECT 1;"},
		{ID: "2", UserQuery: "second", BotReply: query.Placeholder},
	}
	out := RenderTranscript(entries, theme, TranscriptOptions{Width: 80})
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Contains(t, out, query.Placeholder)
}

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

func TestHeader(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(60)
	h.SetSubtitle("http://127.0.0.1:5000")

	out := h.View()
	assert.Contains(t, out, DefaultTitle)
	assert.Contains(t, out, "127.0.0.1:5000")
	assert.LessOrEqual(t, lipgloss.Width(out), 60)

	h.SetWidth(20)
	assert.NotContains(t, h.View(), "\n")
}

func TestStatusBar(t *testing.T) {
	s := NewStatusBar(testTheme())
	s.SetWidth(100)
	s.EntryCount = 3
	s.SessionID = "0123456789abcdef"
	s.Shortcuts = []Shortcut{{"enter", "generate"}, {"ctrl+c", "quit"}}

	out := s.View()
	assert.Contains(t, out, "Ready")
	assert.Contains(t, out, "3 queries")
	assert.Contains(t, out, "session 01234567")
	assert.Contains(t, out, "ctrl+c")

	s.Status = StatusGenerating
	assert.Contains(t, s.View(), "Generating...")

	s.SetWidth(30)
	assert.LessOrEqual(t, lipgloss.Width(s.View()), 30)
}

func TestSubmitButton(t *testing.T) {
	theme := testTheme()
	assert.Contains(t, SubmitButton(theme, false), SubmitLabel)
	assert.Contains(t, SubmitButton(theme, true), SubmittingLabel)
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "show all\nusers", wordWrap("show all users", 10))
	assert.Equal(t, "a\n\nb", wordWrap("a\n\nb", 10))
	assert.Equal(t, "unchanged", wordWrap("unchanged", 0))
}
