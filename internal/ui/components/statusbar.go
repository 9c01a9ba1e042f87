// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
	"github.com/jeranaias/sqlchat-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusGenerating
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusGenerating:
		return "Generating..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape indicator for the status.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusGenerating:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// Submit affordance labels.
const (
	SubmitLabel     = "Generate SQL"
	SubmittingLabel = "Generating..."
)

// SubmitButton renders the submit affordance, disabled while loading.
func SubmitButton(theme *styles.Theme, loading bool) string {
	if loading {
		return theme.ButtonDisabled.Render(SubmittingLabel)
	}
	return theme.Button.Render(SubmitLabel)
}

// Shortcut is a key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom bar.
type StatusBar struct {
	Status     Status
	EntryCount int
	SessionID  string
	Notice     string // transient message, e.g. "copied"
	Shortcuts  []Shortcut
	Width      int
	theme      *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the bar. Shortcuts are dropped first when space runs out,
// then the counters.
func (s *StatusBar) View() string {
	left := s.statusStyle().Render(s.Status.Icon() + " " + s.Status.String())

	var middle []string
	middle = append(middle, strconv.Itoa(s.EntryCount)+" queries")
	if s.SessionID != "" {
		middle = append(middle, "session "+util.TruncateRunesNoEllipsis(s.SessionID, 8))
	}
	if s.Notice != "" {
		middle = append(middle, s.theme.Notice.Render(s.Notice))
	}
	mid := strings.Join(middle, " | ")

	var keys []string
	for _, sc := range s.Shortcuts {
		keys = append(keys, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(keys, "  ")

	inner := s.Width - 2
	line := s.layout(inner, left, mid, right)
	if lipgloss.Width(line) > inner {
		line = s.layout(inner, left, mid, "")
	}
	if lipgloss.Width(line) > inner {
		line = left
	}
	return s.theme.StatusBar.Width(max(s.Width, 1)).MaxWidth(max(s.Width, 1)).Render(line)
}

func (s *StatusBar) layout(width int, left, mid, right string) string {
	parts := []string{left}
	if mid != "" {
		parts = append(parts, mid)
	}
	line := strings.Join(parts, "  ")
	if right == "" {
		return line
	}
	gap := width - lipgloss.Width(line) - lipgloss.Width(right)
	if gap < 2 {
		return line + "  " + right
	}
	return line + strings.Repeat(" ", gap) + right
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusGenerating:
		return s.theme.StatusBusy
	case StatusError:
		return s.theme.StatusError
	default:
		return s.theme.StatusReady
	}
}
