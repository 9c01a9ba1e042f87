// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Name is the resolved theme, ThemeDark or ThemeLight.
	Name         string
	IsDark       bool
	ColorProfile termenv.Profile

	// ChromaStyle is the chroma style used for SQL blocks.
	ChromaStyle string

	// Header
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// Transcript
	UserLabel     lipgloss.Style
	UserBubble    lipgloss.Style
	AnswerLabel   lipgloss.Style
	AnswerBubble  lipgloss.Style
	PendingBubble lipgloss.Style
	Timestamp     lipgloss.Style
	EmptyHint     lipgloss.Style

	// Input and submit affordance
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	Button         lipgloss.Style
	ButtonDisabled lipgloss.Style
	Spinner        lipgloss.Style

	// Error line
	ErrorLine lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	StatusReady  lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusError  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Notice       lipgloss.Style
}

// NewTheme creates a theme. Unknown names behave like ThemeAuto.
func NewTheme(name string) *Theme {
	var isDark bool
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	// AdaptiveColor resolves against the default renderer.
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		Name:         ThemeLight,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
		ChromaStyle:  "github",
	}
	if isDark {
		t.Name = ThemeDark
		t.ChromaStyle = "monokai"
	}

	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 2).
		Align(lipgloss.Center)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2)

	t.AnswerLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.AnswerBubble = lipgloss.NewStyle().
		Foreground(AnswerBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AnswerBubbleBorder).
		Padding(0, 1)

	t.PendingBubble = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.EmptyHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.Button = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Bold(true).
		Padding(0, 1)

	t.ButtonDisabled = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(OverlayDim).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)

	t.ErrorLine = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true).
		Padding(0, 1)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusReady = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.StatusBusy = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Notice = lipgloss.NewStyle().
		Foreground(Emerald).
		Italic(true)
}
