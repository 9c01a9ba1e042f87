// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
	"github.com/jeranaias/sqlchat-tui/internal/ui/components"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

// defaultNoticeTTL is how long status bar notices stay visible.
const defaultNoticeTTL = 3 * time.Second

// Options configures a chat Model.
type Options struct {
	// Client runs submissions. Required.
	Client *query.Client

	// Theme defaults to the auto theme.
	Theme *styles.Theme

	// Recorder, when set, supplies the session ID shown and exported.
	Recorder *storage.Recorder

	// BackendURL is shown under the title.
	BackendURL string

	// ExportDir receives ctrl+e exports. Default: current directory.
	ExportDir string

	ShowTimestamps bool
	HighlightSQL   bool

	// Clipboard writes copied text. Default: the system clipboard.
	Clipboard func(string) error

	// Context parents every submission. Default: context.Background().
	Context context.Context

	Logger zerolog.Logger
}

// Model is the chat view.
type Model struct {
	client   *query.Client
	recorder *storage.Recorder
	theme    *styles.Theme
	logger   zerolog.Logger
	ctx      context.Context

	header    *components.Header
	statusBar *components.StatusBar
	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	keyMap    KeyMap

	// Shared across model copies.
	cancelMgr *cancelManager
	reloads   chan ConfigReloadedMsg

	width, height  int
	showTimestamps bool
	highlight      bool
	exportDir      string
	clipboard      func(string) error

	notice    string
	noticeSeq int
	noticeTTL time.Duration

	// renderedSig identifies the state the viewport content was built from.
	renderedSig string
	quitting    bool
}

// New creates a chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	write := opts.Clipboard
	if write == nil {
		write = clipboard.WriteAll
	}
	exportDir := opts.ExportDir
	if exportDir == "" {
		exportDir = "."
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describe the data you need..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	header := components.NewHeader(theme)
	header.SetSubtitle(opts.BackendURL)

	m := Model{
		client:         opts.Client,
		recorder:       opts.Recorder,
		theme:          theme,
		logger:         opts.Logger,
		ctx:            ctx,
		header:         header,
		statusBar:      components.NewStatusBar(theme),
		viewport:       viewport.New(80, 20),
		input:          ti,
		spinner:        sp,
		keyMap:         DefaultKeyMap(),
		cancelMgr:      newCancelManager(),
		reloads:        make(chan ConfigReloadedMsg, 1),
		width:          80,
		height:         24,
		showTimestamps: opts.ShowTimestamps,
		highlight:      opts.HighlightSQL,
		exportDir:      exportDir,
		clipboard:      write,
		noticeTTL:      defaultNoticeTTL,
	}
	m.statusBar.Shortcuts = shortcuts(m.keyMap.ShortHelp())
	m.spinner.Style = theme.Spinner
	m.refreshTranscript(true)
	return m
}

// ReloadChannel returns the channel a config watcher sends reloads on.
// Sends should not block; the channel holds one pending reload.
func (m Model) ReloadChannel() chan<- ConfigReloadedMsg {
	return m.reloads
}

// Cancel stops any submission in flight.
func (m Model) Cancel() {
	m.cancelMgr.cancel()
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the config reload listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForReload(m.reloads))
}

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.render()
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// sessionID returns the recorder's session, or "" when not recording.
func (m Model) sessionID() string {
	if m.recorder == nil {
		return ""
	}
	return m.recorder.SessionID()
}

// setNotice shows text in the status bar until it expires.
func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	return expireNoticeCmd(m.noticeSeq, m.noticeTTL)
}

// applyTheme swaps the theme on every component.
func (m *Model) applyTheme(theme *styles.Theme) {
	m.theme = theme

	header := components.NewHeader(theme)
	header.SetSubtitle(m.header.Subtitle)
	header.SetWidth(m.width)
	m.header = header

	bar := components.NewStatusBar(theme)
	bar.Shortcuts = m.statusBar.Shortcuts
	bar.SetWidth(m.width)
	m.statusBar = bar

	m.spinner.Style = theme.Spinner
	m.renderedSig = ""
}
