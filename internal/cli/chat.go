// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/config"
	"github.com/jeranaias/sqlchat-tui/internal/export"
	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
	"github.com/jeranaias/sqlchat-tui/internal/util"
)

const chatPrompt = "sql> "

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads REPL input. The liner implementation provides line
// editing and history; tests script it.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// linerReader persists liner's input history to a file.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader(historyFile string) (lineReader, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return &linerReader{line: line, historyFile: historyFile}, nil
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.line.Prompt(prompt)
}

func (r *linerReader) AppendHistory(item string) {
	r.line.AppendHistory(item)
}

// Close saves history with 0600 permissions and restores the terminal.
func (r *linerReader) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive line-mode chat",
		Long: `Start an interactive session without the full-screen UI.

Type a question to generate SQL. Commands start with "/"; type /help to
list them. Ctrl+C while waiting cancels the query; at the prompt it exits.`,
		Args: cobra.NoArgs,
		RunE: a.runChat,
	}
}

// chatSession is one REPL run.
type chatSession struct {
	client   *query.Client
	recorder *storage.Recorder
	out      io.Writer
	errOut   io.Writer
	logger   zerolog.Logger
}

func (a *app) runChat(cmd *cobra.Command, _ []string) error {
	historyFile, err := config.ChatHistoryPath()
	if err != nil {
		return err
	}
	reader, err := a.newLineReader(historyFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	transport := a.newBackend()
	client := a.newQueryClient(transport)
	rec, detach, err := a.attachRecorder(client, storage.SourceChat)
	if err != nil {
		return err
	}
	defer detach()

	s := &chatSession{
		client:   client,
		recorder: rec,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		logger:   a.logger,
	}
	unsubscribe := client.Subscribe(s.observe)
	defer unsubscribe()

	fmt.Fprintf(s.out, "Connected to %s. Type /help for commands.\n", transport.BaseURL())

	for {
		input, err := reader.Prompt(promptStyle.Render(chatPrompt))
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				a.logger.Warn().Err(err).Msg("prompt failed")
			}
			fmt.Fprintln(s.out)
			s.printSummary()
			return nil
		}

		// The query itself is sent as typed.
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		reader.AppendHistory(trimmed)

		if strings.HasPrefix(trimmed, "/") {
			if !s.handleCommand(trimmed) {
				s.printSummary()
				return nil
			}
			continue
		}

		s.submit(cmd, input)
	}
}

// submit runs one query. Ctrl+C cancels it without leaving the REPL.
func (s *chatSession) submit(cmd *cobra.Command, input string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := s.client.Submit(ctx, input)
	if err != nil {
		fmt.Fprintln(s.errOut, styles.RenderError(s.client.Snapshot().Error))
		return
	}
	if err := renderAnswer(s.out, res.Answer); err != nil {
		s.logger.Warn().Err(err).Str("entry_id", res.EntryID).Msg("failed to print answer")
	}
}

// observe prints progress as the client changes state.
func (s *chatSession) observe(ev query.Event) {
	switch ev.Kind {
	case query.EventEntryAppended:
		fmt.Fprintln(s.out, dimStyle.Render(query.Placeholder+"..."))
	case query.EventSubmitFailed:
		fmt.Fprintln(s.errOut, styles.RenderWarning(ev.State.Error))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleCommand runs a slash command and reports whether the REPL continues.
func (s *chatSession) handleCommand(input string) bool {
	fields := strings.Fields(input)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/h", "/?":
		s.printHelp()
	case "/history":
		s.printHistory()
	case "/clear-error":
		s.client.ClearError()
		fmt.Fprintln(s.out, "Error cleared.")
	case "/export":
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		s.export(dir)
	default:
		fmt.Fprintln(s.errOut, styles.RenderError("Unknown command: "+name+" (type /help)"))
	}
	return true
}

func (s *chatSession) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  /history        show this session's queries and answers
  /clear-error    dismiss the last error
  /export [dir]   write this session to Markdown
  /help           show this help
  /quit           leave the chat`)
}

func (s *chatSession) printHistory() {
	state := s.client.Snapshot()
	if len(state.History) == 0 {
		fmt.Fprintln(s.out, "No queries yet.")
		return
	}
	for i, e := range state.History {
		fmt.Fprintf(s.out, "%2d. %s\n", i+1, util.TruncateWidth(util.FirstLine(e.UserQuery), 70))
		reply := e.BotReply
		if e.Pending() {
			reply = query.Placeholder
		}
		fmt.Fprintf(s.out, "    %s\n", dimStyle.Render(util.TruncateWidth(util.FirstLine(reply), 70)))
	}
	if state.Error != "" {
		fmt.Fprintln(s.out, styles.RenderError(state.Error))
	}
}

func (s *chatSession) export(dir string) {
	state := s.client.Snapshot()
	if len(state.History) == 0 {
		fmt.Fprintln(s.out, "Nothing to export.")
		return
	}

	id := ""
	if s.recorder != nil {
		id = s.recorder.SessionID()
	}
	opts := export.DefaultOptions()
	opts.OutputDir = dir

	path, err := export.ExportMarkdown(storage.SnapshotSession(id, storage.SourceChat, state.History), opts)
	if err != nil {
		fmt.Fprintln(s.errOut, styles.RenderError(err.Error()))
		return
	}
	fmt.Fprintln(s.out, styles.RenderSuccess("Exported to "+path))
}

func (s *chatSession) printSummary() {
	state := s.client.Snapshot()
	answered := 0
	for _, e := range state.History {
		if !e.Pending() {
			answered++
		}
	}
	fmt.Fprintf(s.out, "Goodbye. %d queries, %d answered.\n", len(state.History), answered)
}
