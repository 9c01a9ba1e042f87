// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/storage"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

// askResult is the --json output of ask. Error is null on success.
type askResult struct {
	Query       string  `json:"query"`
	Answer      string  `json:"answer"`
	Attempts    int     `json:"attempts"`
	Error       *string `json:"error"`
	SubmitError string  `json:"submit_error,omitempty"`
	SessionID   string  `json:"session_id,omitempty"`
}

func newAskCommand(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Generate SQL for one query and print it",
		Example: `  sqlchat ask "show all users"
  sqlchat ask --json list orders placed this week`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, strings.Join(args, " "), jsonOut)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, q string, jsonOut bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	client := a.newQueryClient(a.newBackend())
	rec, detach, err := a.attachRecorder(client, storage.SourceAsk)
	if err != nil {
		return err
	}
	defer detach()

	res, err := client.Submit(ctx, q)

	if jsonOut {
		result := askResult{Query: q}
		if res != nil {
			result.Answer = res.Answer
			result.Attempts = res.Attempts
			if res.SubmitErr != nil {
				result.SubmitError = res.SubmitErr.Error()
			}
		}
		if rec != nil {
			result.SessionID = rec.SessionID()
		}
		if err != nil {
			msg := err.Error()
			result.Error = &msg
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if encErr := encoder.Encode(result); encErr != nil {
			return encErr
		}
		if err != nil {
			return &ReportedError{Err: err}
		}
		return nil
	}

	if res != nil && res.SubmitErr != nil {
		fmt.Fprintln(errOut, styles.RenderWarning(res.SubmitErr.Error()))
	}
	if err != nil {
		fmt.Fprintln(errOut, styles.RenderError(client.Snapshot().Error))
		return &ReportedError{Err: err}
	}
	return renderAnswer(out, res.Answer)
}

// renderAnswer prints generated SQL. Terminals get a glamour-rendered code
// block; pipes and files get the raw text.
func renderAnswer(w io.Writer, answer string) error {
	if !isTerminal(w) {
		_, err := fmt.Fprintln(w, answer)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth(w)),
	)
	if err != nil {
		_, err = fmt.Fprintln(w, answer)
		return err
	}
	rendered, err := renderer.Render("```sql\n" + answer + "\n```\n")
	if err != nil {
		_, err = fmt.Fprintln(w, answer)
		return err
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}
