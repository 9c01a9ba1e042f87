// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

const defaultListLimit = 20

func newHistoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"sessions"},
		Short:   "Browse saved sessions",
	}
	cmd.AddCommand(
		newHistoryListCommand(a),
		newHistoryShowCommand(a),
		newHistorySearchCommand(a),
		newHistoryDeleteCommand(a),
		newHistoryClearCommand(a),
	)
	return cmd
}

func newHistoryListCommand(a *app) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return printMetas(cmd, jsonOut, "history list", func() ([]storage.SessionMeta, error) {
				return store.List(cmd.Context(), limit)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "maximum sessions to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func newHistorySearchCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find sessions whose queries or answers contain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return printMetas(cmd, jsonOut, "history search", func() ([]storage.SessionMeta, error) {
				return store.Search(cmd.Context(), args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func printMetas(cmd *cobra.Command, jsonOut bool, command string, fetch func() ([]storage.SessionMeta, error)) error {
	if jsonOut {
		return outputJSON(cmd.OutOrStdout(), command, func() (interface{}, error) {
			return fetch()
		})
	}
	metas, err := fetch()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), storage.FormatSessionList(metas))
	if len(metas) == 0 {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func newHistoryShowCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session transcript",
		Long:  "Print a session transcript. Any unique prefix of the session ID works.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			load := func() (interface{}, error) {
				return loadSession(cmd, store, args[0])
			}
			if jsonOut {
				return outputJSON(cmd.OutOrStdout(), "history show", load)
			}
			sess, err := loadSession(cmd, store, args[0])
			if err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), sess)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func newHistoryDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			id, err := store.ResolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess("Deleted session "+shortID(id)))
			return nil
		},
	}
}

func newHistoryClearCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete all sessions without --yes")
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess(fmt.Sprintf("Deleted %d sessions", n)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}

// =============================================================================
// HELPERS
// =============================================================================

// loadSession resolves an ID prefix and loads the session.
func loadSession(cmd *cobra.Command, store *storage.Store, prefix string) (*storage.Session, error) {
	id, err := store.ResolveID(cmd.Context(), prefix)
	if err != nil {
		return nil, err
	}
	return store.Load(cmd.Context(), id)
}

func printTranscript(w io.Writer, sess *storage.Session) {
	fmt.Fprintf(w, "%s\n", promptStyle.Render(sess.Title))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s  %s  %s",
		sess.ID, sess.Source, sess.CreatedAt.Format("2006-01-02 15:04"))))

	for _, e := range sess.Entries {
		fmt.Fprintf(w, "\n%s %s\n", promptStyle.Render("you>"), e.UserQuery)
		if e.Pending() {
			fmt.Fprintln(w, dimStyle.Render(query.Placeholder))
			continue
		}
		fmt.Fprintln(w, e.BotReply)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
