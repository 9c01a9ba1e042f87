// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/export"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		format     string
		outDir     string
		open       bool
		noMetadata bool
	)
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Write a saved session to a file",
		Example: `  sqlchat export 3f2a --format md
  sqlchat export 3f2a --format json --out ./exports`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.OutputDir = outDir
			opts.OpenAfterExport = open
			opts.IncludeMetadata = !noMetadata
			opts.Logger = a.logger

			exporter, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			sess, err := loadSession(cmd, store, args[0])
			if err != nil {
				return err
			}

			path, err := export.ExportToFile(sess, exporter, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess("Exported to "+path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format (md, json)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().BoolVar(&open, "open", false, "open the file after export")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "omit the metadata header")
	return cmd
}
