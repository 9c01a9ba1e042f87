// sqlchat - a terminal client for a natural-language-to-SQL service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/sqlchat-tui/internal/cli"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.Commit = GitCommit
	cli.Date = BuildDate
}

func main() {
	if err := cli.Execute(); err != nil {
		var reported *cli.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
		}
		os.Exit(1)
	}
}
