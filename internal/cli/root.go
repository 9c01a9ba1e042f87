// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/config"
	"github.com/jeranaias/sqlchat-tui/internal/logging"
	"github.com/jeranaias/sqlchat-tui/internal/query"
)

// =============================================================================
// COMMAND ANNOTATIONS
// =============================================================================

const (
	// annotationLogMode set to "tui" sends logs to the log file instead of stderr.
	annotationLogMode = "sqlchat/log-mode"

	// annotationBrokenConfigOK lets a command run on defaults when the config
	// file cannot be loaded, so it can be inspected or rewritten.
	annotationBrokenConfigOK = "sqlchat/broken-config-ok"

	// cliLogLevel is the console level when --log-level is not given.
	cliLogLevel = "warn"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app carries the state shared by every command in one invocation.
type app struct {
	configPath   string
	backendURL   string
	pollAttempts int
	pollInterval int
	noHistory    bool
	logLevel     string

	cfg     *config.Config
	logger  zerolog.Logger
	closers []io.Closer

	// Test seams.
	sleeper       query.Sleeper
	newLineReader func(historyPath string) (lineReader, error)
}

func newApp() *app {
	return &app{
		logger:        zerolog.Nop(),
		newLineReader: newLinerReader,
	}
}

// close releases resources opened while running commands.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// Execute runs the command tree with os.Args.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	a := newApp()
	defer a.close()
	return newRootCommand(a).ExecuteContext(ctx)
}

// NewRootCommand builds the sqlchat command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sqlchat",
		Short: "Chat with a natural-language-to-SQL service",
		Long: `sqlchat sends natural-language questions to a SQL generation service
and shows the SQL it produces.

Run without a subcommand to open the terminal UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{annotationLogMode: "tui"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: a.runTUI,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.sqlchat/config.toml)")
	flags.StringVar(&a.backendURL, "backend-url", "", "SQL generation service base URL")
	flags.IntVar(&a.pollAttempts, "poll-attempts", 0, "result polls per query")
	flags.IntVar(&a.pollInterval, "poll-interval", 0, "milliseconds between result polls")
	flags.BoolVar(&a.noHistory, "no-history", false, "do not save sessions")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTUICommand(a),
		newAskCommand(a),
		newChatCommand(a),
		newHistoryCommand(a),
		newExportCommand(a),
		newStatusCommand(a),
		newConfigCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads the config, applies flag overrides, and starts logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		if cmd.Annotations[annotationBrokenConfigOK] == "" {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
		cfg = config.Default()
	}

	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	a.cfg = cfg
	config.SetGlobal(cfg)

	opts := logging.Options{Mode: logging.ModeCLI, Level: cliLogLevel, Console: cmd.ErrOrStderr()}
	if cmd.Flags().Changed("log-level") {
		opts.Level = a.logLevel
	}
	if cmd.Annotations[annotationLogMode] == "tui" {
		file, err := cfg.LogFilePath()
		if err != nil {
			return err
		}
		opts = logging.Options{Mode: logging.ModeTUI, Level: cfg.Logging.Level, File: file}
	}

	logger, closer, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	a.logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

// loadConfig reads --config when given, otherwise the default locations.
func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromPath(a.configPath)
	}
	return config.Load()
}

// applyFlags copies explicitly set flags over cfg.
func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("backend-url") {
		cfg.Backend.BaseURL = a.backendURL
	}
	if flags.Changed("poll-attempts") {
		cfg.Polling.MaxAttempts = a.pollAttempts
	}
	if flags.Changed("poll-interval") {
		cfg.Polling.IntervalMs = a.pollInterval
	}
	if flags.Changed("no-history") && a.noHistory {
		cfg.History.Enabled = false
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
}

// configFile returns the file the config was, or would be, loaded from.
func (a *app) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := config.ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}
