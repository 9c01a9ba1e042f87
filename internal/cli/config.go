// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/config"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit configuration",
	}
	cmd.AddCommand(
		newConfigShowCommand(a),
		newConfigPathCommand(a),
		newConfigInitCommand(a),
		newConfigGetCommand(a),
		newConfigSetCommand(a),
		newConfigKeysCommand(),
	)
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Print the configuration after file, environment, and flag overrides.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Global()
			if jsonOut {
				return NewJSONResponse("config show", cfg).Write(cmd.OutOrStdout())
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "wrap output in a JSON response")
	return cmd
}

func newConfigPathCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationBrokenConfigOK: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationBrokenConfigOK: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.writablePath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess("Wrote "+path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting, for example polling.max_attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting in the config file",
		Long: `Change one setting in the config file.

Only the file is edited. Environment variables and flags in effect for this
run are not written back.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.writablePath()
			if err != nil {
				return err
			}

			source, err := a.configFile()
			if err != nil {
				return err
			}
			cfg := config.Default()
			if _, err := os.Stat(source); err == nil {
				if err := loadFile(cfg, source); err != nil {
					return err
				}
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			cfg.SetDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := config.SaveTOML(cfg, path); err != nil {
				return err
			}

			v, _ := cfg.Get(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), styles.RenderSuccess(fmt.Sprintf("%s = %v", args[0], v)))
			return nil
		},
	}
}

func newConfigKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List settable keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetAllKeys(), "\n"))
			return nil
		},
	}
}

// writablePath is the file that init and set write. A JSON config found by
// the default search is replaced by the TOML file beside it, which wins on
// the next load.
func (a *app) writablePath() (string, error) {
	if a.configPath != "" {
		if strings.HasSuffix(a.configPath, ".json") {
			return "", fmt.Errorf("cannot write JSON config %s; use a .toml path", a.configPath)
		}
		return a.configPath, nil
	}
	if err := config.EnsureConfigDir(); err != nil {
		return "", err
	}
	return config.ConfigPathTOML()
}

// loadFile decodes path over cfg without env overrides.
func loadFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.LoadJSON(cfg, path)
	}
	return config.LoadTOML(cfg, path)
}
