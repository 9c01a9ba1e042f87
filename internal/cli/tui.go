// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/config"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
	"github.com/jeranaias/sqlchat-tui/internal/ui/chat"
	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
)

func newTUICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "tui",
		Short:       "Open the terminal UI (default)",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogMode: "tui"},
		RunE:        a.runTUI,
	}
}

// runTUI runs the full-screen chat until the user quits.
func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	transport := a.newBackend()
	client := a.newQueryClient(transport)
	rec, detach, err := a.attachRecorder(client, storage.SourceTUI)
	if err != nil {
		return err
	}
	defer detach()

	m := chat.New(chat.Options{
		Client:         client,
		Theme:          styles.NewTheme(a.cfg.UI.Theme),
		Recorder:       rec,
		BackendURL:     transport.BaseURL(),
		ExportDir:      ".",
		ShowTimestamps: a.cfg.UI.ShowTimestamps,
		HighlightSQL:   a.cfg.UI.HighlightSQL,
		Context:        ctx,
		Logger:         a.logger,
	})
	defer m.Cancel()

	if a.cfg.UI.WatchConfig {
		w, err := a.watchConfig(cmd, m.ReloadChannel())
		if err != nil {
			a.logger.Warn().Err(err).Msg("config watch disabled")
		} else {
			defer w.Close()
		}
	}

	a.logger.Info().Str("backend", transport.BaseURL()).Msg("starting TUI")
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// watchConfig publishes config file changes as the global config and
// forwards a copy to the TUI. Flag overrides are reapplied so a reload never
// undoes the command line. A reload that arrives while the previous one is
// still queued is dropped.
func (a *app) watchConfig(cmd *cobra.Command, reloads chan<- chat.ConfigReloadedMsg) (*config.Watcher, error) {
	if err := config.EnsureConfigDir(); err != nil {
		return nil, err
	}
	path, err := a.configFile()
	if err != nil {
		return nil, err
	}

	return config.Watch(path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
		msg := a.reloadConfig(cmd, path, cfg, err)
		select {
		case reloads <- msg:
		default:
		}
	})
}

// reloadConfig validates a reloaded config and makes it the global one.
// Settings the TUI cannot change while running are reported in the log.
func (a *app) reloadConfig(cmd *cobra.Command, path string, cfg *config.Config, err error) chat.ConfigReloadedMsg {
	if err == nil {
		a.applyFlags(cmd, cfg)
		err = cfg.Validate()
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("config reload rejected")
		return chat.ConfigReloadedMsg{Err: err}
	}

	prev := config.Global()
	config.SetGlobal(cfg)
	if prev != nil && prev.Backend.BaseURL != cfg.Backend.BaseURL {
		a.logger.Warn().
			Str("old", prev.Backend.BaseURL).
			Str("new", cfg.Backend.BaseURL).
			Msg("backend URL change applies after restart")
	}
	a.logger.Info().Str("path", path).Msg("config reloaded")
	return chat.ConfigReloadedMsg{Config: cfg.Clone()}
}
