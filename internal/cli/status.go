// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/sqlchat-tui/internal/ui/styles"
	"github.com/jeranaias/sqlchat-tui/internal/util"
)

// statusProbeTimeout bounds the reachability probe.
const statusProbeTimeout = 5 * time.Second

// StatusData is the --json payload of status.
type StatusData struct {
	BackendURL   string  `json:"backend_url"`
	Reachable    bool    `json:"reachable"`
	LatencyMs    float64 `json:"latency_ms,omitempty"`
	LastAnswer   string  `json:"last_answer,omitempty"`
	ProbeError   string  `json:"probe_error,omitempty"`
	ConfigFile   string  `json:"config_file"`
	HistoryDB    string  `json:"history_db,omitempty"`
	PollAttempts int     `json:"poll_attempts"`
	PollInterval int     `json:"poll_interval_ms"`
}

func newStatusCommand(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check that the SQL generation service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.collectStatus(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return NewJSONResponse("status", data).Write(cmd.OutOrStdout())
			}
			printStatus(cmd, data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

// collectStatus probes the result endpoint. An unreachable service is
// reported in the data, not returned as an error.
func (a *app) collectStatus(ctx context.Context) (*StatusData, error) {
	transport := a.newBackend()
	file, err := a.configFile()
	if err != nil {
		return nil, err
	}

	data := &StatusData{
		BackendURL:   transport.BaseURL(),
		ConfigFile:   file,
		PollAttempts: a.cfg.Polling.MaxAttempts,
		PollInterval: a.cfg.Polling.IntervalMs,
	}
	if a.cfg.History.Enabled {
		if data.HistoryDB, err = a.cfg.HistoryDBPath(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	ping, err := transport.Ping(ctx)
	if err != nil {
		a.logger.Debug().Err(err).Msg("status probe failed")
		data.ProbeError = err.Error()
		return data, nil
	}
	data.Reachable = true
	data.LatencyMs = float64(ping.Latency.Microseconds()) / 1000
	data.LastAnswer = ping.Answer
	return data, nil
}

func printStatus(cmd *cobra.Command, data *StatusData) {
	out := cmd.OutOrStdout()

	msg := "Service reachable at " + data.BackendURL
	if data.Reachable {
		msg += fmt.Sprintf(" (%.0fms)", data.LatencyMs)
	} else {
		msg = "Service unreachable at " + data.BackendURL + ": " + data.ProbeError
	}
	fmt.Fprintln(out, styles.RenderStatus(data.Reachable, msg))

	if data.Reachable && data.LastAnswer != "" {
		fmt.Fprintf(out, "  Last answer: %s\n", util.TruncateWidth(util.FirstLine(data.LastAnswer), 60))
	}
	fmt.Fprintf(out, "  Config:      %s\n", data.ConfigFile)
	if data.HistoryDB != "" {
		fmt.Fprintf(out, "  History:     %s\n", data.HistoryDB)
	} else {
		fmt.Fprintln(out, "  History:     disabled")
	}
	fmt.Fprintf(out, "  Polling:     %d attempts, %dms apart\n", data.PollAttempts, data.PollInterval)
}
