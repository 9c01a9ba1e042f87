// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/sqlchat-tui/internal/backend"
	"github.com/jeranaias/sqlchat-tui/internal/config"
	"github.com/jeranaias/sqlchat-tui/internal/query"
	"github.com/jeranaias/sqlchat-tui/internal/storage"
)

// policyFor converts the polling config into a retry policy.
func policyFor(cfg *config.Config) query.RetryPolicy {
	return query.RetryPolicy{
		MaxAttempts: cfg.Polling.MaxAttempts,
		Interval:    cfg.Polling.Interval(),
	}
}

// newBackend creates the HTTP transport from the backend config.
func (a *app) newBackend() *backend.Client {
	logger := a.logger
	return backend.NewClientWithConfig(&backend.ClientConfig{
		BaseURL:           a.cfg.Backend.BaseURL,
		QueryPath:         a.cfg.Backend.QueryPath,
		ResultPath:        a.cfg.Backend.ResultPath,
		Timeout:           a.cfg.Backend.Timeout(),
		RequestsPerSecond: a.cfg.Backend.RequestsPerSecond,
		Logger:            &logger,
	})
}

// newQueryClient creates a query client that polls t with the configured policy.
func (a *app) newQueryClient(t query.Transport) *query.Client {
	opts := []query.Option{
		query.WithPolicy(policyFor(a.cfg)),
		query.WithLogger(a.logger),
	}
	if a.sleeper != nil {
		opts = append(opts, query.WithSleeper(a.sleeper))
	}
	return query.NewClient(t, opts...)
}

// openStore opens the session database. The store is closed with the app.
func (a *app) openStore() (*storage.Store, error) {
	path, err := a.cfg.HistoryDBPath()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	a.closers = append(a.closers, store)
	return store, nil
}

// attachRecorder mirrors client into the session database when history is
// enabled. It returns a nil recorder and a no-op detach otherwise.
func (a *app) attachRecorder(client *query.Client, source string) (*storage.Recorder, func(), error) {
	if !a.cfg.History.Enabled {
		return nil, func() {}, nil
	}
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	rec := storage.NewRecorder(store, source, a.cfg.History.MaxSessions, a.logger)
	return rec, rec.Attach(client), nil
}
