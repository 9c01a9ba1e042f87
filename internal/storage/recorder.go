// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/sqlchat-tui/internal/query"
)

// writeTimeout bounds each database write made from an observer callback.
const writeTimeout = 5 * time.Second

// Recorder mirrors a query.Client's history into a Store. The session row is
// created on the first appended entry, so runs that never submit leave no
// trace. Write errors are logged and never reach the client.
type Recorder struct {
	store       *Store
	source      string
	maxSessions int
	logger      zerolog.Logger

	mu        sync.Mutex
	sessionID string
}

// NewRecorder creates a recorder that prunes to maxSessions after creating
// its session.
func NewRecorder(store *Store, source string, maxSessions int, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:       store,
		source:      source,
		maxSessions: maxSessions,
		logger:      logger.With().Str("component", "recorder").Logger(),
	}
}

// Attach subscribes the recorder to c and returns the unsubscribe function.
func (r *Recorder) Attach(c *query.Client) func() {
	return c.Subscribe(r.Observe)
}

// SessionID returns the session being written, or "" before the first entry.
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Observe implements query.Observer.
func (r *Recorder) Observe(ev query.Event) {
	switch ev.Kind {
	case query.EventEntryAppended, query.EventAnswerAccepted:
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	sessionID, err := r.ensureSession(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create session")
		return
	}
	if err := r.store.SaveEntry(ctx, sessionID, ev.Entry); err != nil {
		r.logger.Error().Err(err).Str("entry_id", ev.Entry.ID).Msg("failed to save entry")
	}
}

func (r *Recorder) ensureSession(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionID != "" {
		return r.sessionID, nil
	}
	id, err := r.store.CreateSession(ctx, r.source)
	if err != nil {
		return "", err
	}
	r.sessionID = id

	if n, err := r.store.Prune(ctx, r.maxSessions); err != nil {
		r.logger.Warn().Err(err).Msg("failed to prune sessions")
	} else if n > 0 {
		r.logger.Debug().Int("pruned", n).Msg("pruned old sessions")
	}
	return id, nil
}
